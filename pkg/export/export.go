// Package export writes trip records to files for offline analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/liftsim/core/dispatch/logging"
)

// WriteJSON writes the trip records to w as one JSON array.
func WriteJSON(w io.Writer, recs []logging.LogRecord) error {
	if recs == nil {
		recs = []logging.LogRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// WriteCSV writes the trip records to w in CSV format. Served requests are
// joined with a semicolon.
func WriteCSV(w io.Writer, recs []logging.LogRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"timestamp", "trip_id", "car_id", "origin", "floor", "sim_time_ms", "duration_ms", "reroutes", "served"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range recs {
		served := make([]string, len(r.Served))
		for i, req := range r.Served {
			served[i] = req.String()
		}
		rec := []string{
			r.Timestamp.Format(time.RFC3339Nano),
			r.TripID,
			r.CarID,
			strconv.Itoa(int(r.Origin)),
			strconv.Itoa(int(r.Floor)),
			strconv.FormatInt(r.SimTimeMS, 10),
			strconv.FormatInt(r.DurationMS, 10),
			strconv.Itoa(r.Reroutes),
			strings.Join(served, ";"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the records to path, choosing the format from its
// extension (.csv or .json).
func WriteFile(path string, recs []logging.LogRecord) (err error) {
	var write func(io.Writer, []logging.LogRecord) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = WriteCSV
	case ".json":
		write = WriteJSON
	default:
		return fmt.Errorf("unsupported export format %q", filepath.Ext(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f, recs)
}
