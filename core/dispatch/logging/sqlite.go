package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/liftsim/core/model"
)

const tripSchema = `CREATE TABLE IF NOT EXISTS trips (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    trip_id     TEXT UNIQUE,
    ts_ms       INTEGER NOT NULL,
    car_id      TEXT NOT NULL,
    origin      INTEGER NOT NULL,
    floor       INTEGER NOT NULL,
    sim_time_ms INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    reroutes    INTEGER NOT NULL,
    served      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS trips_car_ts ON trips (car_id, ts_ms);`

// SQLiteStore keeps one row per trip. Appending a trip id twice replaces
// the earlier row.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(tripSchema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the trip to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec LogRecord) error {
	served, err := json.Marshal(rec.Served)
	if err != nil {
		return err
	}
	var tripID any
	if rec.TripID != "" {
		tripID = rec.TripID
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO trips (trip_id, ts_ms, car_id, origin, floor, sim_time_ms, duration_ms, reroutes, served)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tripID, rec.Timestamp.UnixMilli(), rec.CarID, int(rec.Origin), int(rec.Floor),
		rec.SimTimeMS, rec.DurationMS, rec.Reroutes, string(served))
	return err
}

// Query returns the trips matching q, oldest first. With a limit the most
// recent trips are kept.
func (s *SQLiteStore) Query(ctx context.Context, q LogQuery) ([]LogRecord, error) {
	var (
		where []string
		args  []any
	)
	if !q.Start.IsZero() {
		where = append(where, "ts_ms >= ?")
		args = append(args, q.Start.UnixMilli())
	}
	if !q.End.IsZero() {
		where = append(where, "ts_ms <= ?")
		args = append(args, q.End.UnixMilli())
	}
	if q.CarID != "" {
		where = append(where, "car_id = ?")
		args = append(args, q.CarID)
	}
	if q.Floor != nil {
		where = append(where, "floor = ?")
		args = append(args, int(*q.Floor))
	}
	query := `SELECT COALESCE(trip_id, ''), ts_ms, car_id, origin, floor, sim_time_ms, duration_ms, reroutes, served FROM trips`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []LogRecord
	for rows.Next() {
		var (
			r             LogRecord
			tsMS          int64
			origin, floor int
			served        string
		)
		if err := rows.Scan(&r.TripID, &tsMS, &r.CarID, &origin, &floor, &r.SimTimeMS, &r.DurationMS, &r.Reroutes, &served); err != nil {
			return nil, err
		}
		r.Timestamp = time.UnixMilli(tsMS).UTC()
		r.Origin, r.Floor = model.Floor(origin), model.Floor(floor)
		if err := json.Unmarshal([]byte(served), &r.Served); err != nil {
			return nil, fmt.Errorf("decode served requests of trip %s: %w", r.TripID, err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(res)
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
