package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
)

// lineWriter serialises JSON lines onto w.
type lineWriter struct {
	mu  sync.Mutex
	w   io.WriteCloser
	enc *json.Encoder
}

func newLineWriter(w io.WriteCloser) *lineWriter {
	return &lineWriter{w: w, enc: json.NewEncoder(w)}
}

func (lw *lineWriter) Append(_ context.Context, rec LogRecord) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.enc.Encode(rec)
}

func (lw *lineWriter) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Close()
}

// JSONLStore appends trips to a single JSON lines file.
type JSONLStore struct {
	*lineWriter
	path string
}

func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLStore{lineWriter: newLineWriter(f), path: path}, nil
}

func (s *JSONLStore) Query(ctx context.Context, q LogQuery) ([]LogRecord, error) {
	return readSegments(ctx, q, s.path)
}

// readSegments scans the files in order and returns the matching records.
// Missing files are ignored and malformed lines skipped.
func readSegments(ctx context.Context, q LogQuery, paths ...string) ([]LogRecord, error) {
	var res []LogRecord
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res, err = scanRecords(f, q, res)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return q.limit(res), nil
}

func scanRecords(r io.Reader, q LogQuery, res []LogRecord) ([]LogRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var rec LogRecord
		if json.Unmarshal(scanner.Bytes(), &rec) != nil {
			continue
		}
		if q.Matches(rec) {
			res = append(res, rec)
		}
	}
	return res, scanner.Err()
}
