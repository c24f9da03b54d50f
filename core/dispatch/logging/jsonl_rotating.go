package logging

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingJSONLStore appends trips to a JSON lines file that lumberjack
// rotates by size. Queries read the backups before the live file.
type RotatingJSONLStore struct {
	*lineWriter
	path string
}

// NewRotatingJSONLStore creates a store rotating at maxSizeMB megabytes and
// keeping at most maxBackups files for maxAgeDays days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	return &RotatingJSONLStore{lineWriter: newLineWriter(lj), path: path}, nil
}

func (s *RotatingJSONLStore) Query(ctx context.Context, q LogQuery) ([]LogRecord, error) {
	segs, err := s.segments()
	if err != nil {
		return nil, err
	}
	return readSegments(ctx, q, segs...)
}

// segments lists rotated backups oldest first followed by the live file.
// Backup names embed a sortable timestamp.
func (s *RotatingJSONLStore) segments() ([]string, error) {
	ext := filepath.Ext(s.path)
	backups, err := filepath.Glob(strings.TrimSuffix(s.path, ext) + "-*" + ext)
	if err != nil {
		return nil, err
	}
	slices.Sort(backups)
	return append(backups, s.path), nil
}
