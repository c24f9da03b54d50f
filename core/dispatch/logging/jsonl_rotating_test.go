package logging

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/liftsim/core/model"
)

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/log.jsonl"
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	rec := LogRecord{Timestamp: time.Now(), CarID: "elevator1", Served: []model.Request{
		{Kind: model.KindPanel, Floor: 3, CarID: "elevator1" + strings.Repeat("x", 2048)},
	}}
	for i := 0; i < 600; i++ {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	files, _ := filepath.Glob(dir + "/log-*.jsonl")
	if len(files) == 0 {
		t.Fatalf("expected rotated files")
	}
	out, err := store.Query(context.Background(), LogQuery{CarID: "elevator1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected records across rotated files")
	}
}

func TestRotatingJSONLStore_Query(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/log.jsonl"
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	now := time.Now()
	_ = store.Append(context.Background(), LogRecord{Timestamp: now, CarID: "elevator1", Floor: 3})
	_ = store.Append(context.Background(), LogRecord{Timestamp: now, CarID: "elevator2", Floor: 5})
	out, err := store.Query(context.Background(), LogQuery{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	f := model.Floor(5)
	out, _ = store.Query(context.Background(), LogQuery{Floor: &f})
	if len(out) != 1 || out[0].CarID != "elevator2" {
		t.Fatalf("floor filter failed: %+v", out)
	}
}
