package logging

import (
	"context"
	"testing"
	"time"

	"github.com/kilianp07/liftsim/core/model"
)

func TestSQLiteStore_PersistQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:trips_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	now := time.Now()
	recs := []LogRecord{
		{Timestamp: now, TripID: "a", CarID: "elevator1", Floor: 5, Served: []model.Request{model.CallRequest(model.DirUp, 5)}},
		{Timestamp: now, TripID: "b", CarID: "elevator2", Floor: 2},
	}
	for _, r := range recs {
		if err := store.Append(context.Background(), r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	out, err := store.Query(context.Background(), LogQuery{CarID: "elevator1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].TripID != "a" || len(out[0].Served) != 1 {
		t.Fatalf("unexpected records %+v", out)
	}
	f := model.Floor(2)
	out, _ = store.Query(context.Background(), LogQuery{Floor: &f})
	if len(out) != 1 || out[0].CarID != "elevator2" {
		t.Fatalf("floor filter failed: %+v", out)
	}
}

func TestSQLiteStore_LimitAndReplace(t *testing.T) {
	store, err := NewSQLiteStore("file:trips_limit_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	base := time.Now()
	for i, id := range []string{"t1", "t2", "t3"} {
		rec := LogRecord{Timestamp: base.Add(time.Duration(i) * time.Second), TripID: id, CarID: "elevator1", Floor: model.Floor(i)}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := store.Append(ctx, LogRecord{Timestamp: base, TripID: "t1", CarID: "elevator1", Floor: 9}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	out, err := store.Query(ctx, LogQuery{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 || out[0].TripID != "t3" || out[1].TripID != "t1" || out[1].Floor != 9 {
		t.Fatalf("unexpected records %+v", out)
	}
}
