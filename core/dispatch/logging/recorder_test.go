package logging

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilianp07/liftsim/core/events"
	"github.com/kilianp07/liftsim/core/factory"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

func TestStartRecorderWritesArrivals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.jsonl")
	store, err := NewStore(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": path}})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := StartRecorder(ctx, bus, store, nil)

	bus.Publish(events.FloorEvent{CarID: "elevator1", Floor: 1})
	bus.Publish(events.ArrivalEvent{CarID: "elevator1", TripID: "t1", Floor: 4, Duration: 4 * time.Second, At: 9 * time.Second})

	deadline := time.Now().Add(2 * time.Second)
	var out []LogRecord
	for time.Now().Before(deadline) {
		out, _ = store.Query(context.Background(), LogQuery{})
		if len(out) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done
	if len(out) != 1 {
		t.Fatalf("expected one record, got %d", len(out))
	}
	if out[0].Floor != model.Floor(4) || out[0].DurationMS != 4000 || out[0].SimTimeMS != 9000 {
		t.Fatalf("unexpected record %+v", out[0])
	}
}

func TestNewStoreTypes(t *testing.T) {
	s, err := NewStore(factory.ModuleConfig{})
	if err != nil {
		t.Fatalf("default store: %v", err)
	}
	if _, ok := s.(NopStore); !ok {
		t.Fatalf("expected NopStore, got %T", s)
	}
	if _, err := NewStore(factory.ModuleConfig{Type: "postgres"}); err == nil {
		t.Fatal("expected unknown type error")
	}
	s, err = NewStore(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": "file:factory_test.db?mode=memory&cache=shared"}})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	_ = s.Close()
}
