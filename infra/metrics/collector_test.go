package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/liftsim/core/events"
	coremetrics "github.com/kilianp07/liftsim/core/metrics"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

type recordingSink struct {
	coremetrics.NopSink
	mu       sync.Mutex
	trips    []coremetrics.TripRecord
	waits    []coremetrics.WaitRecord
	reroutes []coremetrics.RerouteRecord
	pending  []int
}

func (s *recordingSink) RecordTrip(r coremetrics.TripRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = append(s.trips, r)
	return nil
}

func (s *recordingSink) RecordWait(r coremetrics.WaitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, r)
	return nil
}

func (s *recordingSink) RecordReroute(r coremetrics.RerouteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reroutes = append(s.reroutes, r)
	return nil
}

func (s *recordingSink) RecordPending(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, n)
	return nil
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.New()
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, sink)

	req := model.CallRequest(model.DirUp, 3)
	bus.Publish(events.RequestEvent{Request: req, Action: events.RequestAdded, Pending: 1})
	bus.Publish(events.RerouteEvent{CarID: "elevator1", From: 7, To: 3, Mode: events.RerouteInterrupt})
	bus.Publish(events.ArrivalEvent{CarID: "elevator1", Floor: 3, Duration: 3 * time.Second, Served: []model.Request{req}})
	bus.Publish(events.RequestEvent{Request: req, Action: events.RequestRemoved, Waited: 2 * time.Second})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sink.mu.Lock()
		n := len(sink.waits)
		sink.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.trips) != 1 || sink.trips[0].Served != 1 {
		t.Fatalf("unexpected trips %+v", sink.trips)
	}
	if len(sink.reroutes) != 1 || sink.reroutes[0].Mode != "interrupt" {
		t.Fatalf("unexpected reroutes %+v", sink.reroutes)
	}
	if len(sink.waits) != 1 || sink.waits[0].Wait != 2*time.Second || sink.waits[0].Kind != model.KindUp {
		t.Fatalf("unexpected waits %+v", sink.waits)
	}
	if len(sink.pending) != 2 {
		t.Fatalf("expected pending recorded twice, got %v", sink.pending)
	}
}

func TestStartEventCollectorNilBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, coremetrics.NopSink{})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector with nil bus should finish immediately")
	}
}
