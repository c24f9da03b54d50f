package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/liftsim/core/events"
	coremetrics "github.com/kilianp07/liftsim/core/metrics"
	"github.com/kilianp07/liftsim/core/monitoring"
	"github.com/kilianp07/liftsim/infra/logger"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled; the returned channel is closed once
// the collector goroutine exits.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := collect(sink, ev, time.Now()); err != nil {
					log.Warnf("record %T: %v", ev, err)
					monitoring.CaptureException(err, map[string]string{"component": "metrics"})
				}
			}
		}
	}()
	return done
}

func collect(sink coremetrics.MetricsSink, ev eventbus.Event, now time.Time) error {
	switch e := ev.(type) {
	case events.ArrivalEvent:
		return sink.RecordTrip(coremetrics.TripRecord{
			CarID:    e.CarID,
			TripID:   e.TripID,
			Origin:   e.Origin,
			Floor:    e.Floor,
			Duration: e.Duration,
			Reroutes: e.Reroutes,
			Served:   len(e.Served),
			Time:     now,
		})
	case events.RequestEvent:
		var err error
		if r, ok := sink.(coremetrics.PendingRecorder); ok {
			err = r.RecordPending(e.Pending)
		}
		if e.Action != events.RequestRemoved {
			return err
		}
		if r, ok := sink.(coremetrics.WaitRecorder); ok {
			if werr := r.RecordWait(coremetrics.WaitRecord{
				Kind:  e.Request.Kind,
				Floor: e.Request.Floor,
				CarID: e.Request.CarID,
				Wait:  e.Waited,
				Time:  now,
			}); werr != nil {
				return werr
			}
		}
		return err
	case events.RerouteEvent:
		if r, ok := sink.(coremetrics.RerouteRecorder); ok {
			return r.RecordReroute(coremetrics.RerouteRecord{
				CarID:    e.CarID,
				TripID:   e.TripID,
				From:     e.From,
				To:       e.To,
				Mode:     string(e.Mode),
				Velocity: e.Velocity,
				Time:     now,
			})
		}
	case events.AssignmentEvent:
		if r, ok := sink.(coremetrics.AssignmentRecorder); ok {
			return r.RecordAssignment(coremetrics.AssignmentRecord{
				CarID:    e.CarID,
				Strategy: e.Strategy,
				Floors:   len(e.Floors),
				Time:     now,
			})
		}
	}
	return nil
}
