package logging

import (
	"context"
	"time"

	"github.com/kilianp07/liftsim/core/events"
	"github.com/kilianp07/liftsim/core/logger"
	"github.com/kilianp07/liftsim/core/monitoring"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

// FromArrival converts an arrival event into a log record.
func FromArrival(ev events.ArrivalEvent, at time.Time) LogRecord {
	return LogRecord{
		Timestamp:  at,
		TripID:     ev.TripID,
		CarID:      ev.CarID,
		Origin:     ev.Origin,
		Floor:      ev.Floor,
		SimTimeMS:  ev.At.Milliseconds(),
		DurationMS: ev.Duration.Milliseconds(),
		Reroutes:   ev.Reroutes,
		Served:     ev.Served,
	}
}

// StartRecorder appends a record to store for every arrival published on bus.
// It stops when ctx is cancelled or the bus closes; the returned channel is
// closed once the last record was written.
func StartRecorder(ctx context.Context, bus eventbus.EventBus, store LogStore, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || store == nil {
		close(done)
		return done
	}
	log = logger.OrNop(log)
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
				arr, isArrival := ev.(events.ArrivalEvent)
				if !isArrival {
					continue
				}
				if err := store.Append(ctx, FromArrival(arr, time.Now())); err != nil {
					log.Errorf("trip log append: %v", err)
					monitoring.CaptureException(err, map[string]string{"component": "trip_log", "car_id": arr.CarID})
				}
			}
		}
	}()
	return done
}
