package metrics

import (
	"errors"

	coremetrics "github.com/kilianp07/liftsim/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records trip outcomes in Prometheus metrics.
type PromSink struct {
	trips    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	wait     *prometheus.HistogramVec
	reroutes *prometheus.CounterVec
}

// NewPromSink registers trip metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately, see StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	trips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "liftsim_trips_total",
		Help: "Total number of completed trips",
	}, []string{"car_id"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "liftsim_trip_duration_seconds",
		Help:    "Simulated duration of completed trips",
		Buckets: []float64{1, 2, 4, 6, 8, 12, 16, 24},
	}, []string{"car_id"})
	wait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "liftsim_request_wait_seconds",
		Help:    "Time a request stayed pending before being served",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	}, []string{"kind"})
	reroutes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "liftsim_reroutes_total",
		Help: "Number of trip target changes by mode",
	}, []string{"mode"})

	var err error
	if trips, err = register(reg, trips); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if wait, err = register(reg, wait); err != nil {
		return nil, err
	}
	if reroutes, err = register(reg, reroutes); err != nil {
		return nil, err
	}
	return &PromSink{trips: trips, duration: duration, wait: wait, reroutes: reroutes}, nil
}

// register adds c to reg, reusing an identical collector that is already
// registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordTrip counts the trip and observes its duration.
func (s *PromSink) RecordTrip(rec coremetrics.TripRecord) error {
	s.trips.WithLabelValues(rec.CarID).Inc()
	s.duration.WithLabelValues(rec.CarID).Observe(rec.Duration.Seconds())
	return nil
}

// RecordWait observes how long a request was pending.
func (s *PromSink) RecordWait(rec coremetrics.WaitRecord) error {
	s.wait.WithLabelValues(rec.Kind.String()).Observe(rec.Wait.Seconds())
	return nil
}

// RecordReroute counts a reroute by mode.
func (s *PromSink) RecordReroute(rec coremetrics.RerouteRecord) error {
	s.reroutes.WithLabelValues(rec.Mode).Inc()
	return nil
}

var (
	_ coremetrics.MetricsSink     = (*PromSink)(nil)
	_ coremetrics.WaitRecorder    = (*PromSink)(nil)
	_ coremetrics.RerouteRecorder = (*PromSink)(nil)
)
