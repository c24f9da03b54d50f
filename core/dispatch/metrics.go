package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	assignmentsTotal *prometheus.CounterVec
	processDuration  prometheus.Histogram
	pendingRequests  prometheus.Gauge
	movingCars       prometheus.Gauge
	ignoredPresses   *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Histogram, prometheus.Gauge, prometheus.Gauge, *prometheus.CounterVec) {
	asn := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsim_assignments_total",
			Help: "Number of floors assigned to cars by the dispatcher",
		},
		[]string{"strategy"},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "liftsim_dispatch_pass_seconds",
			Help:    "Wall time spent in one dispatch pass",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)
	pend := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "liftsim_pending_requests",
			Help: "Number of requests waiting to be served",
		},
	)
	moving := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "liftsim_moving_cars",
			Help: "Number of cars currently moving",
		},
	)
	ign := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsim_ignored_presses_total",
			Help: "Button presses ignored because a car already stands at the floor",
		},
		[]string{"kind"},
	)
	return asn, dur, pend, moving, ign
}

func init() {
	assignmentsTotal, processDuration, pendingRequests, movingCars, ignoredPresses = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(assignmentsTotal, processDuration, pendingRequests, movingCars, ignoredPresses)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	assignmentsTotal, processDuration, pendingRequests, movingCars, ignoredPresses = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
