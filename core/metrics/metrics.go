package metrics

import (
	"time"

	"github.com/kilianp07/liftsim/core/model"
)

// TripRecord describes a finished trip.
type TripRecord struct {
	CarID    string
	TripID   string
	Origin   model.Floor
	Floor    model.Floor
	Duration time.Duration
	Reroutes int
	Served   int
	Time     time.Time
}

// MetricsSink records trips for observability purposes.
type MetricsSink interface {
	RecordTrip(rec TripRecord) error
}

// WaitRecord describes how long a request stayed pending.
type WaitRecord struct {
	Kind  model.RequestKind
	Floor model.Floor
	CarID string
	Wait  time.Duration
	Time  time.Time
}

// WaitRecorder records request wait times.
type WaitRecorder interface {
	RecordWait(rec WaitRecord) error
}

// RerouteRecord describes a change of target during a trip.
type RerouteRecord struct {
	CarID    string
	TripID   string
	From     model.Floor
	To       model.Floor
	Mode     string
	Velocity float64
	Time     time.Time
}

// RerouteRecorder records reroutes.
type RerouteRecorder interface {
	RecordReroute(rec RerouteRecord) error
}

// AssignmentRecord describes floors handed to a car by the dispatcher.
type AssignmentRecord struct {
	CarID    string
	Strategy string
	Floors   int
	Time     time.Time
}

// AssignmentRecorder records dispatcher assignments.
type AssignmentRecorder interface {
	RecordAssignment(rec AssignmentRecord) error
}

// PendingRecorder records the number of pending requests.
type PendingRecorder interface {
	RecordPending(n int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordTrip(TripRecord) error             { return nil }
func (NopSink) RecordWait(WaitRecord) error             { return nil }
func (NopSink) RecordReroute(RerouteRecord) error       { return nil }
func (NopSink) RecordAssignment(AssignmentRecord) error { return nil }
func (NopSink) RecordPending(int) error                 { return nil }
