package metrics

import "errors"

// MultiSink fans records out to several sinks. Every sink receives the record
// even when an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTrip forwards the trip to all sinks.
func (m *MultiSink) RecordTrip(rec TripRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordTrip(rec))
	}
	return errors.Join(errs...)
}

// RecordWait forwards wait times to sinks that support them.
func (m *MultiSink) RecordWait(rec WaitRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(WaitRecorder); ok {
			errs = append(errs, r.RecordWait(rec))
		}
	}
	return errors.Join(errs...)
}

// RecordReroute forwards reroutes to sinks that support them.
func (m *MultiSink) RecordReroute(rec RerouteRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(RerouteRecorder); ok {
			errs = append(errs, r.RecordReroute(rec))
		}
	}
	return errors.Join(errs...)
}

// RecordAssignment forwards assignments to sinks that support them.
func (m *MultiSink) RecordAssignment(rec AssignmentRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(AssignmentRecorder); ok {
			errs = append(errs, r.RecordAssignment(rec))
		}
	}
	return errors.Join(errs...)
}

// RecordPending forwards the queue depth to sinks that support it.
func (m *MultiSink) RecordPending(n int) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(PendingRecorder); ok {
			errs = append(errs, r.RecordPending(n))
		}
	}
	return errors.Join(errs...)
}
