// Package metrics defines the sinks that record simulation activity for
// observability. A sink must record finished trips and may implement further
// recorder interfaces for request waits, reroutes, assignments and queue
// depth. Sinks are combined with NewMultiSink; the factory helpers return a
// MultiSink automatically when several sinks are configured.
package metrics
