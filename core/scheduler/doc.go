// Package scheduler provides the single-threaded virtual clock that drives the
// simulation. Every mutation of building state runs on the goroutine that owns
// the scheduler: timers fire from Advance, and other goroutines hand work over
// with Post or Do.
package scheduler
