// Package requests holds the building-wide set of pending floor requests.
package requests

import (
	"time"

	"github.com/kilianp07/liftsim/core/events"
	"github.com/kilianp07/liftsim/core/model"
)

// Clock supplies the current virtual time.
type Clock interface {
	Now() time.Duration
}

// Notifier receives a change of the pending set. It must not block.
type Notifier func(events.RequestEvent)

type entry struct {
	req     model.Request
	addedAt time.Duration
}

// Queue is the ordered set of pending requests. It holds no duplicates.
// Requests leave the queue only when an arrival satisfies them.
type Queue struct {
	clock   Clock
	notify  Notifier
	entries []entry
}

// New creates an empty queue. notify may be nil.
func New(clock Clock, notify Notifier) *Queue {
	return &Queue{clock: clock, notify: notify}
}

func (q *Queue) now() time.Duration {
	if q.clock == nil {
		return 0
	}
	return q.clock.Now()
}

// Add inserts r unless an identical request is pending. It reports whether
// the queue changed.
func (q *Queue) Add(r model.Request) bool {
	if q.Contains(r) {
		return false
	}
	at := q.now()
	q.entries = append(q.entries, entry{req: r, addedAt: at})
	q.emit(events.RequestEvent{Request: r, Action: events.RequestAdded, Pending: len(q.entries), At: at})
	return true
}

// Remove deletes every pending request that r satisfies and returns how many
// were removed. Panel requests need kind, floor and car to match; hall calls
// only kind and floor.
func (q *Queue) Remove(r model.Request) int {
	now := q.now()
	kept := q.entries[:0]
	var removed []entry
	for _, e := range q.entries {
		if e.req.SatisfiedBy(r) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	for _, e := range removed {
		q.emit(events.RequestEvent{
			Request: e.req,
			Action:  events.RequestRemoved,
			Waited:  now - e.addedAt,
			Pending: len(q.entries),
			At:      now,
		})
	}
	return len(removed)
}

// Contains reports whether an identical request is pending.
func (q *Queue) Contains(r model.Request) bool {
	return q.Exists(func(o model.Request) bool { return o.Same(r) })
}

// Exists reports whether any pending request matches pred.
func (q *Queue) Exists(pred func(model.Request) bool) bool {
	for _, e := range q.entries {
		if pred(e.req) {
			return true
		}
	}
	return false
}

// Filter returns the pending requests matching pred in insertion order.
func (q *Queue) Filter(pred func(model.Request) bool) []model.Request {
	var out []model.Request
	for _, e := range q.entries {
		if pred(e.req) {
			out = append(out, e.req)
		}
	}
	return out
}

// List returns a copy of all pending requests in insertion order.
func (q *Queue) List() []model.Request {
	out := make([]model.Request, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.req
	}
	return out
}

// Len returns the number of pending requests.
func (q *Queue) Len() int { return len(q.entries) }

// AddedAt returns when an identical pending request was added.
func (q *Queue) AddedAt(r model.Request) (time.Duration, bool) {
	for _, e := range q.entries {
		if e.req.Same(r) {
			return e.addedAt, true
		}
	}
	return 0, false
}

func (q *Queue) emit(ev events.RequestEvent) {
	if q.notify != nil {
		q.notify(ev)
	}
}

// IsPanelFor returns a predicate matching panel requests of car id.
func IsPanelFor(id string) func(model.Request) bool {
	return func(r model.Request) bool { return r.Kind == model.KindPanel && r.CarID == id }
}

// IsKind returns a predicate matching requests of kind k.
func IsKind(k model.RequestKind) func(model.Request) bool {
	return func(r model.Request) bool { return r.Kind == k }
}
