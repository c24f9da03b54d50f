package events

import (
	"time"

	"github.com/kilianp07/liftsim/core/model"
)

// RequestAction tells whether a request was added or removed.
type RequestAction string

const (
	RequestAdded   RequestAction = "added"
	RequestRemoved RequestAction = "removed"
)

// RequestEvent is published whenever the pending request set changes.
// Waited is set on removal and holds the time the request was pending.
type RequestEvent struct {
	Request model.Request
	Action  RequestAction
	Waited  time.Duration
	Pending int
	At      time.Duration
}
