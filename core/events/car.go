package events

import (
	"time"

	"github.com/kilianp07/liftsim/core/model"
)

// FloorEvent is published when the rounded position of a car changes.
type FloorEvent struct {
	CarID string
	Floor model.Floor
	At    time.Duration
}

// DirectionEvent is published when a car changes its travel direction.
type DirectionEvent struct {
	CarID     string
	Direction model.Direction
	At        time.Duration
}

// TripEvent is published when a car starts a trip.
type TripEvent struct {
	CarID    string
	TripID   string
	From     model.Floor
	To       model.Floor
	Duration time.Duration
	At       time.Duration
}

// RerouteMode describes how a moving car changed its target.
type RerouteMode string

const (
	// RerouteSubstitute replaces the target before any motion happened.
	RerouteSubstitute RerouteMode = "substitute"
	// RerouteDeferred records a target to apply later in the trip.
	RerouteDeferred RerouteMode = "deferred"
	// RerouteInterrupt replaces the motion curve immediately.
	RerouteInterrupt RerouteMode = "interrupt"
)

// RerouteEvent is published when a moving car retargets its trip.
type RerouteEvent struct {
	CarID    string
	TripID   string
	From     model.Floor
	To       model.Floor
	Mode     RerouteMode
	Position float64
	Velocity float64
	At       time.Duration
}

// ArrivalEvent is published when a car reaches the target of a trip.
type ArrivalEvent struct {
	CarID    string
	TripID   string
	Origin   model.Floor
	Floor    model.Floor
	Duration time.Duration
	Reroutes int
	Served   []model.Request
	At       time.Duration
}

// IdleEvent is published when a car settles with no stop to serve.
type IdleEvent struct {
	CarID string
	Floor model.Floor
	At    time.Duration
}

// IndicatorEvent is published when one of the car's transient flags changes,
// such as the arrival imminent or just arrived indicators.
type IndicatorEvent struct {
	CarID string
	Name  string
	On    bool
	At    time.Duration
}

// AssignmentEvent is published when the dispatcher gives floors to a car.
type AssignmentEvent struct {
	CarID    string
	Floors   []model.Floor
	Strategy string
	At       time.Duration
}
