package elevator

import (
	"time"

	"github.com/kilianp07/liftsim/core/model"
)

// CarStatus is the observable state of a car.
type CarStatus struct {
	ID                string          `json:"id"`
	State             State           `json:"state"`
	CurrentFloor      model.Floor     `json:"current_floor"`
	VisualFloor       float64         `json:"visual_floor"`
	Direction         model.Direction `json:"direction"`
	HandlingDirection model.Direction `json:"handling_direction"`
	Moving            bool            `json:"moving"`
	ArrivalImminent   bool            `json:"arrival_imminent"`
	Destination       *model.Floor    `json:"destination,omitempty"`
	PendingReroute    *model.Floor    `json:"pending_reroute,omitempty"`
	JustArrived       *model.Floor    `json:"just_arrived,omitempty"`
	Stops             []model.Floor   `json:"stops"`
	TripID            string          `json:"trip_id,omitempty"`
	TripsCompleted    int             `json:"trips_completed"`
}

// Status returns a snapshot of the car.
func (c *Car) Status() CarStatus {
	st := CarStatus{
		ID:                c.id,
		State:             c.state,
		CurrentFloor:      c.current,
		VisualFloor:       c.visual,
		Direction:         c.direction,
		HandlingDirection: c.handling,
		Moving:            c.IsMoving(),
		ArrivalImminent:   c.imminent,
		Stops:             c.Stops(),
		TripsCompleted:    c.trips,
	}
	if st.Stops == nil {
		st.Stops = []model.Floor{}
	}
	if c.hasDest {
		f := c.dest
		st.Destination = &f
	}
	if c.hasPending {
		f := c.pending
		st.PendingReroute = &f
	}
	if c.hasJustArrived {
		f := c.justArrived
		st.JustArrived = &f
	}
	if c.IsMoving() {
		st.TripID = c.trip.id
	}
	return st
}

// Snapshot is the observable state of the whole building.
type Snapshot struct {
	Cars     []CarStatus      `json:"cars"`
	Requests []model.Request  `json:"requests"`
	Floors   []model.FloorDef `json:"floors"`
	SimTime  time.Duration    `json:"sim_time"`
}

// Snapshot captures every car and the pending requests.
func (b *Building) Snapshot() Snapshot {
	s := Snapshot{
		Cars:     make([]CarStatus, 0, len(b.cars)),
		Requests: b.queue.List(),
		Floors:   append([]model.FloorDef(nil), b.layout.Floors...),
		SimTime:  b.Now(),
	}
	for _, c := range b.cars {
		s.Cars = append(s.Cars, c.Status())
	}
	return s
}
