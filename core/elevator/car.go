package elevator

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/liftsim/core/events"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/core/motion"
	"github.com/kilianp07/liftsim/core/scheduler"
)

type trip struct {
	id       string
	origin   model.Floor
	begun    time.Duration
	start    time.Duration
	curve    motion.Trajectory
	framed   bool
	reroutes int
}

// Car is one elevator cab.
type Car struct {
	id string
	b  *Building

	state     State
	current   model.Floor
	visual    float64
	direction model.Direction
	handling  model.Direction

	stops    []model.Floor
	bypassed []model.Floor

	dest       model.Floor
	hasDest    bool
	pending    model.Floor
	hasPending bool

	imminent       bool
	justArrived    model.Floor
	hasJustArrived bool

	trip  trip
	trips int

	frame        *scheduler.Slot
	lead         *scheduler.Slot
	settle       *scheduler.Slot
	arrivedTimer *scheduler.Slot
}

func newCar(b *Building, def model.CarDef) *Car {
	s := b.sched
	return &Car{
		id:           def.ID,
		b:            b,
		current:      def.InitialFloor,
		visual:       float64(def.InitialFloor),
		frame:        s.NewSlot(),
		lead:         s.NewSlot(),
		settle:       s.NewSlot(),
		arrivedTimer: s.NewSlot(),
	}
}

// ID returns the car identifier.
func (c *Car) ID() string { return c.id }

// State returns the lifecycle state.
func (c *Car) State() State { return c.state }

// CurrentFloor returns the floor shown on the indicator.
func (c *Car) CurrentFloor() model.Floor { return c.current }

// VisualFloor returns the continuous position in floors.
func (c *Car) VisualFloor() float64 { return c.visual }

// Direction returns the travel direction.
func (c *Car) Direction() model.Direction { return c.direction }

// HandlingDirection returns the direction lock held by the car.
func (c *Car) HandlingDirection() model.Direction { return c.handling }

// SetHandlingDirection acquires or releases the direction lock.
func (c *Car) SetHandlingDirection(d model.Direction) { c.handling = d }

// IsMoving reports whether a trip is in progress.
func (c *Car) IsMoving() bool { return c.state == StateMoving }

// ArrivalImminent reports whether the current trip ends within the arrival lead.
func (c *Car) ArrivalImminent() bool { return c.imminent }

// Destination returns the target of the current trip.
func (c *Car) Destination() (model.Floor, bool) { return c.dest, c.hasDest }

// PendingReroute returns the deferred reroute target, if any.
func (c *Car) PendingReroute() (model.Floor, bool) { return c.pending, c.hasPending }

// JustArrived returns the floor of the latest arrival while it is displayed.
func (c *Car) JustArrived() (model.Floor, bool) { return c.justArrived, c.hasJustArrived }

// Trajectory returns the active motion curve, or nil when not moving.
func (c *Car) Trajectory() motion.Trajectory {
	if !c.IsMoving() {
		return nil
	}
	return c.trip.curve
}

// SetDirection changes the travel direction and notifies listeners.
func (c *Car) SetDirection(d model.Direction) {
	if c.direction == d {
		return
	}
	c.direction = d
	c.b.emit(events.DirectionEvent{CarID: c.id, Direction: d, At: c.b.Now()})
}

func (c *Car) setFloor(f model.Floor) {
	if c.current == f {
		return
	}
	c.current = f
	c.b.emit(events.FloorEvent{CarID: c.id, Floor: f, At: c.b.Now()})
}

// MoveTo starts a trip to floor. It is a no-op returning false when the car
// is already moving, when another car is moving and trips are exclusive, or
// when the car already stands at floor.
func (c *Car) MoveTo(floor model.Floor) bool {
	if !c.b.CanStartTrip(c) || floor == c.current {
		return false
	}
	if !c.fire(trigStart) {
		return false
	}
	c.settle.Stop()
	c.visual = float64(c.current)
	dir := model.DirectionTo(c.current, floor)
	c.SetDirection(dir)
	c.SortStops(dir)
	c.removeStop(floor)

	now := c.b.Now()
	span := c.b.opts.Profile.TripDuration(model.Distance(c.current, floor))
	c.trip = trip{
		id:     uuid.NewString(),
		origin: c.current,
		begun:  now,
		start:  now,
		curve:  motion.Eased{From: float64(c.current), To: float64(floor), Span: span},
	}
	c.dest, c.hasDest = floor, true
	c.hasPending = false
	c.armArrivalLead(span)
	c.frame.ArmEvery(c.b.opts.Frame, c.onFrame)

	c.b.log.Debugw("trip started", map[string]any{
		"car_id": c.id, "trip_id": c.trip.id, "from": c.current, "to": floor, "duration_ms": span.Milliseconds(),
	})
	c.b.emit(events.TripEvent{CarID: c.id, TripID: c.trip.id, From: c.current, To: floor, Duration: span, At: now})
	return true
}

func (c *Car) armArrivalLead(span time.Duration) {
	c.setImminent(false)
	at := span - c.b.opts.Profile.ArrivalLead()
	if at < 0 {
		at = 0
	}
	c.lead.Arm(at, func() { c.setImminent(true) })
}

func (c *Car) setImminent(on bool) {
	if c.imminent == on {
		return
	}
	c.imminent = on
	c.b.emit(events.IndicatorEvent{CarID: c.id, Name: "arrival_imminent", On: on, At: c.b.Now()})
}

func (c *Car) onFrame() {
	elapsed := c.b.Now() - c.trip.start
	c.trip.framed = true

	if c.hasPending {
		target := c.pending
		threshold := c.b.opts.Profile.DeferredThreshold(c.trip.curve.Duration(), float64(target)-c.visual)
		if elapsed >= threshold {
			c.hasPending = false
			if c.aheadBy(target) {
				c.interrupt(target, elapsed)
				return
			}
		}
	}

	c.visual = c.trip.curve.Position(elapsed)
	if f := model.Floor(math.Round(c.visual)); f != c.current {
		c.restoreBypassed(f)
		if c.removeStop(f) {
			c.bypassed = append(c.bypassed, f)
		}
		c.setFloor(f)
	}
	if elapsed >= c.trip.curve.Duration() {
		c.processArrival()
	}
}

// UpdateTrip reconsiders the target of a moving car after stops were added.
func (c *Car) UpdateTrip() {
	if !c.IsMoving() || c.imminent {
		return
	}
	target, ok := c.rerouteTarget()
	if !ok || target == c.dest {
		return
	}
	elapsed := c.b.Now() - c.trip.start
	switch {
	case !c.trip.framed:
		c.substitute(target)
	case elapsed < c.trip.curve.Duration()/2:
		c.pending, c.hasPending = target, true
		c.b.emit(events.RerouteEvent{
			CarID: c.id, TripID: c.trip.id, From: c.dest, To: target,
			Mode: events.RerouteDeferred, Position: c.visual, At: c.b.Now(),
		})
	default:
		c.interrupt(target, elapsed)
	}
}

// rerouteTarget returns the floor the car should head for instead of its
// destination. A car serving calls against its travel direction heads for
// the furthest stop ahead; otherwise for the nearest one.
func (c *Car) rerouteTarget() (model.Floor, bool) {
	overflow := c.handling != model.DirNone && c.handling != c.direction
	var best model.Floor
	found := false
	for _, f := range append(c.Stops(), c.dest) {
		if !c.aheadBy(f) {
			continue
		}
		d := math.Abs(float64(f) - c.visual)
		if !found {
			best, found = f, true
			continue
		}
		bd := math.Abs(float64(best) - c.visual)
		if (overflow && d > bd) || (!overflow && d < bd) {
			best = f
		}
	}
	return best, found
}

// aheadBy reports whether f lies ahead in the travel direction by at least the
// minimum reroute gap.
func (c *Car) aheadBy(f model.Floor) bool {
	gap := c.b.opts.Profile.MinRerouteGap
	switch c.direction {
	case model.DirUp:
		return float64(f)-c.visual >= gap
	case model.DirDown:
		return c.visual-float64(f) >= gap
	default:
		return false
	}
}

func (c *Car) retarget(target model.Floor) model.Floor {
	old := c.dest
	c.removeStop(target)
	switch {
	case old == target || c.HasStop(old) || slices.Contains(c.bypassed, old):
	case old == c.current:
		// queued again once the car has left the floor
		c.bypassed = append(c.bypassed, old)
	default:
		c.stops = append(c.stops, old)
		c.SortStops(c.direction)
	}
	c.dest = target
	return old
}

func (c *Car) substitute(target model.Floor) {
	old := c.retarget(target)
	now := c.b.Now()
	span := c.b.opts.Profile.TripDuration(model.Distance(c.trip.origin, target))
	c.trip.start = now
	c.trip.curve = motion.Eased{From: float64(c.trip.origin), To: float64(target), Span: span}
	c.armArrivalLead(span)
	c.b.emit(events.RerouteEvent{
		CarID: c.id, TripID: c.trip.id, From: old, To: target,
		Mode: events.RerouteSubstitute, Position: c.visual, At: now,
	})
}

// interrupt replaces the active curve with a cubic that keeps the current
// position and velocity and comes to rest at target.
func (c *Car) interrupt(target model.Floor, elapsed time.Duration) {
	p0 := c.trip.curve.Position(elapsed)
	v0 := c.trip.curve.Velocity(elapsed)
	pf := float64(target)
	span := c.b.opts.Profile.InterruptDuration(p0, v0, pf)

	var curve motion.Trajectory
	cubic, err := motion.SolveInterrupt(p0, v0, pf, span)
	if err != nil {
		c.b.log.Errorf("car %s: reroute curve to %d: %v", c.id, target, err)
		curve = motion.Eased{From: p0, To: pf, Span: span}
	} else {
		curve = cubic
	}
	if !c.fire(trigReroute) {
		return
	}
	old := c.retarget(target)
	now := c.b.Now()
	c.visual = p0
	c.trip.start = now
	c.trip.curve = curve
	c.trip.framed = true
	c.trip.reroutes++
	c.hasPending = false
	c.armArrivalLead(span)
	c.b.log.Debugw("trip interrupted", map[string]any{
		"car_id": c.id, "trip_id": c.trip.id, "from": old, "to": target, "position": p0, "velocity": v0,
	})
	c.b.emit(events.RerouteEvent{
		CarID: c.id, TripID: c.trip.id, From: old, To: target,
		Mode: events.RerouteInterrupt, Position: p0, Velocity: v0, At: now,
	})
}

func (c *Car) processArrival() {
	c.frame.Stop()
	c.lead.Stop()
	floor := c.dest
	now := c.b.Now()

	c.visual = float64(floor)
	c.setFloor(floor)
	c.restoreBypassed(floor)
	c.bypassed = nil
	c.removeStop(floor)
	c.hasDest = false
	c.hasPending = false
	c.setImminent(false)
	c.fire(trigArrive)

	c.justArrived, c.hasJustArrived = floor, true
	c.arrivedTimer.Arm(c.b.opts.Profile.JustArrived(), func() {
		c.hasJustArrived = false
		c.b.emit(events.IndicatorEvent{CarID: c.id, Name: "just_arrived", On: false, At: c.b.Now()})
	})
	c.b.emit(events.IndicatorEvent{CarID: c.id, Name: "just_arrived", On: true, At: now})

	served := c.b.serveFloor(c, floor)
	c.trips++
	c.b.log.Debugw("arrived", map[string]any{
		"car_id": c.id, "trip_id": c.trip.id, "floor": floor, "served": len(served), "reroutes": c.trip.reroutes,
	})
	c.b.emit(events.ArrivalEvent{
		CarID:    c.id,
		TripID:   c.trip.id,
		Origin:   c.trip.origin,
		Floor:    floor,
		Duration: now - c.trip.begun,
		Reroutes: c.trip.reroutes,
		Served:   served,
		At:       now,
	})
	c.settle.Arm(c.b.opts.Profile.Settle(), c.afterSettle)
}

func (c *Car) afterSettle() {
	next, ok := c.FindNextStop()
	if ok && c.MoveTo(next) {
		return
	}
	if !c.fire(trigSettled) {
		return
	}
	if !ok {
		c.SetDirection(model.DirNone)
	}
	c.b.carIdle(c)
}

// StartIfNeeded begins a trip to the head of the stop queue when the car is
// stationary and allowed to move. It reports whether a trip started.
func (c *Car) StartIfNeeded() bool {
	if c.IsMoving() || len(c.stops) == 0 {
		return false
	}
	return c.MoveTo(c.stops[0])
}
