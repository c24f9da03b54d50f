// Package elevator models the building and the motion state machine of its
// cars. All methods must run on the goroutine that owns the scheduler.
package elevator

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/liftsim/core/events"
	"github.com/kilianp07/liftsim/core/logger"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/core/motion"
	"github.com/kilianp07/liftsim/core/requests"
	"github.com/kilianp07/liftsim/core/scheduler"
)

var (
	// ErrUnknownCar is returned when a car id does not exist.
	ErrUnknownCar = errors.New("unknown car")
	// ErrFloorOutOfRange is returned for floors outside the building.
	ErrFloorOutOfRange = errors.New("floor out of range")
)

// Options tunes the cars of a building.
type Options struct {
	Profile motion.Profile
	// Frame is the animation interval. It defaults to the scheduler tick.
	Frame time.Duration
	// ConcurrentTrips lets several cars move at once. When false only one
	// car in the building may be moving at any instant.
	ConcurrentTrips bool
	Log             logger.Logger
}

// Listener receives the events of the building synchronously. It must not
// block and must not mutate the building.
type Listener func(ev any)

// Building owns the cars and the shared request queue.
type Building struct {
	layout    model.BuildingConfig
	opts      Options
	sched     *scheduler.Scheduler
	queue     *requests.Queue
	cars      []*Car
	byID      map[string]*Car
	onIdle    func(*Car)
	listeners []Listener
	log       logger.Logger
}

// NewBuilding creates the cars of layout, parked at their initial floors.
func NewBuilding(layout model.BuildingConfig, sched *scheduler.Scheduler, opts Options) (*Building, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("building layout: %w", err)
	}
	opts.Profile.SetDefaults()
	if err := opts.Profile.Validate(); err != nil {
		return nil, fmt.Errorf("motion profile: %w", err)
	}
	if opts.Frame <= 0 {
		opts.Frame = sched.Config().Tick()
	}
	opts.Log = logger.OrNop(opts.Log)
	b := &Building{
		layout: layout,
		opts:   opts,
		sched:  sched,
		byID:   make(map[string]*Car, len(layout.Cars)),
		log:    opts.Log,
	}
	b.queue = requests.New(sched, func(ev events.RequestEvent) { b.emit(ev) })
	for _, def := range layout.Cars {
		c := newCar(b, def)
		b.cars = append(b.cars, c)
		b.byID[c.id] = c
	}
	return b, nil
}

// Layout returns the building configuration.
func (b *Building) Layout() model.BuildingConfig { return b.layout }

// Queue returns the shared request queue.
func (b *Building) Queue() *requests.Queue { return b.queue }

// Scheduler returns the clock the cars run on.
func (b *Building) Scheduler() *scheduler.Scheduler { return b.sched }

// Profile returns the motion constants.
func (b *Building) Profile() motion.Profile { return b.opts.Profile }

// ConcurrentTrips reports whether several cars may move at once.
func (b *Building) ConcurrentTrips() bool { return b.opts.ConcurrentTrips }

// Now returns the current virtual time.
func (b *Building) Now() time.Duration { return b.sched.Now() }

// Cars returns the cars in configuration order.
func (b *Building) Cars() []*Car {
	out := make([]*Car, len(b.cars))
	copy(out, b.cars)
	return out
}

// Car returns the car with the given id.
func (b *Building) Car(id string) (*Car, error) {
	c, ok := b.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCar, id)
	}
	return c, nil
}

// CheckFloor returns ErrFloorOutOfRange when f is not a floor of the building.
func (b *Building) CheckFloor(f model.Floor) error {
	if !b.layout.Contains(f) {
		return fmt.Errorf("%w: %d not in [0,%d]", ErrFloorOutOfRange, f, b.layout.Top())
	}
	return nil
}

// SetIdleHandler registers the callback run when a car goes fully idle.
func (b *Building) SetIdleHandler(fn func(*Car)) { b.onIdle = fn }

// Subscribe registers a listener for building events.
func (b *Building) Subscribe(l Listener) { b.listeners = append(b.listeners, l) }

// MovingCount returns how many cars are moving.
func (b *Building) MovingCount() int {
	n := 0
	for _, c := range b.cars {
		if c.IsMoving() {
			n++
		}
	}
	return n
}

// CanStartTrip reports whether c may begin a trip now.
func (b *Building) CanStartTrip(c *Car) bool {
	if c.IsMoving() {
		return false
	}
	if b.opts.ConcurrentTrips {
		return true
	}
	for _, o := range b.cars {
		if o != c && o.IsMoving() {
			return false
		}
	}
	return true
}

// IdleCarAt reports whether a stationary car stands at floor f.
func (b *Building) IdleCarAt(f model.Floor) bool {
	_, ok := b.StationaryCarAt(f)
	return ok
}

// serveFloor removes the requests satisfied by c arriving at f and purges f
// from the queues of other cars that have no panel demand for it.
func (b *Building) serveFloor(c *Car, f model.Floor) []model.Request {
	satisfied := b.queue.Filter(func(r model.Request) bool {
		return r.Floor == f && (r.Kind != model.KindPanel || r.CarID == c.id)
	})
	b.queue.Remove(model.PanelRequest(c.id, f))
	b.queue.Remove(model.CallRequest(model.DirUp, f))
	b.queue.Remove(model.CallRequest(model.DirDown, f))
	for _, o := range b.cars {
		if o == c || !o.HasStop(f) {
			continue
		}
		if b.queue.Contains(model.PanelRequest(o.id, f)) {
			continue
		}
		o.removeStop(f)
		b.log.Debugf("purged floor %d from %s after %s served it", f, o.id, c.id)
	}
	return satisfied
}

// ServeStanding removes the requests answered by a stationary car at its
// current floor.
func (b *Building) ServeStanding(c *Car) []model.Request {
	if c.IsMoving() {
		return nil
	}
	return b.serveFloor(c, c.current)
}

// StationaryCarAt returns a car standing still at floor f, if any.
func (b *Building) StationaryCarAt(f model.Floor) (*Car, bool) {
	for _, c := range b.cars {
		if !c.IsMoving() && c.current == f {
			return c, true
		}
	}
	return nil, false
}

func (b *Building) carIdle(c *Car) {
	b.emit(events.IdleEvent{CarID: c.id, Floor: c.current, At: b.Now()})
	if b.onIdle != nil {
		b.onIdle(c)
	}
}

func (b *Building) emit(ev any) {
	for _, l := range b.listeners {
		l(ev)
	}
}
