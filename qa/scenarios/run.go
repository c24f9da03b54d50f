package scenarios

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/kilianp07/liftsim/core/dispatch"
	"github.com/kilianp07/liftsim/core/dispatch/logging"
	"github.com/kilianp07/liftsim/core/elevator"
	"github.com/kilianp07/liftsim/core/events"
	"github.com/kilianp07/liftsim/core/logger"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/core/motion"
	"github.com/kilianp07/liftsim/core/scheduler"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

const (
	defaultFrame = 16 * time.Millisecond
	// settleLimit bounds a scenario without run_ms after its last step.
	settleLimit   = 2 * time.Minute
	maxViolations = 20
)

// Options carries the settings a scenario does not override.
type Options struct {
	Layout   model.BuildingConfig
	Profile  motion.Profile
	Dispatch dispatch.Config
	Frame    time.Duration
	// Start is the wall time matching virtual time zero in trip records.
	Start time.Time
	Bus   eventbus.EventBus
	Log   logger.Logger
}

// Result is what a scenario run observed.
type Result struct {
	Name                string
	SimTime             time.Duration
	FinalFloors         map[string]model.Floor
	Pending             int
	MaxConcurrentMoving int
	Visits              map[string][]model.Floor
	Trips               []logging.LogRecord
	Violations          []string
}

// Run plays sc on a fresh building driven by a virtual clock. Steps are
// pressed at their at_ms and the clock advances one frame at a time, checking
// the car invariants after every frame. Without run_ms the run ends once every
// car is idle and no request is pending.
func Run(sc *Scenario, opts Options) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	layout := opts.Layout
	if sc.Building != nil {
		layout = *sc.Building
	}
	layout.SetDefaults()
	if opts.Frame <= 0 {
		opts.Frame = defaultFrame
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now()
	}
	log := logger.OrNop(opts.Log)
	cfg := opts.Dispatch
	cfg.ConcurrentTrips = cfg.ConcurrentTrips || sc.ConcurrentTrips
	cfg.SetDefaults()

	sched := scheduler.New(scheduler.Config{TickMS: int(opts.Frame / time.Millisecond)})
	b, err := elevator.NewBuilding(layout, sched, elevator.Options{
		Profile:         opts.Profile,
		Frame:           opts.Frame,
		ConcurrentTrips: cfg.ConcurrentTrips,
		Log:             log,
	})
	if err != nil {
		return nil, err
	}
	mgr := dispatch.NewManager(b, cfg, opts.Bus, log)

	res := &Result{
		Name:        sc.Name,
		FinalFloors: make(map[string]model.Floor),
		Visits:      make(map[string][]model.Floor),
	}
	b.Subscribe(func(ev any) {
		arr, ok := ev.(events.ArrivalEvent)
		if !ok {
			return
		}
		res.Visits[arr.CarID] = append(res.Visits[arr.CarID], arr.Floor)
		res.Trips = append(res.Trips, logging.FromArrival(arr, opts.Start.Add(arr.At)))
	})

	steps := slices.Clone(sc.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].AtMS < steps[j].AtMS })
	limit := time.Duration(sc.RunMS) * time.Millisecond
	untilIdle := limit == 0
	if untilIdle {
		if n := len(steps); n > 0 {
			limit = time.Duration(steps[n-1].AtMS) * time.Millisecond
		}
		limit += settleLimit
	}

	next := 0
	for sched.Now() <= limit {
		for next < len(steps) && time.Duration(steps[next].AtMS)*time.Millisecond <= sched.Now() {
			req, _ := steps[next].Request()
			if err := mgr.Press(req); err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", next, req, err)
			}
			log.Debugf("scenario %s: pressed %s at %v", sc.Name, req, sched.Now())
			next++
		}
		if untilIdle && next == len(steps) && idle(b) {
			break
		}
		sched.Advance(opts.Frame)
		res.observe(b)
	}

	res.SimTime = sched.Now()
	res.Pending = b.Queue().Len()
	for _, c := range b.Cars() {
		res.FinalFloors[c.ID()] = c.CurrentFloor()
	}
	return res, nil
}

func idle(b *elevator.Building) bool {
	for _, c := range b.Cars() {
		if c.State() != elevator.StateIdle {
			return false
		}
	}
	return b.Queue().Len() == 0
}

func (r *Result) observe(b *elevator.Building) {
	moving := b.MovingCount()
	if moving > r.MaxConcurrentMoving {
		r.MaxConcurrentMoving = moving
	}
	now := b.Now()
	for _, c := range b.Cars() {
		if c.HasStop(c.CurrentFloor()) {
			r.violate("%v: car %s queues its current floor %d", now, c.ID(), c.CurrentFloor())
		}
		if c.IsMoving() && c.Direction() == model.DirNone {
			r.violate("%v: car %s moving without direction", now, c.ID())
		}
	}
	if !b.ConcurrentTrips() && moving > 1 {
		r.violate("%v: %d cars moving at once", now, moving)
	}
}

func (r *Result) violate(format string, args ...any) {
	if len(r.Violations) < maxViolations {
		r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
	}
}

// Check compares the result with exp and returns every mismatch.
func (r *Result) Check(exp Expected) error {
	var errs []error
	for _, v := range r.Violations {
		errs = append(errs, errors.New(v))
	}
	for _, id := range slices.Sorted(maps.Keys(exp.FinalFloors)) {
		got, ok := r.FinalFloors[id]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown car %s", id))
			continue
		}
		if want := exp.FinalFloors[id]; got != want {
			errs = append(errs, fmt.Errorf("car %s ended at floor %d, want %d", id, got, want))
		}
	}
	if exp.Pending != nil && r.Pending != *exp.Pending {
		errs = append(errs, fmt.Errorf("%d requests pending, want %d", r.Pending, *exp.Pending))
	}
	if exp.MaxConcurrentMoving > 0 && r.MaxConcurrentMoving > exp.MaxConcurrentMoving {
		errs = append(errs, fmt.Errorf("%d cars moved at once, want at most %d", r.MaxConcurrentMoving, exp.MaxConcurrentMoving))
	}
	for _, id := range slices.Sorted(maps.Keys(exp.Visits)) {
		if got, want := r.Visits[id], exp.Visits[id]; !slices.Equal(got, want) {
			errs = append(errs, fmt.Errorf("car %s visited %v, want %v", id, got, want))
		}
	}
	return errors.Join(errs...)
}
