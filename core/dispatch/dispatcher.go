package dispatch

import (
	"math"

	"github.com/kilianp07/liftsim/core/elevator"
	"github.com/kilianp07/liftsim/core/events"
	"github.com/kilianp07/liftsim/core/logger"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/core/requests"
)

// Strategy names reported with assignments.
const (
	StrategyPanel    = "panel"
	StrategyHandling = "handling_lock"
	StrategyOnTheWay = "on_the_way"
	StrategyIdle     = "idle_car"
	StrategyStanding = "standing_car"
)

// Dispatcher turns pending requests into stops of individual cars.
type Dispatcher struct {
	b        *elevator.Building
	cfg      Config
	log      logger.Logger
	onAssign func(events.AssignmentEvent)
}

// NewDispatcher creates a dispatcher for the cars of b.
func NewDispatcher(b *elevator.Building, cfg Config, log logger.Logger) *Dispatcher {
	cfg.SetDefaults()
	return &Dispatcher{b: b, cfg: cfg, log: logger.OrNop(log)}
}

// OnAssign registers a callback run for every assignment.
func (d *Dispatcher) OnAssign(fn func(events.AssignmentEvent)) { d.onAssign = fn }

// ProcessAll runs one dispatch pass: panel requests first, then Up and Down
// calls, and finally the release of unused direction locks. Calls that find
// no car stay pending for the next pass.
func (d *Dispatcher) ProcessAll() {
	for _, c := range d.b.Cars() {
		d.panelPass(c)
	}
	d.directionalPass(model.KindUp)
	d.directionalPass(model.KindDown)
	d.releaseLocks()
}

func (d *Dispatcher) panelPass(c *elevator.Car) {
	q := d.b.Queue()
	var added []model.Floor
	for _, r := range q.Filter(requests.IsPanelFor(c.ID())) {
		if c.AddStop(r.Floor) {
			added = append(added, r.Floor)
		}
	}
	if len(added) > 0 {
		d.assigned(c, added, StrategyPanel)
	}
	if c.IsMoving() {
		if len(added) > 0 {
			c.UpdateTrip()
		}
		return
	}
	if q.Contains(model.PanelRequest(c.ID(), c.CurrentFloor())) {
		d.b.ServeStanding(c)
	}
	d.startFromPanel(c)
}

// startFromPanel starts an idle car toward the closer end of its queue.
func (d *Dispatcher) startFromPanel(c *elevator.Car) {
	if c.StopCount() == 0 || c.State() == elevator.StateArriving || !d.b.CanStartTrip(c) {
		return
	}
	lo, hi := c.Stops()[0], c.Stops()[0]
	for _, f := range c.Stops() {
		lo = min(lo, f)
		hi = max(hi, f)
	}
	cur := c.CurrentFloor()
	dir := model.DirDown
	if model.Distance(cur, lo) <= model.Distance(cur, hi) {
		dir = model.DirUp
	}
	c.SortStops(dir)
	c.StartIfNeeded()
}

func (d *Dispatcher) directionalPass(kind model.RequestKind) {
	dir := kind.Direction()
	var pending []model.Floor
	for _, r := range d.b.Queue().Filter(requests.IsKind(kind)) {
		if c, ok := d.b.StationaryCarAt(r.Floor); ok {
			d.b.ServeStanding(c)
			d.assigned(c, []model.Floor{r.Floor}, StrategyStanding)
			continue
		}
		if !d.claimed(r.Floor) {
			pending = append(pending, r.Floor)
		}
	}
	if len(pending) == 0 {
		return
	}
	if c := d.lockHolder(dir); c != nil {
		d.assignTo(c, pending, c.Direction(), StrategyHandling)
		return
	}
	if d.assignOnTheWay(dir, pending) {
		return
	}
	d.assignIdle(dir, pending)
}

func (d *Dispatcher) claimed(f model.Floor) bool {
	for _, c := range d.b.Cars() {
		if c.Claims(f) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) lockHolder(dir model.Direction) *elevator.Car {
	for _, c := range d.b.Cars() {
		if c.HandlingDirection() == dir {
			return c
		}
	}
	return nil
}

// assignOnTheWay hands calls to a car already travelling in dir when they lie
// strictly between its position and its furthest stop. With several such cars
// the one closest behind a qualifying call wins.
func (d *Dispatcher) assignOnTheWay(dir model.Direction, pending []model.Floor) bool {
	var (
		best    *elevator.Car
		bestGap float64
		floors  []model.Floor
	)
	for _, c := range d.b.Cars() {
		if !c.IsMoving() || c.Direction() != dir {
			continue
		}
		ultimate, ok := c.FurthestClaim(dir)
		if !ok {
			continue
		}
		pos := c.VisualFloor()
		var qual []model.Floor
		gap := math.Inf(1)
		for _, f := range pending {
			ahead := float64(f) - pos
			if dir == model.DirDown {
				ahead = -ahead
			}
			beyond := (dir == model.DirUp && f >= ultimate) || (dir == model.DirDown && f <= ultimate)
			if ahead <= 0 || beyond || ahead < d.cfg.MinPickupDistance {
				continue
			}
			qual = append(qual, f)
			gap = math.Min(gap, ahead)
		}
		if len(qual) > 0 && (best == nil || gap < bestGap) {
			best, bestGap, floors = c, gap, qual
		}
	}
	if best == nil {
		return false
	}
	d.assignTo(best, floors, dir, StrategyOnTheWay)
	return true
}

// assignIdle gives the calls to the idle car closest to the first call and
// locks it to dir.
func (d *Dispatcher) assignIdle(dir model.Direction, pending []model.Floor) {
	target := pending[0]
	var best *elevator.Car
	bestDist := 0
	for _, c := range d.b.Cars() {
		if c.IsMoving() || c.StopCount() > 0 || c.HandlingDirection() != model.DirNone {
			continue
		}
		if _, busy := c.Destination(); busy {
			continue
		}
		dist := model.Distance(c.CurrentFloor(), target)
		if best == nil || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	if best == nil {
		d.log.Debugf("no idle car for %d %s call(s), retrying on next pass", len(pending), dir)
		return
	}
	best.SetHandlingDirection(dir)
	best.SetDirection(dir)
	d.assignTo(best, pending, dir, StrategyIdle)
}

// assignTo queues floors on c, sorts the queue by sortDir and either updates
// the running trip or starts a new one.
func (d *Dispatcher) assignTo(c *elevator.Car, floors []model.Floor, sortDir model.Direction, strategy string) {
	var added []model.Floor
	for _, f := range floors {
		if c.AddStop(f) {
			added = append(added, f)
		}
	}
	if len(added) == 0 {
		return
	}
	c.SortStops(sortDir)
	d.assigned(c, added, strategy)
	if c.IsMoving() {
		c.UpdateTrip()
		return
	}
	if c.State() != elevator.StateArriving && d.b.CanStartTrip(c) {
		c.StartIfNeeded()
	}
}

func (d *Dispatcher) releaseLocks() {
	for _, c := range d.b.Cars() {
		if c.IsMoving() || c.StopCount() > 0 || c.HandlingDirection() == model.DirNone {
			continue
		}
		if _, busy := c.Destination(); busy {
			continue
		}
		d.log.Debugf("car %s releases %s lock", c.ID(), c.HandlingDirection())
		c.SetHandlingDirection(model.DirNone)
	}
}

func (d *Dispatcher) assigned(c *elevator.Car, floors []model.Floor, strategy string) {
	assignmentsTotal.WithLabelValues(strategy).Add(float64(len(floors)))
	d.log.Debugw("assigned", map[string]any{"car_id": c.ID(), "floors": floors, "strategy": strategy})
	if d.onAssign != nil {
		d.onAssign(events.AssignmentEvent{CarID: c.ID(), Floors: floors, Strategy: strategy, At: d.b.Now()})
	}
}
