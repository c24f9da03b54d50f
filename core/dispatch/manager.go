package dispatch

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/liftsim/core/carstatus"
	"github.com/kilianp07/liftsim/core/elevator"
	"github.com/kilianp07/liftsim/core/events"
	"github.com/kilianp07/liftsim/core/logger"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

// Manager is the entry point for button presses. It owns the dispatcher,
// re-runs it when a car goes idle and forwards building events to the bus and
// the status store. Its methods must run on the scheduler goroutine.
type Manager struct {
	b           *elevator.Building
	d           *Dispatcher
	log         logger.Logger
	bus         eventbus.EventBus
	statusStore carstatus.Store
}

// NewManager wires a dispatcher to b. bus may be nil.
func NewManager(b *elevator.Building, cfg Config, bus eventbus.EventBus, log logger.Logger) *Manager {
	log = logger.OrNop(log)
	m := &Manager{
		b:   b,
		d:   NewDispatcher(b, cfg, log),
		log: log,
		bus: bus,
	}
	m.d.OnAssign(func(ev events.AssignmentEvent) { m.publish(ev) })
	b.Subscribe(m.publish)
	b.SetIdleHandler(func(c *elevator.Car) {
		m.log.Debugf("car %s idle at floor %d, re-running dispatch", c.ID(), c.CurrentFloor())
		m.ProcessAll()
	})
	return m
}

// SetStatusStore configures the store that mirrors the building state.
func (m *Manager) SetStatusStore(store carstatus.Store) {
	m.statusStore = store
	m.RefreshStatus()
}

// Building returns the managed building.
func (m *Manager) Building() *elevator.Building { return m.b }

// PanelPressed records a press on the panel of car carID. A press for the
// floor where the car stands still is ignored.
func (m *Manager) PanelPressed(carID string, floor model.Floor) error {
	c, err := m.b.Car(carID)
	if err != nil {
		return err
	}
	if err := m.b.CheckFloor(floor); err != nil {
		return err
	}
	if !c.IsMoving() && c.CurrentFloor() == floor {
		ignoredPresses.WithLabelValues(model.KindPanel.String()).Inc()
		m.log.Debugf("panel %d on %s ignored: car is there", floor, carID)
		return nil
	}
	m.b.Queue().Add(model.PanelRequest(carID, floor))
	m.ProcessAll()
	return nil
}

// CallPressed records a hall call. A call at a floor where a car stands still
// is ignored.
func (m *Manager) CallPressed(dir model.Direction, floor model.Floor) error {
	if dir != model.DirUp && dir != model.DirDown {
		return fmt.Errorf("%w: hall calls need up or down, got %s", model.ErrInvalidDirection, dir)
	}
	if err := m.b.CheckFloor(floor); err != nil {
		return err
	}
	if (dir == model.DirUp && floor == m.b.Layout().Top()) || (dir == model.DirDown && floor == 0) {
		return fmt.Errorf("%w: no %s call at floor %d", model.ErrInvalidDirection, dir, floor)
	}
	req := model.CallRequest(dir, floor)
	if m.b.IdleCarAt(floor) {
		ignoredPresses.WithLabelValues(req.Kind.String()).Inc()
		m.log.Debugf("%s call at %d ignored: a car is there", dir, floor)
		return nil
	}
	m.b.Queue().Add(req)
	m.ProcessAll()
	return nil
}

// Press routes req to PanelPressed or CallPressed.
func (m *Manager) Press(req model.Request) error {
	if req.Kind == model.KindPanel {
		return m.PanelPressed(req.CarID, req.Floor)
	}
	return m.CallPressed(req.Kind.Direction(), req.Floor)
}

// ProcessAll runs one dispatch pass.
func (m *Manager) ProcessAll() {
	timer := prometheus.NewTimer(processDuration)
	m.d.ProcessAll()
	timer.ObserveDuration()
	pendingRequests.Set(float64(m.b.Queue().Len()))
	movingCars.Set(float64(m.b.MovingCount()))
	m.RefreshStatus()
}

// Snapshot returns the current building state.
func (m *Manager) Snapshot() elevator.Snapshot { return m.b.Snapshot() }

// RefreshStatus copies the building state into the status store.
func (m *Manager) RefreshStatus() {
	if m.statusStore != nil {
		m.statusStore.Set(m.b.Snapshot())
	}
}

func (m *Manager) publish(ev any) {
	switch e := ev.(type) {
	case events.RequestEvent:
		pendingRequests.Set(float64(e.Pending))
	case events.TripEvent, events.ArrivalEvent:
		movingCars.Set(float64(m.b.MovingCount()))
	}
	m.RefreshStatus()
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}
