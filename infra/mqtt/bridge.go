package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kilianp07/liftsim/core/elevator"
	"github.com/kilianp07/liftsim/core/events"
	"github.com/kilianp07/liftsim/core/logger"
	"github.com/kilianp07/liftsim/core/model"
	coremqtt "github.com/kilianp07/liftsim/core/mqtt"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

// ButtonHandler receives button presses decoded from MQTT topics.
type ButtonHandler interface {
	Press(ctx context.Context, req model.Request) error
}

// StatusSource provides the state published on the retained topics.
type StatusSource interface {
	Car(id string) (elevator.CarStatus, bool)
	Requests() []model.Request
}

// Bridge maps button topics onto a ButtonHandler and mirrors building events
// as retained state topics.
type Bridge struct {
	cli     coremqtt.Client
	topics  coremqtt.Topics
	handler ButtonHandler
	status  StatusSource
	log     logger.Logger
	timeout time.Duration
}

// NewBridge creates a bridge publishing below prefix.
func NewBridge(cli coremqtt.Client, prefix string, h ButtonHandler, status StatusSource, log logger.Logger) *Bridge {
	return &Bridge{
		cli:     cli,
		topics:  coremqtt.NewTopics(prefix),
		handler: h,
		status:  status,
		log:     logger.OrNop(log),
		timeout: 2 * time.Second,
	}
}

// Topics returns the topic layout of the bridge.
func (b *Bridge) Topics() coremqtt.Topics { return b.topics }

// Start subscribes to the button topics and, when bus is not nil, publishes
// state updates until ctx is cancelled. The returned channel is closed once
// the publishing goroutine exits.
func (b *Bridge) Start(ctx context.Context, bus eventbus.EventBus) (<-chan struct{}, error) {
	for _, filter := range []string{b.topics.CallFilter(), b.topics.PanelFilter()} {
		if err := b.cli.Subscribe(filter, "button", b.onButton(ctx)); err != nil {
			return nil, err
		}
	}
	_ = b.cli.Publish(b.topics.Status(), "state", true, []byte("online"))

	done := make(chan struct{})
	if bus == nil {
		close(done)
		return done, nil
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				b.handleEvent(ev)
			}
		}
	}()
	return done, nil
}

func (b *Bridge) onButton(ctx context.Context) coremqtt.Handler {
	return func(topic string, _ []byte) {
		req, err := b.topics.ParseButton(topic)
		if err != nil {
			b.log.Warnf("ignoring message: %v", err)
			return
		}
		pctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()
		if err := b.handler.Press(pctx, req); err != nil {
			b.log.Warnf("press %s: %v", req, err)
			return
		}
		b.log.Debugf("pressed %s", req)
	}
}

func (b *Bridge) handleEvent(ev eventbus.Event) {
	if _, ok := ev.(events.RequestEvent); ok {
		b.PublishRequests()
		return
	}
	if id, ok := carIDOf(ev); ok {
		b.PublishCar(id)
	}
}

// PublishCar publishes the retained state of one car.
func (b *Bridge) PublishCar(id string) {
	st, ok := b.status.Car(id)
	if !ok {
		return
	}
	b.publishJSON(b.topics.State(id), st)
}

// PublishRequests publishes the retained list of pending requests.
func (b *Bridge) PublishRequests() {
	reqs := b.status.Requests()
	if reqs == nil {
		reqs = []model.Request{}
	}
	b.publishJSON(b.topics.Requests(), reqs)
}

func (b *Bridge) publishJSON(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.log.Errorf("encode %s: %v", topic, err)
		return
	}
	if err := b.cli.Publish(topic, "state", true, payload); err != nil {
		b.log.Errorf("publish %s: %v", topic, err)
	}
}

func carIDOf(ev eventbus.Event) (string, bool) {
	switch e := ev.(type) {
	case events.FloorEvent:
		return e.CarID, true
	case events.DirectionEvent:
		return e.CarID, true
	case events.TripEvent:
		return e.CarID, true
	case events.RerouteEvent:
		return e.CarID, true
	case events.ArrivalEvent:
		return e.CarID, true
	case events.IdleEvent:
		return e.CarID, true
	case events.IndicatorEvent:
		return e.CarID, true
	}
	return "", false
}
