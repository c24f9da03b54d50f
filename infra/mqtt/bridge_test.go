package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/liftsim/core/elevator"
	"github.com/kilianp07/liftsim/core/events"
	"github.com/kilianp07/liftsim/core/model"
	coremqtt "github.com/kilianp07/liftsim/core/mqtt"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

type memClient struct {
	mu        sync.Mutex
	handlers  map[string]coremqtt.Handler
	published map[string][]byte
	retained  map[string]bool
}

func newMemClient() *memClient {
	return &memClient{
		handlers:  map[string]coremqtt.Handler{},
		published: map[string][]byte{},
		retained:  map[string]bool{},
	}
}

func (c *memClient) Publish(topic, _ string, retained bool, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published[topic] = payload
	c.retained[topic] = retained
	return nil
}

func (c *memClient) Subscribe(topic, _ string, h coremqtt.Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = h
	return nil
}

// send routes topic to the handler registered for the matching filter.
func (c *memClient) send(topic string) {
	c.mu.Lock()
	var h coremqtt.Handler
	for filter, fh := range c.handlers {
		if matches(filter, topic) {
			h = fh
		}
	}
	c.mu.Unlock()
	if h != nil {
		h(topic, []byte(`{}`))
	}
}

func (c *memClient) payload(topic string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.published[topic]
	return p, ok
}

func matches(filter, topic string) bool {
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	if len(fp) != len(tp) {
		return false
	}
	for i := range fp {
		if fp[i] != "+" && fp[i] != tp[i] {
			return false
		}
	}
	return true
}

type pressRecorder struct {
	mu    sync.Mutex
	reqs  []model.Request
	fails bool
}

func (p *pressRecorder) Press(_ context.Context, req model.Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fails {
		return errors.New("rejected")
	}
	p.reqs = append(p.reqs, req)
	return nil
}

type staticStatus struct {
	cars map[string]elevator.CarStatus
	reqs []model.Request
}

func (s staticStatus) Car(id string) (elevator.CarStatus, bool) {
	c, ok := s.cars[id]
	return c, ok
}

func (s staticStatus) Requests() []model.Request { return s.reqs }

func TestBridgeRoutesButtons(t *testing.T) {
	cli := newMemClient()
	presses := &pressRecorder{}
	b := NewBridge(cli, "", presses, staticStatus{}, nil)
	_, err := b.Start(context.Background(), nil)
	require.NoError(t, err)

	cli.send("liftsim/call/up/3")
	cli.send("liftsim/car/elevator2/panel/6")
	cli.send("liftsim/call/sideways/3")

	require.Len(t, presses.reqs, 2)
	assert.True(t, presses.reqs[0].Same(model.CallRequest(model.DirUp, 3)))
	assert.True(t, presses.reqs[1].Same(model.PanelRequest("elevator2", 6)))

	status, ok := cli.payload("liftsim/status")
	require.True(t, ok)
	assert.Equal(t, "online", string(status))
}

func TestBridgePublishesState(t *testing.T) {
	cli := newMemClient()
	st := staticStatus{
		cars: map[string]elevator.CarStatus{"elevator1": {ID: "elevator1", CurrentFloor: 4}},
		reqs: []model.Request{model.CallRequest(model.DirDown, 2)},
	}
	b := NewBridge(cli, "tower", &pressRecorder{}, st, nil)
	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	done, err := b.Start(ctx, bus)
	require.NoError(t, err)

	bus.Publish(events.FloorEvent{CarID: "elevator1", Floor: 4})
	bus.Publish(events.RequestEvent{Request: model.CallRequest(model.DirDown, 2), Action: events.RequestAdded})

	require.Eventually(t, func() bool {
		_, car := cli.payload("tower/car/elevator1/state")
		_, reqs := cli.payload("tower/requests")
		return car && reqs
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	raw, _ := cli.payload("tower/car/elevator1/state")
	var car elevator.CarStatus
	require.NoError(t, json.Unmarshal(raw, &car))
	assert.Equal(t, model.Floor(4), car.CurrentFloor)
	assert.True(t, cli.retained["tower/car/elevator1/state"])

	raw, _ = cli.payload("tower/requests")
	var reqs []model.Request
	require.NoError(t, json.Unmarshal(raw, &reqs))
	require.Len(t, reqs, 1)
	assert.Equal(t, model.KindDown, reqs[0].Kind)
}

func TestButtonPublisherTopics(t *testing.T) {
	cli := newMemClient()
	p := NewButtonPublisher(cli, "liftsim")
	require.NoError(t, p.Press(model.CallRequest(model.DirDown, 5)))
	require.NoError(t, p.Press(model.PanelRequest("elevator1", 0)))
	_, ok := cli.payload("liftsim/call/down/5")
	assert.True(t, ok)
	_, ok = cli.payload("liftsim/car/elevator1/panel/0")
	assert.True(t, ok)
	assert.False(t, cli.retained["liftsim/call/down/5"])
}
