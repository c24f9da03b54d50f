package mqtt

import (
	"encoding/json"
	"time"

	"github.com/kilianp07/liftsim/core/model"
	coremqtt "github.com/kilianp07/liftsim/core/mqtt"
)

// ButtonPublisher presses buttons remotely by publishing on the button topics.
type ButtonPublisher struct {
	cli    coremqtt.Client
	topics coremqtt.Topics
}

// NewButtonPublisher creates a publisher for the layout rooted at prefix.
func NewButtonPublisher(cli coremqtt.Client, prefix string) *ButtonPublisher {
	return &ButtonPublisher{cli: cli, topics: coremqtt.NewTopics(prefix)}
}

type pressPayload struct {
	PressedAt time.Time `json:"pressed_at"`
}

// Press publishes the button topic matching req.
func (p *ButtonPublisher) Press(req model.Request) error {
	var topic string
	if req.Kind == model.KindPanel {
		topic = p.topics.Panel(req.CarID, req.Floor)
	} else {
		topic = p.topics.Call(req.Kind.Direction(), req.Floor)
	}
	payload, err := json.Marshal(pressPayload{PressedAt: time.Now()})
	if err != nil {
		return err
	}
	return p.cli.Publish(topic, "button", false, payload)
}
