// Package mqtt defines the broker-agnostic MQTT surface of the simulator: the
// topic layout used for buttons and car state, and the client interface the
// bridge publishes through.
package mqtt

// Handler receives the topic and payload of an incoming message.
type Handler func(topic string, payload []byte)

// Client publishes and subscribes on an MQTT broker. Kind selects the QoS
// class of the message, for instance "button" or "state".
type Client interface {
	Publish(topic, kind string, retained bool, payload []byte) error
	Subscribe(topic, kind string, h Handler) error
}
