package mqtt

import "errors"

// ErrBadTopic is returned when a topic does not match the button layout.
var ErrBadTopic = errors.New("mqtt: unrecognised topic")

// ErrNotConnected is returned when publishing without a broker connection.
var ErrNotConnected = errors.New("mqtt: not connected")
