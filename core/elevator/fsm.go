package elevator

import "fmt"

// State is the lifecycle state of a car.
type State int

const (
	StateIdle State = iota
	StateMoving
	// StateArriving covers the settle pause after an arrival.
	StateArriving
)

func (s State) String() string {
	switch s {
	case StateMoving:
		return "moving"
	case StateArriving:
		return "arriving"
	default:
		return "idle"
	}
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StateIdle
	case "moving":
		*s = StateMoving
	case "arriving":
		*s = StateArriving
	default:
		return fmt.Errorf("unknown car state %q", b)
	}
	return nil
}

type trigger int

const (
	trigStart trigger = iota
	trigReroute
	trigArrive
	trigSettled
)

var transitions = map[State]map[trigger]State{
	StateIdle:     {trigStart: StateMoving},
	StateMoving:   {trigReroute: StateMoving, trigArrive: StateArriving},
	StateArriving: {trigStart: StateMoving, trigSettled: StateIdle},
}

// fire applies t to the car state and reports whether the transition exists.
func (c *Car) fire(t trigger) bool {
	next, ok := transitions[c.state][t]
	if !ok {
		c.b.log.Warnf("car %s: no transition from %s on trigger %d", c.id, c.state, t)
		return false
	}
	c.state = next
	return true
}
