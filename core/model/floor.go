package model

import (
	"errors"
	"fmt"
	"strings"
)

// Floor is a zero-based floor index. It carries no behavior beyond ordering.
type Floor int

// Direction is the travel direction of a car or the direction of a hall call.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
)

// ErrInvalidDirection is returned when a direction string cannot be parsed.
var ErrInvalidDirection = errors.New("invalid direction")

// String returns the lower-case name of the direction.
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return "none"
	}
}

// ParseDirection converts "up", "down" or "none" into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return DirUp, nil
	case "down":
		return DirDown, nil
	case "none", "":
		return DirNone, nil
	default:
		return DirNone, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// MarshalText encodes the direction as its name.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText decodes a direction name.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Opposite returns the reverse direction. DirNone has no opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	default:
		return DirNone
	}
}

// DirectionTo returns the direction of travel from one floor to another.
func DirectionTo(from, to Floor) Direction {
	switch {
	case to > from:
		return DirUp
	case to < from:
		return DirDown
	default:
		return DirNone
	}
}

// Distance returns the absolute number of floors between a and b.
func Distance(a, b Floor) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
