package model

import (
	"fmt"
	"strings"
)

// RequestKind distinguishes in-car panel requests from hall calls.
type RequestKind int

const (
	KindPanel RequestKind = iota
	KindUp
	KindDown
)

// String returns the name of the request kind.
func (k RequestKind) String() string {
	switch k {
	case KindPanel:
		return "panel"
	case KindUp:
		return "up"
	case KindDown:
		return "down"
	default:
		return "unknown"
	}
}

// ParseRequestKind converts a kind name into a RequestKind.
func ParseRequestKind(s string) (RequestKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "panel":
		return KindPanel, nil
	case "up":
		return KindUp, nil
	case "down":
		return KindDown, nil
	default:
		return KindPanel, fmt.Errorf("unknown request kind %q", s)
	}
}

// MarshalText encodes the kind as its name.
func (k RequestKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name.
func (k *RequestKind) UnmarshalText(b []byte) error {
	v, err := ParseRequestKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Direction returns the call direction of an Up or Down request and DirNone
// for panel requests.
func (k RequestKind) Direction() Direction {
	switch k {
	case KindUp:
		return DirUp
	case KindDown:
		return DirDown
	default:
		return DirNone
	}
}

// CallKind returns the hall call kind matching a direction.
func CallKind(d Direction) (RequestKind, error) {
	switch d {
	case DirUp:
		return KindUp, nil
	case DirDown:
		return KindDown, nil
	default:
		return KindPanel, fmt.Errorf("%w: hall calls need up or down", ErrInvalidDirection)
	}
}

// Request is a pending floor request. CarID is only set for panel requests.
type Request struct {
	Kind  RequestKind `json:"kind"`
	Floor Floor       `json:"floor"`
	CarID string      `json:"car_id,omitempty"`
}

// PanelRequest builds a request bound to the panel of car carID.
func PanelRequest(carID string, f Floor) Request {
	return Request{Kind: KindPanel, Floor: f, CarID: carID}
}

// CallRequest builds a car-agnostic hall call.
func CallRequest(d Direction, f Floor) Request {
	k := KindUp
	if d == DirDown {
		k = KindDown
	}
	return Request{Kind: k, Floor: f}
}

// Same reports an exact match on kind, floor and car.
func (r Request) Same(o Request) bool {
	return r.Kind == o.Kind && r.Floor == o.Floor && r.CarID == o.CarID
}

// SatisfiedBy reports whether o, describing an arrival, satisfies r. Panel
// requests need the same car; hall calls are satisfied by any car.
func (r Request) SatisfiedBy(o Request) bool {
	if r.Kind != o.Kind || r.Floor != o.Floor {
		return false
	}
	if r.Kind == KindPanel {
		return r.CarID == o.CarID
	}
	return true
}

// String renders the request for logs.
func (r Request) String() string {
	if r.Kind == KindPanel {
		return fmt.Sprintf("panel(%s@%d)", r.CarID, r.Floor)
	}
	return fmt.Sprintf("%s@%d", r.Kind, r.Floor)
}
