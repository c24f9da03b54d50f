package motion

import (
	"errors"
	"math"
	"time"
)

// Profile holds the timing constants of car motion.
type Profile struct {
	SingleFloorMS     int     `json:"single_floor_ms"`
	PerFloorMS        int     `json:"per_floor_ms"`
	ArrivalLeadMS     int     `json:"arrival_lead_ms"`
	SettleMS          int     `json:"settle_ms"`
	JustArrivedMS     int     `json:"just_arrived_ms"`
	InterruptScale    float64 `json:"interrupt_scale"`
	MinInterruptMS    int     `json:"min_interrupt_ms"`
	MaxInterruptMS    int     `json:"max_interrupt_ms"`
	NearRerouteFloors float64 `json:"near_reroute_floors"`
	NearFraction      float64 `json:"near_fraction"`
	FarFraction       float64 `json:"far_fraction"`
	// MinRerouteGap is the smallest distance in floors, measured from the
	// current position, at which a moving car still accepts a new target.
	MinRerouteGap float64 `json:"min_reroute_gap"`
}

// DefaultProfile returns the standard motion constants.
func DefaultProfile() Profile {
	p := Profile{}
	p.SetDefaults()
	return p
}

// SetDefaults applies default values.
func (p *Profile) SetDefaults() {
	if p.SingleFloorMS == 0 {
		p.SingleFloorMS = 1800
	}
	if p.PerFloorMS == 0 {
		p.PerFloorMS = 1000
	}
	if p.ArrivalLeadMS == 0 {
		p.ArrivalLeadMS = 600
	}
	if p.SettleMS == 0 {
		p.SettleMS = 500
	}
	if p.JustArrivedMS == 0 {
		p.JustArrivedMS = 1500
	}
	if p.InterruptScale == 0 {
		p.InterruptScale = 1.5
	}
	if p.MinInterruptMS == 0 {
		p.MinInterruptMS = 800
	}
	if p.MaxInterruptMS == 0 {
		p.MaxInterruptMS = 4000
	}
	if p.NearRerouteFloors == 0 {
		p.NearRerouteFloors = 3
	}
	if p.NearFraction == 0 {
		p.NearFraction = 0.6
	}
	if p.FarFraction == 0 {
		p.FarFraction = 0.75
	}
	if p.MinRerouteGap == 0 {
		p.MinRerouteGap = 0.5
	}
}

// Validate checks that every constant is usable.
func (p Profile) Validate() error {
	if p.SingleFloorMS <= 0 || p.PerFloorMS <= 0 {
		return errors.New("trip durations must be positive")
	}
	if p.ArrivalLeadMS < 0 || p.SettleMS < 0 || p.JustArrivedMS < 0 {
		return errors.New("arrival timings must not be negative")
	}
	if p.MinInterruptMS <= 0 || p.MaxInterruptMS < p.MinInterruptMS {
		return errors.New("interrupt bounds are invalid")
	}
	if p.InterruptScale <= 0 {
		return errors.New("interrupt_scale must be positive")
	}
	if p.NearFraction <= 0 || p.NearFraction > 1 || p.FarFraction <= 0 || p.FarFraction > 1 {
		return errors.New("reroute fractions must be in (0,1]")
	}
	return nil
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// TripDuration returns the time of a trip of distance floors.
func (p Profile) TripDuration(distance int) time.Duration {
	if distance < 0 {
		distance = -distance
	}
	switch distance {
	case 0:
		return 0
	case 1:
		return ms(p.SingleFloorMS)
	default:
		return ms(distance * p.PerFloorMS)
	}
}

// CruisingSpeed returns the nominal speed in floors per second.
func (p Profile) CruisingSpeed() float64 {
	return 1000 / float64(p.PerFloorMS)
}

// InterruptDuration returns the length of a reroute curve from p0 to pf
// entered at velocity v0. When the car already moves towards pf the span is
// capped at 3·|pf-p0|/|v0|, past which the curve would overshoot pf before
// settling. The cap takes precedence over MinInterruptMS.
func (p Profile) InterruptDuration(p0, v0, pf float64) time.Duration {
	dist := pf - p0
	secs := math.Abs(dist) / p.CruisingSpeed() * p.InterruptScale
	d := time.Duration(secs * float64(time.Second))
	if d < ms(p.MinInterruptMS) {
		d = ms(p.MinInterruptMS)
	}
	if d > ms(p.MaxInterruptMS) {
		d = ms(p.MaxInterruptMS)
	}
	if v0*dist > 0 {
		limit := time.Duration(3 * dist / v0 * float64(time.Second))
		if d > limit {
			d = limit
		}
	}
	return d
}

// DeferredThreshold returns the elapsed trip time after which a deferred
// reroute to a target distance floors away is applied. Near targets wait for
// a smaller share of the first half of the trip.
func (p Profile) DeferredThreshold(tripDuration time.Duration, distance float64) time.Duration {
	frac := p.FarFraction
	if math.Abs(distance) <= p.NearRerouteFloors {
		frac = p.NearFraction
	}
	return time.Duration(frac * float64(tripDuration/2))
}

// ArrivalLead returns how long before arrival the imminent flag rises.
func (p Profile) ArrivalLead() time.Duration { return ms(p.ArrivalLeadMS) }

// Settle returns the pause between arrival and the next decision.
func (p Profile) Settle() time.Duration { return ms(p.SettleMS) }

// JustArrived returns how long the just arrived indicator stays on.
func (p Profile) JustArrived() time.Duration { return ms(p.JustArrivedMS) }
