package motion

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateSpan is returned when a curve is requested over no time.
var ErrDegenerateSpan = errors.New("trajectory span must be positive")

// Trajectory maps elapsed time to a position in floors.
type Trajectory interface {
	// Position returns the position after elapsed. It is clamped to the
	// start and end of the curve.
	Position(elapsed time.Duration) float64
	// Velocity returns the speed in floors per second after elapsed.
	Velocity(elapsed time.Duration) float64
	Duration() time.Duration
	Target() float64
}

// EaseInOutCubic maps u in [0,1] onto the standard ease-in-out cubic.
func EaseInOutCubic(u float64) float64 {
	switch {
	case u <= 0:
		return 0
	case u >= 1:
		return 1
	case u < 0.5:
		return 4 * u * u * u
	default:
		v := 2 - 2*u
		return 1 - v*v*v/2
	}
}

func easeInOutCubicSlope(u float64) float64 {
	switch {
	case u <= 0 || u >= 1:
		return 0
	case u < 0.5:
		return 12 * u * u
	default:
		v := 2 - 2*u
		return 3 * v * v
	}
}

// Eased moves from From to To over Span with an ease-in-out cubic.
type Eased struct {
	From, To float64
	Span     time.Duration
}

func (e Eased) progress(elapsed time.Duration) float64 {
	if e.Span <= 0 {
		return 1
	}
	return float64(elapsed) / float64(e.Span)
}

// Position implements Trajectory.
func (e Eased) Position(elapsed time.Duration) float64 {
	return e.From + (e.To-e.From)*EaseInOutCubic(e.progress(elapsed))
}

// Velocity implements Trajectory.
func (e Eased) Velocity(elapsed time.Duration) float64 {
	if e.Span <= 0 {
		return 0
	}
	return (e.To - e.From) / e.Span.Seconds() * easeInOutCubicSlope(e.progress(elapsed))
}

// Duration implements Trajectory.
func (e Eased) Duration() time.Duration { return e.Span }

// Target implements Trajectory.
func (e Eased) Target() float64 { return e.To }

// Cubic is the curve a t³ + b t² + c t + d over Span seconds.
type Cubic struct {
	A, B, C, D float64
	Span       time.Duration
	To         float64
}

func (c Cubic) clamp(elapsed time.Duration) (float64, bool) {
	if elapsed <= 0 {
		return 0, false
	}
	if elapsed >= c.Span {
		return c.Span.Seconds(), true
	}
	return elapsed.Seconds(), false
}

// Position implements Trajectory.
func (c Cubic) Position(elapsed time.Duration) float64 {
	t, end := c.clamp(elapsed)
	if end {
		return c.To
	}
	return ((c.A*t+c.B)*t+c.C)*t + c.D
}

// Velocity implements Trajectory.
func (c Cubic) Velocity(elapsed time.Duration) float64 {
	t, _ := c.clamp(elapsed)
	return (3*c.A*t+2*c.B)*t + c.C
}

// Duration implements Trajectory.
func (c Cubic) Duration() time.Duration { return c.Span }

// Target implements Trajectory.
func (c Cubic) Target() float64 { return c.To }

// SolveInterrupt fits the cubic that starts at p0 with velocity v0 and comes
// to rest at pf after span.
func SolveInterrupt(p0, v0, pf float64, span time.Duration) (Cubic, error) {
	if span <= 0 {
		return Cubic{}, ErrDegenerateSpan
	}
	T := span.Seconds()
	a := mat.NewDense(4, 4, []float64{
		0, 0, 0, 1,
		0, 0, 1, 0,
		T * T * T, T * T, T, 1,
		3 * T * T, 2 * T, 1, 0,
	})
	b := mat.NewVecDense(4, []float64{p0, v0, pf, 0})
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return Cubic{}, fmt.Errorf("solve interrupt curve: %w", err)
	}
	return Cubic{A: x.AtVec(0), B: x.AtVec(1), C: x.AtVec(2), D: x.AtVec(3), Span: span, To: pf}, nil
}
