package elevator

import (
	"slices"

	"github.com/kilianp07/liftsim/core/model"
)

// Stops returns a copy of the stop queue.
func (c *Car) Stops() []model.Floor { return slices.Clone(c.stops) }

// StopCount returns the length of the stop queue.
func (c *Car) StopCount() int { return len(c.stops) }

// HasStop reports whether f is in the stop queue.
func (c *Car) HasStop(f model.Floor) bool { return slices.Contains(c.stops, f) }

// Claims reports whether the car will visit f, either as a queued stop or as
// the target of its current trip.
func (c *Car) Claims(f model.Floor) bool {
	return c.HasStop(f) || (c.hasDest && c.dest == f) || slices.Contains(c.bypassed, f)
}

// AddStop queues f and reports whether the queue changed. A floor the car is
// passing is kept aside and queued once the car has left it.
func (c *Car) AddStop(f model.Floor) bool {
	if c.Claims(f) {
		return false
	}
	if f == c.current {
		if !c.IsMoving() {
			return false
		}
		c.bypassed = append(c.bypassed, f)
		return true
	}
	c.stops = append(c.stops, f)
	return true
}

// SortStops orders the queue ascending for DirUp and descending otherwise.
func (c *Car) SortStops(d model.Direction) {
	if d == model.DirUp {
		slices.Sort(c.stops)
		return
	}
	slices.SortFunc(c.stops, func(a, b model.Floor) int { return int(b) - int(a) })
}

func (c *Car) removeStop(f model.Floor) bool {
	i := slices.Index(c.stops, f)
	if i < 0 {
		return false
	}
	c.stops = slices.Delete(c.stops, i, i+1)
	return true
}

// restoreBypassed queues the floors set aside while passing them, except at.
func (c *Car) restoreBypassed(at model.Floor) {
	if len(c.bypassed) == 0 {
		return
	}
	var keep []model.Floor
	for _, f := range c.bypassed {
		switch {
		case f == at:
			keep = append(keep, f)
		case !c.HasStop(f):
			c.stops = append(c.stops, f)
		}
	}
	c.bypassed = keep
	c.SortStops(c.direction)
}

// FurthestClaim returns the furthest floor the car will visit in direction d.
func (c *Car) FurthestClaim(d model.Direction) (model.Floor, bool) {
	var best model.Floor
	found := false
	consider := func(f model.Floor) {
		if !found || (d == model.DirUp && f > best) || (d == model.DirDown && f < best) {
			best, found = f, true
		}
	}
	for _, f := range c.stops {
		consider(f)
	}
	if c.hasDest {
		consider(c.dest)
	}
	return best, found
}

// FindNextStop picks the next floor to serve from the stop queue. Stops in the
// current direction come first, nearest first; otherwise the nearest stop on
// the other side. Without a direction the closer side wins, Up on ties.
func (c *Car) FindNextStop() (model.Floor, bool) {
	var (
		above, below       model.Floor
		hasAbove, hasBelow bool
	)
	for _, f := range c.stops {
		switch {
		case f > c.current && (!hasAbove || f < above):
			above, hasAbove = f, true
		case f < c.current && (!hasBelow || f > below):
			below, hasBelow = f, true
		}
	}
	switch c.direction {
	case model.DirUp:
		if hasAbove {
			return above, true
		}
		return below, hasBelow
	case model.DirDown:
		if hasBelow {
			return below, true
		}
		return above, hasAbove
	default:
		if hasAbove && (!hasBelow || model.Distance(c.current, above) <= model.Distance(c.current, below)) {
			return above, true
		}
		return below, hasBelow
	}
}
