package scheduler

import "time"

// Slot holds at most one pending task. Arming a slot cancels what it held, so
// a superseded timer can never fire.
type Slot struct {
	s  *Scheduler
	id TaskID
}

// NewSlot returns an empty slot bound to s.
func (s *Scheduler) NewSlot() *Slot { return &Slot{s: s} }

// Arm schedules fn after d, replacing any pending task.
func (sl *Slot) Arm(d time.Duration, fn func()) {
	sl.Stop()
	var id TaskID
	id = sl.s.After(d, func() {
		if sl.id == id {
			sl.id = 0
		}
		fn()
	})
	sl.id = id
}

// ArmEvery schedules fn every interval, replacing any pending task.
func (sl *Slot) ArmEvery(interval time.Duration, fn func()) {
	sl.Stop()
	sl.id = sl.s.Every(interval, fn)
}

// Stop cancels the pending task, if any.
func (sl *Slot) Stop() {
	if sl.id != 0 {
		sl.s.Cancel(sl.id)
		sl.id = 0
	}
}

// Active reports whether the slot holds a pending task.
func (sl *Slot) Active() bool { return sl.id != 0 }
