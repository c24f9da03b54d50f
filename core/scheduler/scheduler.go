package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"time"

	"github.com/kilianp07/liftsim/core/monitoring"
)

// ErrStopped is returned when work is handed to a scheduler that stopped.
var ErrStopped = errors.New("scheduler stopped")

// Config controls how the virtual clock follows wall time.
type Config struct {
	// TickMS is the wall-clock interval between Advance calls in Run and the
	// frame interval used for car animation.
	TickMS int `json:"tick_ms"`
	// TimeScale multiplies wall time before it is applied to the clock.
	TimeScale float64 `json:"time_scale"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.TickMS == 0 {
		c.TickMS = 16
	}
	if c.TimeScale == 0 {
		c.TimeScale = 1
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TickMS <= 0 {
		return errors.New("tick_ms must be positive")
	}
	if c.TimeScale <= 0 {
		return errors.New("time_scale must be positive")
	}
	return nil
}

// Tick returns the tick interval.
func (c Config) Tick() time.Duration { return time.Duration(c.TickMS) * time.Millisecond }

// TaskID identifies a scheduled task. The zero value never names a task.
type TaskID uint64

// Scheduler is a virtual clock with one-shot and repeating timers. Its methods
// other than Post and Do must only be called from the goroutine that owns it.
type Scheduler struct {
	cfg    Config
	now    time.Duration
	nextID TaskID
	seq    uint64
	tasks  taskHeap
	byID   map[TaskID]*task
	posted chan func()
	done   chan struct{}
}

// New creates a scheduler at virtual time zero.
func New(cfg Config) *Scheduler {
	cfg.SetDefaults()
	return &Scheduler{
		cfg:    cfg,
		byID:   make(map[TaskID]*task),
		posted: make(chan func(), 64),
		done:   make(chan struct{}),
	}
}

// Config returns the scheduler configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Now returns the current virtual time.
func (s *Scheduler) Now() time.Duration { return s.now }

// After runs fn once, d from now.
func (s *Scheduler) After(d time.Duration, fn func()) TaskID {
	if d < 0 {
		d = 0
	}
	return s.add(s.now+d, 0, fn)
}

// Every runs fn every interval, starting one interval from now.
func (s *Scheduler) Every(interval time.Duration, fn func()) TaskID {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return s.add(s.now+interval, interval, fn)
}

func (s *Scheduler) add(due, every time.Duration, fn func()) TaskID {
	s.nextID++
	s.seq++
	t := &task{id: s.nextID, due: due, seq: s.seq, every: every, fn: fn}
	heap.Push(&s.tasks, t)
	s.byID[t.id] = t
	return t.id
}

// Cancel removes a pending task. Cancelling an unknown or fired task is a no-op.
func (s *Scheduler) Cancel(id TaskID) {
	t, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	if t.index >= 0 {
		heap.Remove(&s.tasks, t.index)
	}
}

// Pending returns the number of scheduled tasks.
func (s *Scheduler) Pending() int { return len(s.tasks) }

// Advance moves the clock forward by d, firing every task that falls due in
// order. Tasks scheduled by a firing task run in the same call when they fall
// inside the window.
func (s *Scheduler) Advance(d time.Duration) {
	target := s.now + d
	for len(s.tasks) > 0 {
		next := s.tasks[0]
		if next.due > target {
			break
		}
		heap.Pop(&s.tasks)
		if next.due > s.now {
			s.now = next.due
		}
		if next.every > 0 {
			s.seq++
			next.due += next.every
			next.seq = s.seq
			heap.Push(&s.tasks, next)
		} else {
			delete(s.byID, next.id)
		}
		s.run(next.fn)
	}
	s.now = target
}

func (s *Scheduler) run(fn func()) {
	defer monitoring.Recover()
	fn()
}

// Post hands fn to the owning goroutine. It blocks until fn is queued or the
// scheduler stops.
func (s *Scheduler) Post(fn func()) error {
	select {
	case <-s.done:
		return ErrStopped
	default:
	}
	select {
	case s.posted <- fn:
		return nil
	case <-s.done:
		return ErrStopped
	}
}

// Do runs fn on the owning goroutine and waits for it to complete. It must
// not be called from the owning goroutine.
func (s *Scheduler) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	select {
	case s.posted <- wrapped:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain runs every posted function that is already queued. It is meant for
// callers that drive the clock by hand.
func (s *Scheduler) Drain() {
	for {
		select {
		case fn := <-s.posted:
			s.run(fn)
		default:
			return
		}
	}
}

// Run drives the clock from wall time until ctx is cancelled. It owns the
// scheduler for its whole duration.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Tick())
	defer ticker.Stop()
	defer close(s.done)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.posted:
			s.run(fn)
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			s.Advance(time.Duration(float64(elapsed) * s.cfg.TimeScale))
		}
	}
}
