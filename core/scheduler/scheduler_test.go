package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAdvanceFiresInOrder(t *testing.T) {
	s := New(Config{})
	var got []int
	s.After(30*time.Millisecond, func() { got = append(got, 3) })
	s.After(10*time.Millisecond, func() { got = append(got, 1) })
	s.After(10*time.Millisecond, func() { got = append(got, 2) })
	s.Advance(20 * time.Millisecond)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected order %v", got)
	}
	s.Advance(10 * time.Millisecond)
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("third task not fired: %v", got)
	}
	if s.Now() != 30*time.Millisecond {
		t.Fatalf("clock at %v", s.Now())
	}
}

func TestTaskSeesItsDueTime(t *testing.T) {
	s := New(Config{})
	var at time.Duration
	s.After(15*time.Millisecond, func() { at = s.Now() })
	s.Advance(time.Second)
	if at != 15*time.Millisecond {
		t.Fatalf("task ran at %v", at)
	}
}

func TestEveryAndCancel(t *testing.T) {
	s := New(Config{})
	count := 0
	var id TaskID
	id = s.Every(10*time.Millisecond, func() {
		count++
		if count == 3 {
			s.Cancel(id)
		}
	})
	s.Advance(100 * time.Millisecond)
	if count != 3 {
		t.Fatalf("expected 3 runs, got %d", count)
	}
	if s.Pending() != 0 {
		t.Fatalf("expected empty queue, got %d", s.Pending())
	}
}

func TestSlotSupersedesPendingTask(t *testing.T) {
	s := New(Config{})
	sl := s.NewSlot()
	fired := ""
	sl.Arm(10*time.Millisecond, func() { fired = "first" })
	sl.Arm(20*time.Millisecond, func() { fired = "second" })
	s.Advance(15 * time.Millisecond)
	if fired != "" {
		t.Fatalf("superseded task fired: %s", fired)
	}
	s.Advance(10 * time.Millisecond)
	if fired != "second" || sl.Active() {
		t.Fatalf("fired=%s active=%v", fired, sl.Active())
	}
}

func TestSlotRearmFromCallback(t *testing.T) {
	s := New(Config{})
	sl := s.NewSlot()
	runs := 0
	var step func()
	step = func() {
		runs++
		if runs < 3 {
			sl.Arm(5*time.Millisecond, step)
		}
	}
	sl.Arm(5*time.Millisecond, step)
	s.Advance(50 * time.Millisecond)
	if runs != 3 || sl.Active() {
		t.Fatalf("runs=%d active=%v", runs, sl.Active())
	}
}

func TestRunAndDo(t *testing.T) {
	s := New(Config{TickMS: 1, TimeScale: 1})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	fired := make(chan struct{})
	if err := s.Do(ctx, func() { s.After(time.Millisecond, func() { close(fired) }) }); err != nil {
		t.Fatalf("do: %v", err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("run returned %v", err)
	}
	if err := s.Post(func() {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if err := s.Do(context.Background(), func() {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped from Do, got %v", err)
	}
}

func TestDrainRunsPostedWork(t *testing.T) {
	s := New(Config{})
	ran := false
	if err := s.Post(func() { ran = true }); err != nil {
		t.Fatalf("post: %v", err)
	}
	s.Drain()
	if !ran {
		t.Fatal("posted function not run")
	}
}
