package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"castbot/internal/services/broadcast"
	logx "castbot/pkg/logx"
)

func startedService(t *testing.T, runner Runner) *Service {
	t.Helper()
	s := New(Config{Timezone: "UTC"}, runner, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	t.Cleanup(func() {
		s.Stop(context.Background())
		cancel()
	})
	return s
}

func TestSchedulePastRejected(t *testing.T) {
	t.Parallel()
	s := startedService(t, nil)

	for _, at := range []time.Time{
		time.Now().Add(-time.Hour),
		time.Now().Add(-time.Millisecond),
	} {
		if _, err := s.Schedule(at, broadcast.Payload{Text: "old"}); !errors.Is(err, ErrPastTime) {
			t.Fatalf("Schedule(%v) error = %v, want ErrPastTime", at, err)
		}
	}
	if got := s.Snapshot(); len(got) != 0 {
		t.Fatalf("registry not empty after rejected schedules: %v", got)
	}
}

func TestScheduleBeforeStart(t *testing.T) {
	t.Parallel()
	s := New(Config{}, nil, logx.Nop())
	if _, err := s.Schedule(time.Now().Add(time.Hour), broadcast.Payload{Text: "x"}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("error = %v, want ErrNotStarted", err)
	}
}

func TestCancelRemovesJob(t *testing.T) {
	t.Parallel()
	s := startedService(t, nil)

	id, err := s.Schedule(time.Now().Add(time.Hour), broadcast.Payload{Text: "later"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(s.Snapshot()) != 1 {
		t.Fatal("expected one pending job")
	}

	if !s.Cancel(id) {
		t.Fatal("Cancel returned false for a pending job")
	}
	if s.Cancel(id) {
		t.Fatal("Cancel returned true for an already-canceled job")
	}
	if s.Cancel("does-not-exist") {
		t.Fatal("Cancel returned true for an unknown id")
	}
	if got := s.Snapshot(); len(got) != 0 {
		t.Fatalf("registry not empty after cancel: %v", got)
	}
}

func TestSnapshotContents(t *testing.T) {
	t.Parallel()
	s := startedService(t, nil)

	at := time.Now().Add(time.Hour).Truncate(time.Second)
	id, err := s.Schedule(at, broadcast.Payload{Text: "Happy New Year"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot len = %d, want 1", len(snap))
	}
	if snap[0].ID != id {
		t.Fatalf("ID = %q, want %q", snap[0].ID, id)
	}
	if !snap[0].At.Equal(at) {
		t.Fatalf("At = %v, want %v", snap[0].At, at)
	}
	if snap[0].Summary != "Happy New Year" {
		t.Fatalf("Summary = %q", snap[0].Summary)
	}
}

func TestFireRunsOnceAndRemoves(t *testing.T) {
	t.Parallel()
	var fired atomic.Int32
	runner := func(_ context.Context, p broadcast.Payload) {
		if p.Text == "soon" {
			fired.Add(1)
		}
	}
	s := startedService(t, runner)

	id, err := s.Schedule(time.Now().Add(50*time.Millisecond), broadcast.Payload{Text: "soon"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("job never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Removal is unconditional after the run completes.
	removed := time.After(time.Second)
	for len(s.Snapshot()) != 0 {
		select {
		case <-removed:
			t.Fatal("job not removed after firing")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if s.Cancel(id) {
		t.Fatal("Cancel returned true for an already-fired job")
	}
	if n := fired.Load(); n != 1 {
		t.Fatalf("job fired %d times, want 1", n)
	}
}

func TestAddCronValidatesSpec(t *testing.T) {
	t.Parallel()
	s := New(Config{}, nil, logx.Nop())

	if err := s.AddCron("stats", "0 3 * * *", func(context.Context) {}); err != nil {
		t.Fatalf("AddCron valid spec: %v", err)
	}
	if err := s.AddCron("bad", "not a cron spec", func(context.Context) {}); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
	if err := s.AddDaily("daily", "03:30", func(context.Context) {}); err != nil {
		t.Fatalf("AddDaily: %v", err)
	}
	if err := s.AddDaily("bad-daily", "25:00", func(context.Context) {}); err == nil {
		t.Fatal("expected error for invalid HH:MM")
	}
}
