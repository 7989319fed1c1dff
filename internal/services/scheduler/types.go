package scheduler

import (
	"context"
	"errors"
	"time"

	"castbot/internal/services/broadcast"
)

// Config controls the scheduler service.
type Config struct {
	Timezone string // IANA TZ for cron entries and schedule parsing; empty means local
}

var (
	// ErrPastTime is returned when the trigger time is not strictly in the future.
	ErrPastTime = errors.New("trigger time is not in the future")

	// ErrNotStarted is returned when a job is scheduled before Start.
	ErrNotStarted = errors.New("scheduler not started")
)

// Runner executes a fired job's payload (the broadcast fan-out).
type Runner func(ctx context.Context, p broadcast.Payload)

// JobInfo is a snapshot row for one pending job.
type JobInfo struct {
	ID      string
	At      time.Time
	Summary string
}

type jobEntry struct {
	id      string
	at      time.Time
	payload broadcast.Payload
	created time.Time
	timer   *time.Timer
	firing  bool
}

type cronDef struct {
	name string
	spec string
	job  func(ctx context.Context)
}
