package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"castbot/internal/services/broadcast"
	logx "castbot/pkg/logx"
)

type Service struct {
	mu sync.Mutex

	cfg    Config
	log    logx.Logger
	runner Runner

	jobs map[string]*jobEntry

	parser cron.Parser
	c      *cron.Cron
	defs   []cronDef
	loc    *time.Location

	runCtx context.Context
}

func New(cfg Config, runner Runner, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		log:    log,
		runner: runner,
		jobs:   map[string]*jobEntry{},
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return
	}
	s.runCtx = ctx

	loc := s.loadLocationLocked()
	s.loc = loc
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	for _, d := range s.defs {
		s.addCronLocked(d)
	}
	s.c.Start()
	s.log.Info("scheduler started", logx.String("tz", loc.String()), logx.Int("cron_defs", len(s.defs)))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx == nil {
		return
	}
	s.runCtx = nil

	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}

	// Pending one-shot jobs do not survive shutdown.
	for id, e := range s.jobs {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(s.jobs, id)
	}

	s.log.Info("scheduler stopped")
}

// Location returns the timezone used for parsing and cron entries.
func (s *Service) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loc != nil {
		return s.loc
	}
	return s.loadLocationLocked()
}

// Schedule registers a one-shot job. The id is the creation clock in
// milliseconds; under same-millisecond scheduling two jobs can collide.
func (s *Service) Schedule(at time.Time, p broadcast.Payload) (string, error) {
	now := time.Now()
	if !at.After(now) {
		return "", ErrPastTime
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx == nil {
		return "", ErrNotStarted
	}

	id := strconv.FormatInt(now.UnixMilli(), 10)
	e := &jobEntry{id: id, at: at, payload: p, created: now}
	e.timer = time.AfterFunc(time.Until(at), func() { s.fire(id) })
	s.jobs[id] = e

	s.log.Info("job scheduled",
		logx.String("job", id),
		logx.Time("at", at),
		logx.String("summary", p.Summary()))
	return id, nil
}

// Cancel stops a pending job. It reports false for unknown ids and for jobs
// whose firing has already begun.
func (s *Service) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[id]
	if !ok || e.firing {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(s.jobs, id)
	s.log.Info("job canceled", logx.String("job", id))
	return true
}

// Snapshot lists pending jobs ordered by trigger time.
func (s *Service) Snapshot() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobInfo, 0, len(s.jobs))
	for _, e := range s.jobs {
		out = append(out, JobInfo{ID: e.id, At: e.at, Summary: e.payload.Summary()})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.Before(out[j].At)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// fire runs one job exactly once, then removes it from the registry
// unconditionally (success or logged partial failure).
func (s *Service) fire(id string) {
	s.mu.Lock()
	e, ok := s.jobs[id]
	if !ok {
		// Canceled between timer expiry and lock acquisition.
		s.mu.Unlock()
		return
	}
	e.firing = true
	ctx := s.runCtx
	runner := s.runner
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	s.log.Info("job firing", logx.String("job", id), logx.String("summary", e.payload.Summary()))
	if runner != nil {
		runner(ctx, e.payload)
	}

	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
}

// AddCron registers a recurring maintenance task. Definitions registered
// before Start are applied when the cron runner starts.
func (s *Service) AddCron(name, spec string, job func(ctx context.Context)) error {
	if _, err := s.parser.Parse(spec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := cronDef{name: name, spec: spec, job: job}
	s.defs = append(s.defs, d)
	if s.c != nil {
		s.addCronLocked(d)
	}
	return nil
}

// AddDaily registers a maintenance task at HH:MM in the scheduler timezone.
func (s *Service) AddDaily(name, atHHMM string, job func(ctx context.Context)) error {
	h, m, err := parseHHMM(atHHMM)
	if err != nil {
		return err
	}
	return s.AddCron(name, strconv.Itoa(m)+" "+strconv.Itoa(h)+" * * *", job)
}

func (s *Service) addCronLocked(d cronDef) {
	_, err := s.c.AddFunc(d.spec, func() {
		s.mu.Lock()
		ctx := s.runCtx
		s.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}
		d.job(ctx)
	})
	if err != nil {
		// Specs are validated in AddCron; this only trips on parser drift.
		s.log.Error("cron registration failed", logx.String("task", d.name), logx.Err(err))
	}
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

func parseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}
