package app

import (
	"context"
	"fmt"
	"time"

	"castbot/internal/config"
	"castbot/internal/runtime/supervisor"
	"castbot/internal/services/broadcast"
	"castbot/internal/services/scheduler"
	"castbot/internal/storage"
	kit "castbot/internal/transport"
	telegram "castbot/internal/transport/telegram/adapter"
	"castbot/internal/transport/telegram/router"
	logx "castbot/pkg/logx"
)

// App wires config, storage, transport, and the broadcast services into
// one lifecycle. New builds everything or fails; Start/Stop bracket the
// run.
type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	store storage.Store

	adapter kit.Adapter
	caster  *broadcast.Service
	sched   *scheduler.Service
	router  *router.Router

	updates chan kit.Update
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	busyTimeout, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		logSvc.Close()
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		_ = store.Close()
		logSvc.Close()
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
		RatePerSec:  cfg.Telegram.RatePerSec,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = store.Close()
		logSvc.Close()
		return nil, err
	}

	caster := broadcast.New(store, ad, log.With(logx.String("comp", "broadcast")))

	sched := scheduler.New(scheduler.Config{
		Timezone: cfg.Scheduler.Timezone,
	}, func(ctx context.Context, p broadcast.Payload) {
		caster.SendScheduled(ctx, p)
	}, log.With(logx.String("comp", "scheduler")))

	rt := router.New(router.Deps{
		Adapter:     ad,
		Store:       store,
		Broadcaster: caster,
		Scheduler:   sched,
		OwnerID:     cfg.Telegram.OwnerID,
		Timeout:     30 * time.Second,
		Log:         log.With(logx.String("comp", "router")),
	})

	a := &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		adapter: ad,
		caster:  caster,
		sched:   sched,
		router:  rt,
		updates: make(chan kit.Update, 256),
	}
	if err := a.registerMaintenance(); err != nil {
		_ = store.Close()
		logSvc.Close()
		return nil, err
	}
	return a, nil
}

// registerMaintenance installs the recurring housekeeping tasks. These run
// in the scheduler timezone and are quiet unless something is off.
func (a *App) registerMaintenance() error {
	if err := a.sched.AddDaily("subscriber-stats", "03:00", func(ctx context.Context) {
		subs, err := a.store.ListAll(ctx)
		if err != nil {
			a.log.Warn("subscriber stats failed", logx.Err(err))
			return
		}
		active := 0
		for _, s := range subs {
			if s.Subscribed {
				active++
			}
		}
		a.log.Info("subscriber stats",
			logx.Int("total", len(subs)), logx.Int("active", active))
	}); err != nil {
		return err
	}

	return a.sched.AddDaily("wal-checkpoint", "04:00", func(ctx context.Context) {
		if err := a.store.WALCheckpoint(ctx); err != nil {
			a.log.Warn("wal checkpoint failed", logx.Err(err))
		}
	})
}

// Done is closed when the app run context ends (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed while running (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))

	a.sched.Start(a.sup.Context())

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}

	a.sup.Go0("router.dispatch", func(c context.Context) {
		for {
			select {
			case <-c.Done():
				return
			case up, ok := <-a.updates:
				if !ok {
					return
				}
				a.router.HandleUpdate(c, up)
			}
		}
	})

	// Hot reload: logging is the only section applied live; storage and
	// telegram changes need a restart.
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.logs.Apply(logx.Config{
					Level:   newCfg.Logging.Level,
					Console: newCfg.Logging.Console,
					File: logx.FileConfig{
						Enabled: newCfg.Logging.File.Enabled,
						Path:    newCfg.Logging.File.Path,
					},
				})
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")

	// Cancel the run context first so background loops start unwinding.
	a.sup.Cancel()

	// Bound every shutdown step so one component cannot stall the stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}
		if err := fn(stepCtx); err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
	}

	step("adapter", 3*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	step("scheduler", 2*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	step("storage", 1*time.Second, func(c context.Context) error { return a.store.Close() })
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	a.logs.Close()
	return nil
}
