// Package app wires configuration, state, sources, and notification
// destinations into a runnable monitor.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"watchtower/internal/config"
	"watchtower/internal/monitor"
	"watchtower/internal/notify"
	"watchtower/internal/source"
	"watchtower/internal/state"
	logx "watchtower/pkg/logx"
)

type Options struct {
	ConfigPath string
	// Interval overrides watch.interval when > 0.
	Interval time.Duration
}

type App struct {
	cfg      *config.Config
	log      logx.Logger
	logClose func() error
	store    state.Store
	runner   *monitor.Runner
	interval time.Duration
	loc      *time.Location

	// cycleMu serializes cycles so a slow cycle is skipped over, never
	// overlapped (two concurrent cycles could interleave on one target).
	cycleMu sync.Mutex
}

// New loads config and builds the full pipeline. Any error here is a
// startup-fatal config or wiring problem.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", opts.ConfigPath, err)
	}

	log, closeLog := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	loc, err := cfg.Location()
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	interval := opts.Interval
	if interval <= 0 {
		if interval, err = cfg.IntervalDuration(); err != nil {
			_ = closeLog()
			return nil, err
		}
	}

	store, err := state.Open(state.Config{Driver: cfg.State.Driver, Path: cfg.State.Path}, log)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("open state store: %w", err)
	}

	sinks := notify.SinksFromEnv(cfg.Notifiers, log)
	if len(sinks) == 0 {
		log.Warn("no notification destinations configured; detected changes will only be logged")
	}
	notifier := notify.NewService(sinks, cfg.Notifiers.RatePerSec, log)

	client := source.NewHTTPClient()
	entries := make([]monitor.Entry, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		src, err := source.New(t, client, loc)
		if err != nil {
			_ = store.Close()
			_ = closeLog()
			return nil, err
		}
		entries = append(entries, monitor.Entry{Target: t, Source: src})
	}

	runner := monitor.NewRunner(entries, store, notifier, cfg.Watch.Workers, loc, log)

	return &App{
		cfg:      cfg,
		log:      log,
		logClose: closeLog,
		store:    store,
		runner:   runner,
		interval: interval,
		loc:      loc,
	}, nil
}

// RunOnce executes a single cycle and exits.
func (a *App) RunOnce(ctx context.Context) error {
	defer a.close()
	a.runner.RunOnce(ctx)
	return nil
}

// Watch runs cycles continuously until ctx is cancelled. The first cycle
// starts immediately; later ones fire on the configured interval. Shutdown
// is cooperative: the in-flight cycle completes before Watch returns, so
// no target is left with a partial state write.
func (a *App) Watch(ctx context.Context) error {
	defer a.close()

	// Cycles run detached from the shutdown signal; cron.Stop below waits
	// for the in-flight one.
	cycleCtx := context.WithoutCancel(ctx)
	runCycle := func() {
		if !a.cycleMu.TryLock() {
			a.log.Warn("previous cycle still running; skipping this tick")
			return
		}
		defer a.cycleMu.Unlock()
		a.runner.RunOnce(cycleCtx)
	}

	c := cron.New(cron.WithLocation(a.loc))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", a.interval), runCycle); err != nil {
		return err
	}

	a.log.Info("watch started",
		logx.Duration("interval", a.interval),
		logx.String("tz", a.loc.String()))
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	runCycle()
	c.Start()

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.log.Info("shutdown requested; finishing in-flight cycle")
	<-c.Stop().Done()
	return nil
}

func (a *App) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("state store close failed", logx.Err(err))
	}
	_ = a.logClose()
}
