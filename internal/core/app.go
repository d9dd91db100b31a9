package core

import (
	"context"
	"fmt"
	"time"

	"collectord/internal/collectors"
	"collectord/internal/config"
	"collectord/internal/eventbus"
	"collectord/internal/runtime/supervisor"
	"collectord/internal/services/history"
	"collectord/internal/services/scheduler"
	"collectord/internal/services/stats"
	logx "collectord/pkg/logx"
)

// App wires config, logging, the event bus and the services together.
type App struct {
	log    logx.Logger
	logSvc *logx.Service
	mgr    *config.Manager
	bus    eventbus.Bus

	sched  *scheduler.Service
	stats  *stats.Service
	hist   *history.Service
	events *eventLog

	sup *supervisor.Supervisor

	// done is closed when the app decides the process should exit
	// (scheduler halt or supervisor error).
	done   chan struct{}
	reason StopReason
}

func NewApp(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logxConfig(cfg))
	mgr.SetLogger(log)
	mgr.SetValidator(validateConfig)

	bus := eventbus.New()

	statsSvc := stats.New(statsConfig(cfg), log.With(logx.String("svc", "stats")))

	histCfg, err := historyConfig(cfg)
	if err != nil {
		return nil, err
	}
	histSvc, err := history.New(histCfg, log.With(logx.String("svc", "history")))
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	schedCfg, err := schedulerConfig(cfg)
	if err != nil {
		return nil, err
	}
	sched := scheduler.New(schedCfg, log.With(logx.String("svc", "scheduler")), bus, statsSvc)
	events := newEventLog(log.With(logx.String("svc", "events")))
	statsSvc.SetSnapshotter(func() any {
		return map[string]any{
			"scheduler":     sched.Snapshot(),
			"history":       histSvc.Snapshot(),
			"recent_events": events.Recent(),
		}
	})

	app := &App{
		log:    log,
		logSvc: logSvc,
		mgr:    mgr,
		bus:    bus,
		sched:  sched,
		stats:  statsSvc,
		hist:   histSvc,
		events: events,
		done:   make(chan struct{}),
		reason: StopUnknown,
	}

	if err := app.registerCollectors(cfg); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) registerCollectors(cfg *config.Config) error {
	iv, err := intervalsFrom(cfg)
	if err != nil {
		return err
	}
	store := a.hist.Store()

	regs := []scheduler.Collector{
		collectors.NewRuntimeStats(iv.runtime, store, a.log),
		collectors.NewHeartbeat(iv.heartbeat, store, a.bus, a.log),
		collectors.NewSelfStats(iv.selfStats, a.stats, store, a.log),
	}
	for _, c := range regs {
		if err := a.sched.Register(c); err != nil {
			return fmt.Errorf("register %s: %w", c.Name(), err)
		}
	}
	return nil
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log))

	if err := a.hist.Start(a.sup.Context()); err != nil {
		return fmt.Errorf("start history: %w", err)
	}
	if err := a.stats.Start(a.sup.Context()); err != nil {
		return fmt.Errorf("start stats: %w", err)
	}
	if err := a.sched.Start(a.sup.Context()); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.sup.Go("config-watch", a.mgr.Watch)
	a.sup.Go0("config-apply", a.applyLoop)
	a.sup.Go0("scheduler-watch", a.watchScheduler)
	a.sup.Go0("event-log", func(ctx context.Context) { a.events.run(ctx, a.bus) })

	a.log.Info("collectord started")
	return nil
}

// Done is closed when the app wants the process to exit on its own
// (deliberate scheduler halt). Signal-driven shutdown goes through Stop.
func (a *App) Done() <-chan struct{} { return a.done }

func (a *App) Reason() StopReason { return a.reason }

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("collectord stopping", logx.String("reason", string(a.reason)))
	if a.sup != nil {
		a.sup.Stop(10 * time.Second)
	}
	a.stats.Stop(ctx)
	a.hist.Stop(ctx)
	_ = a.logSvc.Close()
	return nil
}

// watchScheduler turns a deliberate scheduler halt into app shutdown.
func (a *App) watchScheduler(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-a.sched.Done():
	}
	if err := a.sched.Err(); err != nil {
		a.reason = StopSchedulerHalted
		a.log.Error("scheduler halted; shutting down",
			logx.Err(err),
			logx.String("reason", string(StopSchedulerHalted)))
		close(a.done)
	}
}

// applyLoop pushes validated config reloads into the running services.
func (a *App) applyLoop(ctx context.Context) {
	ch := a.mgr.Subscribe(4)
	defer a.mgr.Unsubscribe(ch)

	prev := a.mgr.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok || cfg == nil {
				return
			}
			changed, attrs := config.SummarizeChange(prev, cfg)
			if len(changed) == 0 {
				prev = cfg
				continue
			}
			a.log.Info("config reloaded", append(attrs, logx.Any("sections", changed))...)

			a.logSvc.Apply(logxConfig(cfg))

			// Scheduler control flags are live; structural settings
			// (workers, intervals, history, stats addr) need a restart.
			a.sched.SetEnabled(cfg.Collectors.Enabled)
			if mode, err := scheduler.ParseMode(cfg.Collectors.Mode); err == nil {
				a.sched.SetMode(mode)
			}
			a.sched.SetContentionMonitoring(cfg.Collectors.ContentionMonitoring)

			prev = cfg
		}
	}
}
