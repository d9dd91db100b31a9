package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"collectord/internal/eventbus"
	logx "collectord/pkg/logx"
)

// Service owns the collector registry and the dispatch loop.
//
// Registration happens during setup, before Start. The enabled flag, mode
// and contention toggle may be flipped concurrently with the running loop;
// everything else is single-threaded on the loop goroutine.
type Service struct {
	log  logx.Logger
	bus  eventbus.Bus
	sink Sink

	// mu guards the mutable control flags (enabled, mode, contention).
	// The loop reads them fresh each iteration and never holds mu across
	// an iteration.
	mu  sync.Mutex
	cfg Config

	// regMu guards due timestamps against Snapshot readers; the loop is
	// the sole writer once started.
	regMu sync.Mutex
	reg   *registry

	pool *pool

	started atomic.Bool
	done    chan struct{}

	fatalMu  sync.Mutex
	fatalErr error

	// skipLog bounds repeated per-interval skip lines for fast collectors.
	skipLog *rate.Limiter
}

func New(cfg Config, log logx.Logger, bus eventbus.Bus, sink Sink) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Service{
		log:     log,
		bus:     bus,
		sink:    sink,
		cfg:     cfg,
		reg:     newRegistry(),
		done:    make(chan struct{}),
		skipLog: rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

// Register adds a collector with an initial due time of now + interval.
// It must be called before Start; the registry is not safe to grow under a
// running loop.
func (s *Service) Register(c Collector) error {
	if s.started.Load() {
		return ErrStarted
	}
	c.SetContentionMonitoring(s.ContentionMonitoring())
	s.regMu.Lock()
	defer s.regMu.Unlock()
	return s.reg.add(c, time.Now())
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// SetEnabled toggles task evaluation. While disabled the loop keeps waking
// on schedule but freezes all due timestamps.
func (s *Service) SetEnabled(enabled bool) {
	s.mu.Lock()
	changed := s.cfg.Enabled != enabled
	s.cfg.Enabled = enabled
	s.mu.Unlock()
	if changed {
		s.log.Info("collector scheduling toggled", logx.Bool("enabled", enabled))
	}
}

func (s *Service) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Mode
}

func (s *Service) SetMode(m Mode) {
	s.mu.Lock()
	changed := s.cfg.Mode != m
	s.cfg.Mode = m
	s.mu.Unlock()
	if changed {
		s.log.Info("collector mode changed", logx.String("mode", m.String()))
	}
}

func (s *Service) ContentionMonitoring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.ContentionMonitoring
}

// SetContentionMonitoring stores the toggle and fans it out to every
// registered collector.
func (s *Service) SetContentionMonitoring(enabled bool) {
	s.mu.Lock()
	s.cfg.ContentionMonitoring = enabled
	s.mu.Unlock()

	s.regMu.Lock()
	for c := range s.reg.entries {
		c.SetContentionMonitoring(enabled)
	}
	s.regMu.Unlock()
}

// Start spins up the worker pool and the dispatch loop. The loop runs until
// ctx is cancelled or a critical collector forces a fatal stop; observe
// termination via Done/Err.
func (s *Service) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrStarted
	}

	s.mu.Lock()
	workers := s.cfg.Workers
	s.mu.Unlock()

	s.regMu.Lock()
	backlog := s.reg.size()
	s.regMu.Unlock()

	// Backlog sized to the collector count at pool creation: the loop never
	// re-submits an in-progress collector, so this bound cannot be exceeded.
	s.pool = newPool(workers, backlog, s.log)
	s.pool.start(ctx)

	go s.run(ctx)
	return nil
}

// Done is closed when the dispatch loop has exited.
func (s *Service) Done() <-chan struct{} { return s.done }

// Err reports why the loop stopped: nil after a plain context cancellation,
// or the fatal condition that made the scheduler stop itself.
func (s *Service) Err() error {
	s.fatalMu.Lock()
	defer s.fatalMu.Unlock()
	return s.fatalErr
}

func (s *Service) setErr(err error) {
	s.fatalMu.Lock()
	s.fatalErr = err
	s.fatalMu.Unlock()
}

func (s *Service) publish(typ, collector string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: map[string]string{"collector": collector}})
}
