package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	logx "collectord/pkg/logx"
)

const (
	defaultRetention = 72 * time.Hour
	defaultPruneSpec = "@hourly"
)

// Service owns the history store plus its retention pruning. Pruning runs
// on a cron spec independent of the collector loop: retention is wall-clock
// maintenance, not a collection interval.
type Service struct {
	log   logx.Logger
	cfg   Config
	store Store
	c     *cron.Cron
}

// New opens the configured store. It returns (nil, nil) when history is
// disabled so callers can wire a nil store through.
func New(cfg Config, log logx.Logger) (*Service, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}

	var (
		store Store
		err   error
	)
	switch driver {
	case "sqlite", "sqlite3":
		store, err = openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
	if err != nil {
		return nil, err
	}
	return &Service{log: log, cfg: cfg, store: store}, nil
}

// Store exposes the underlying store for collectors. Safe on a nil Service
// (returns nil).
func (s *Service) Store() Store {
	if s == nil {
		return nil
	}
	return s.store
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	spec := strings.TrimSpace(s.cfg.PruneSpec)
	if spec == "" {
		spec = defaultPruneSpec
	}
	s.c = cron.New()
	if _, err := s.c.AddFunc(spec, func() { s.prune(ctx) }); err != nil {
		return err
	}
	s.c.Start()
	s.log.Info("history started",
		logx.String("driver", s.cfg.Driver),
		logx.String("prune_spec", spec),
		logx.Duration("retention", s.retention()))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	if s == nil {
		return
	}
	if s.c != nil {
		stopCtx := s.c.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
		s.c = nil
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn("history close failed", logx.Err(err))
	}
}

// Snapshot is a diagnostics view of the history configuration. Safe on a
// nil Service.
type Snapshot struct {
	Enabled   bool          `json:"enabled"`
	Driver    string        `json:"driver,omitempty"`
	Retention time.Duration `json:"retention,omitempty"`
	PruneSpec string        `json:"prune_spec,omitempty"`
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	spec := strings.TrimSpace(s.cfg.PruneSpec)
	if spec == "" {
		spec = defaultPruneSpec
	}
	return Snapshot{
		Enabled:   true,
		Driver:    s.cfg.Driver,
		Retention: s.retention(),
		PruneSpec: spec,
	}
}

func (s *Service) retention() time.Duration {
	if s.cfg.Retention > 0 {
		return s.cfg.Retention
	}
	return defaultRetention
}

func (s *Service) prune(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.retention())
	removed, err := s.store.PruneBefore(pctx, cutoff)
	if err != nil {
		s.log.Warn("history prune failed", logx.Err(err))
		return
	}
	if removed > 0 {
		s.log.Debug("history pruned", logx.Int64("removed", removed), logx.Time("cutoff", cutoff))
	}
}
