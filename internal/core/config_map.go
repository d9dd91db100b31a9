package core

import (
	"context"
	"fmt"
	"time"

	"collectord/internal/config"
	"collectord/internal/services/history"
	"collectord/internal/services/scheduler"
	"collectord/internal/services/stats"
	logx "collectord/pkg/logx"
)

const (
	defaultRuntimeInterval   = 5 * time.Second
	defaultHeartbeatInterval = 10 * time.Second
	defaultSelfStatsInterval = time.Minute
)

func logxConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func schedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	mode, err := scheduler.ParseMode(cfg.Collectors.Mode)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{
		Enabled:              cfg.Collectors.Enabled,
		Mode:                 mode,
		Workers:              cfg.Collectors.Workers,
		ContentionMonitoring: cfg.Collectors.ContentionMonitoring,
	}, nil
}

func statsConfig(cfg *config.Config) stats.Config {
	return stats.Config{Enabled: cfg.Stats.Enabled, Addr: cfg.Stats.Addr}
}

func historyConfig(cfg *config.Config) (history.Config, error) {
	if cfg.History == nil {
		return history.Config{}, nil
	}
	busy, err := config.ParseDurationField("history.busy_timeout", cfg.History.BusyTimeout)
	if err != nil {
		return history.Config{}, err
	}
	retention, err := config.ParseDurationField("history.retention", cfg.History.Retention)
	if err != nil {
		return history.Config{}, err
	}
	return history.Config{
		Driver:      cfg.History.Driver,
		Path:        cfg.History.Path,
		BusyTimeout: busy,
		Retention:   retention,
		PruneSpec:   cfg.History.PruneSpec,
	}, nil
}

type collectorIntervals struct {
	runtime   time.Duration
	heartbeat time.Duration
	selfStats time.Duration
}

func intervalsFrom(cfg *config.Config) (collectorIntervals, error) {
	var iv collectorIntervals
	var err error
	if iv.runtime, err = config.ParseDurationOrDefault("collectors.runtime_interval", cfg.Collectors.RuntimeInterval, defaultRuntimeInterval); err != nil {
		return iv, err
	}
	if iv.heartbeat, err = config.ParseDurationOrDefault("collectors.heartbeat_interval", cfg.Collectors.HeartbeatInterval, defaultHeartbeatInterval); err != nil {
		return iv, err
	}
	if iv.selfStats, err = config.ParseDurationOrDefault("collectors.self_stats_interval", cfg.Collectors.SelfStatsInterval, defaultSelfStatsInterval); err != nil {
		return iv, err
	}
	return iv, nil
}

// validateConfig is the manager's pre-commit hook: a reload that fails here
// is rejected without touching the running services.
func validateConfig(_ context.Context, cfg *config.Config) error {
	if _, err := scheduler.ParseMode(cfg.Collectors.Mode); err != nil {
		return err
	}
	if cfg.Collectors.Workers < 0 {
		return fmt.Errorf("collectors.workers must be >= 0")
	}
	if _, err := intervalsFrom(cfg); err != nil {
		return err
	}
	if _, err := historyConfig(cfg); err != nil {
		return err
	}
	return nil
}
