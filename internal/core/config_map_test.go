package core

import (
	"context"
	"testing"
	"time"

	"collectord/internal/config"
	"collectord/internal/services/scheduler"
)

func TestSchedulerConfig(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{Collectors: config.CollectorsConfig{
		Enabled: true, Mode: "dual", Workers: 7, ContentionMonitoring: true,
	}}
	got, err := schedulerConfig(cfg)
	if err != nil {
		t.Fatalf("schedulerConfig: %v", err)
	}
	want := scheduler.Config{Enabled: true, Mode: scheduler.ModeDual, Workers: 7, ContentionMonitoring: true}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	cfg.Collectors.Mode = "nope"
	if _, err := schedulerConfig(cfg); err == nil {
		t.Fatal("expected error for bad mode")
	}
}

func TestIntervalsFromDefaults(t *testing.T) {
	t.Parallel()
	iv, err := intervalsFrom(&config.Config{})
	if err != nil {
		t.Fatalf("intervalsFrom: %v", err)
	}
	if iv.runtime != defaultRuntimeInterval ||
		iv.heartbeat != defaultHeartbeatInterval ||
		iv.selfStats != defaultSelfStatsInterval {
		t.Fatalf("defaults not applied: %+v", iv)
	}

	cfg := &config.Config{Collectors: config.CollectorsConfig{RuntimeInterval: "250ms"}}
	iv, err = intervalsFrom(cfg)
	if err != nil {
		t.Fatalf("intervalsFrom: %v", err)
	}
	if iv.runtime != 250*time.Millisecond {
		t.Fatalf("runtime interval = %v, want 250ms", iv.runtime)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ok := &config.Config{Collectors: config.CollectorsConfig{Mode: "rca", Workers: 2}}
	if err := validateConfig(ctx, ok); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := []*config.Config{
		{Collectors: config.CollectorsConfig{Mode: "???"}},
		{Collectors: config.CollectorsConfig{Workers: -1}},
		{Collectors: config.CollectorsConfig{RuntimeInterval: "fast"}},
		{History: &config.HistoryConfig{Driver: "sqlite", Retention: "forever"}},
	}
	for i, cfg := range bad {
		if err := validateConfig(ctx, cfg); err == nil {
			t.Errorf("case %d: invalid config accepted", i)
		}
	}
}

func TestHistoryConfig(t *testing.T) {
	t.Parallel()
	if got, err := historyConfig(&config.Config{}); err != nil || got.Driver != "" {
		t.Fatalf("nil history section: (%+v, %v)", got, err)
	}

	cfg := &config.Config{History: &config.HistoryConfig{
		Driver: "sqlite", Path: "x.db", BusyTimeout: "2s", Retention: "48h", PruneSpec: "@daily",
	}}
	got, err := historyConfig(cfg)
	if err != nil {
		t.Fatalf("historyConfig: %v", err)
	}
	if got.BusyTimeout != 2*time.Second || got.Retention != 48*time.Hour || got.PruneSpec != "@daily" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}
