package config

// Config is the agent's on-disk configuration. YAML and JSON are accepted;
// YAML is coerced to JSON and both go through the same strict decoder, so
// unknown fields are rejected in either format.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging    LoggingConfig    `json:"logging"`
	Collectors CollectorsConfig `json:"collectors"`
	Stats      StatsConfig      `json:"stats,omitempty"`
	History    *HistoryConfig   `json:"history,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"`
	Console bool       `json:"console"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// CollectorsConfig controls the scheduler and the built-in collectors.
//
// Mode is one of "rca", "telemetry", "dual" (default "rca"). Toggling
// enabled/mode/contention_monitoring in the file while the agent runs is
// picked up by the watcher and applied to the live scheduler; collector
// intervals and worker count are fixed at startup.
type CollectorsConfig struct {
	Enabled              bool   `json:"enabled"`
	Mode                 string `json:"mode,omitempty"`
	Workers              int    `json:"workers,omitempty"`
	ContentionMonitoring bool   `json:"contention_monitoring,omitempty"`

	RuntimeInterval   string `json:"runtime_interval,omitempty"`    // default "5s"
	HeartbeatInterval string `json:"heartbeat_interval,omitempty"`  // default "10s"
	SelfStatsInterval string `json:"self_stats_interval,omitempty"` // default "1m"
}

type StatsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default "127.0.0.1:9417"
}

// HistoryConfig controls the optional sample persistence layer.
//
// Example:
//
//	"history": { "driver": "sqlite", "path": "./collectord.db" }
type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
	Retention   string `json:"retention,omitempty"`    // default "72h"
	PruneSpec   string `json:"prune_spec,omitempty"`   // cron spec, default "@hourly"
}
