package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config controls the collector scheduler.
type Config struct {
	Enabled bool
	Mode    Mode
	// Workers is the fixed worker pool size (default 5).
	Workers int
	// ContentionMonitoring is fanned out to every registered collector.
	ContentionMonitoring bool
}

const defaultWorkers = 5

// Mode selects which collector categories are admitted for execution.
type Mode int32

const (
	// ModeRCA runs only ordinary (RCA-path) collectors.
	ModeRCA Mode = iota
	// ModeTelemetry runs only telemetry collectors.
	ModeTelemetry
	// ModeDual runs both categories.
	ModeDual
)

func (m Mode) String() string {
	switch m {
	case ModeRCA:
		return "rca"
	case ModeTelemetry:
		return "telemetry"
	case ModeDual:
		return "dual"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rca":
		return ModeRCA, nil
	case "telemetry":
		return ModeTelemetry, nil
	case "dual":
		return ModeDual, nil
	default:
		return ModeRCA, fmt.Errorf("unknown collector mode %q", s)
	}
}

// HealthState is the per-collector lifecycle driven by overrun detection.
//
// Muted is terminal: no transition leads out of it.
type HealthState int32

const (
	Healthy HealthState = iota
	Slow
	Muted
)

func (h HealthState) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Slow:
		return "slow"
	case Muted:
		return "muted"
	default:
		return fmt.Sprintf("health(%d)", int32(h))
	}
}

// Collector is a unit of recurring collection work.
//
// The scheduler never wraps Run in any error handling: a collector body is
// responsible for its own failures and MUST clear its in-progress flag on
// every exit path (collectors.Base does this with a deferred clear), or the
// scheduler will treat it as perpetually running and eventually mute it.
type Collector interface {
	// Name is the stable identity used for logging and occurrence labels.
	Name() string
	// Interval is the fixed collection period (> 0, immutable after registration).
	Interval() time.Duration
	// Run executes one collection. It runs on a pool worker.
	Run(ctx context.Context)
	// InProgress reports whether a previous Run has not finished yet.
	InProgress() bool

	Health() HealthState
	SetHealth(h HealthState)

	// SetStartTime records when the scheduler handed the collector to the pool.
	SetStartTime(t time.Time)
	// SetContentionMonitoring propagates the scheduler-wide contention toggle.
	SetContentionMonitoring(enabled bool)
}

// Telemetry marks collectors on the telemetry path. Ordinary (RCA-path)
// collectors simply don't implement it. This is a capability tag, not a
// subtype: the gate asserts it on the collector value.
type Telemetry interface {
	Telemetry()
}

// Critical marks a collector the scheduler cannot run without. Finding a
// critical collector still in progress at its due time stops the whole
// scheduler instead of demoting the collector.
type Critical interface {
	Critical()
}

// Occurrence is a scheduling event kind reported to the Sink.
type Occurrence string

const (
	OccMuted          Occurrence = "muted"
	OccSlow           Occurrence = "slow"
	OccSkippedMode    Occurrence = "skipped_mode"
	OccSkippedRunning Occurrence = "skipped_running"
)

// Sink records scheduling occurrences, one monotonically incrementing
// counter per (kind, collector name). Write-only; implementations must not
// block the dispatch loop.
type Sink interface {
	Record(occ Occurrence, collector string)
}

// NopSink discards all occurrences.
type NopSink struct{}

func (NopSink) Record(Occurrence, string) {}
