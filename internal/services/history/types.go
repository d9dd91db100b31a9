package history

import (
	"context"
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the run-history store.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled and collectors write
// nowhere (Open returns nil).
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default

	// Retention bounds how far back samples are kept; older rows are
	// removed by the prune job. 0 means the default (72h).
	Retention time.Duration
	// PruneSpec is a cron spec or descriptor for the prune job
	// (default "@hourly").
	PruneSpec string
}

// Sample is one collected value. Keep it compact and schema-stable.
type Sample struct {
	At        time.Time
	Collector string
	Metric    string
	Value     float64
}

// Store is the minimal persistence API used by collectors and diagnostics.
type Store interface {
	AppendSamples(ctx context.Context, samples []Sample) error
	RecentSamples(ctx context.Context, collector string, limit int) ([]Sample, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (removed int64, err error)
	Close() error
}
