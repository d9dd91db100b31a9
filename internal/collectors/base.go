package collectors

import (
	"context"
	"sync/atomic"
	"time"

	"collectord/internal/services/scheduler"
)

// Base carries the bookkeeping every collector shares: identity, fixed
// interval, the in-progress flag, health state, last scheduled start time
// and the contention-monitoring toggle. Concrete collectors embed it and
// supply the collect body.
//
// All flags use atomics: the dispatch loop polls them while a pool worker
// runs the body.
type Base struct {
	name     string
	interval time.Duration
	collect  func(ctx context.Context)

	inProgress atomic.Bool
	health     atomic.Int32
	startMS    atomic.Int64
	contention atomic.Bool
}

func NewBase(name string, interval time.Duration, collect func(ctx context.Context)) *Base {
	return &Base{name: name, interval: interval, collect: collect}
}

func (b *Base) Name() string            { return b.name }
func (b *Base) Interval() time.Duration { return b.interval }

// Run executes one collection. The in-progress flag is set here and cleared
// on every exit path, including a panicking body: a collector that never
// clears it would be treated as perpetually running and muted.
func (b *Base) Run(ctx context.Context) {
	b.inProgress.Store(true)
	defer b.inProgress.Store(false)
	if b.collect != nil {
		b.collect(ctx)
	}
}

func (b *Base) InProgress() bool { return b.inProgress.Load() }

func (b *Base) Health() scheduler.HealthState {
	return scheduler.HealthState(b.health.Load())
}

func (b *Base) SetHealth(h scheduler.HealthState) { b.health.Store(int32(h)) }

func (b *Base) SetStartTime(t time.Time) { b.startMS.Store(t.UnixMilli()) }

// StartTime is the moment the scheduler last handed this collector to the
// pool (zero before the first submission).
func (b *Base) StartTime() time.Time {
	ms := b.startMS.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (b *Base) SetContentionMonitoring(enabled bool) { b.contention.Store(enabled) }

func (b *Base) ContentionMonitoring() bool { return b.contention.Load() }
