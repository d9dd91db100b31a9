package collectors

import (
	"context"
	"time"

	"collectord/internal/services/history"
	"collectord/internal/services/stats"
	logx "collectord/pkg/logx"
)

// SelfStats folds the agent's own occurrence counters back into the sample
// history. It is the framework's health signal, so it carries the Critical
// capability: if it is ever found still running at its next due time, the
// scheduler stops rather than degrading it away.
type SelfStats struct {
	*Base
	log   logx.Logger
	stats *stats.Service
	store history.Store
}

func NewSelfStats(interval time.Duration, svc *stats.Service, store history.Store, log logx.Logger) *SelfStats {
	c := &SelfStats{log: log, stats: svc, store: store}
	c.Base = NewBase("self_stats", interval, c.collect)
	return c
}

func (c *SelfStats) Telemetry() {}

func (c *SelfStats) Critical() {}

func (c *SelfStats) collect(ctx context.Context) {
	if c.stats == nil {
		return
	}
	now := time.Now()
	counts := c.stats.Flush()
	if len(counts) == 0 {
		return
	}

	if c.store == nil {
		c.log.Debug("self stats collected (history disabled)", logx.Int("series", len(counts)))
		return
	}
	samples := make([]history.Sample, 0, len(counts))
	for key, v := range counts {
		samples = append(samples, history.Sample{
			At: now, Collector: c.Name(), Metric: key, Value: v,
		})
	}
	if err := c.store.AppendSamples(ctx, samples); err != nil {
		c.log.Warn("self stats append failed", logx.Err(err))
	}
}
