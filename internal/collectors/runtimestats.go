package collectors

import (
	"context"
	"runtime"
	runtimemetrics "runtime/metrics"
	"time"

	"collectord/internal/services/history"
	logx "collectord/pkg/logx"
)

const mutexWaitMetric = "/sync/mutex/wait/total:seconds"

// RuntimeStats is an ordinary (RCA-path) collector sampling the Go runtime:
// heap, GC and goroutine counts, plus mutex wait time when contention
// monitoring is switched on.
type RuntimeStats struct {
	*Base
	log   logx.Logger
	store history.Store
}

func NewRuntimeStats(interval time.Duration, store history.Store, log logx.Logger) *RuntimeStats {
	c := &RuntimeStats{log: log, store: store}
	c.Base = NewBase("runtime_stats", interval, c.collect)
	return c
}

func (c *RuntimeStats) collect(ctx context.Context) {
	now := time.Now()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	samples := []history.Sample{
		{At: now, Collector: c.Name(), Metric: "heap_alloc_bytes", Value: float64(ms.HeapAlloc)},
		{At: now, Collector: c.Name(), Metric: "heap_objects", Value: float64(ms.HeapObjects)},
		{At: now, Collector: c.Name(), Metric: "gc_cycles", Value: float64(ms.NumGC)},
		{At: now, Collector: c.Name(), Metric: "goroutines", Value: float64(runtime.NumGoroutine())},
	}

	if c.ContentionMonitoring() {
		probe := []runtimemetrics.Sample{{Name: mutexWaitMetric}}
		runtimemetrics.Read(probe)
		if probe[0].Value.Kind() == runtimemetrics.KindFloat64 {
			samples = append(samples, history.Sample{
				At: now, Collector: c.Name(),
				Metric: "mutex_wait_seconds", Value: probe[0].Value.Float64(),
			})
		}
	}

	if c.store == nil {
		c.log.Debug("runtime stats collected (history disabled)",
			logx.Uint64("heap_alloc", ms.HeapAlloc),
			logx.Int("goroutines", runtime.NumGoroutine()))
		return
	}
	if err := c.store.AppendSamples(ctx, samples); err != nil {
		c.log.Warn("runtime stats append failed", logx.Err(err))
	}
}
