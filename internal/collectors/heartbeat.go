package collectors

import (
	"context"
	"time"

	"collectord/internal/eventbus"
	"collectord/internal/services/history"
	logx "collectord/pkg/logx"
)

// Heartbeat is a telemetry collector beaconing agent liveness: uptime into
// the history store and a "heartbeat" event on the bus.
type Heartbeat struct {
	*Base
	log     logx.Logger
	bus     eventbus.Bus
	store   history.Store
	started time.Time
}

func NewHeartbeat(interval time.Duration, store history.Store, bus eventbus.Bus, log logx.Logger) *Heartbeat {
	c := &Heartbeat{log: log, bus: bus, store: store, started: time.Now()}
	c.Base = NewBase("heartbeat", interval, c.collect)
	return c
}

// Telemetry tags this collector for the telemetry admission path.
func (c *Heartbeat) Telemetry() {}

func (c *Heartbeat) collect(ctx context.Context) {
	now := time.Now()
	uptime := now.Sub(c.started)

	if c.bus != nil {
		c.bus.Publish(eventbus.Event{
			Type: "agent.heartbeat",
			Time: now,
			Data: map[string]any{"uptime_s": uptime.Seconds()},
		})
	}

	if c.store != nil {
		err := c.store.AppendSamples(ctx, []history.Sample{
			{At: now, Collector: c.Name(), Metric: "uptime_seconds", Value: uptime.Seconds()},
		})
		if err != nil {
			c.log.Warn("heartbeat append failed", logx.Err(err))
		}
	}
}
