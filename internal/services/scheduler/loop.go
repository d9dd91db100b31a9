package scheduler

import (
	"context"
	"fmt"
	"time"

	logx "collectord/pkg/logx"
)

// run is the dispatch loop: the single goroutine that owns due timestamps
// and collector health during steady state.
func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.log.Info("collector scheduler started",
		logx.Int("collectors", s.reg.size()),
		logx.Int("workers", s.pool.workers),
		logx.String("mode", s.Mode().String()),
		logx.Bool("enabled", s.Enabled()))

	prevStart := time.Now().UnixMilli()

	for {
		// Sleep against the previous iteration's start so the long-run wake
		// cadence tracks the minimum interval despite evaluation time.
		sleepMS := s.reg.sleepInterval().Milliseconds() - (time.Now().UnixMilli() - prevStart)
		if sleepMS > 0 {
			tmr := time.NewTimer(time.Duration(sleepMS) * time.Millisecond)
			select {
			case <-ctx.Done():
				tmr.Stop()
				s.log.Info("collector scheduler stopped", logx.Err(ctx.Err()))
				return
			case <-tmr.C:
			}
		} else {
			// Saturated iteration: no sleep, but still honor cancellation.
			select {
			case <-ctx.Done():
				s.log.Info("collector scheduler stopped", logx.Err(ctx.Err()))
				return
			default:
			}
		}

		prevStart = time.Now().UnixMilli()

		if !s.Enabled() {
			// Schedules are frozen: due timestamps keep their values, so
			// collectors become due immediately on re-enable.
			continue
		}

		if err := s.sweep(time.Now().UnixMilli()); err != nil {
			s.setErr(err)
			s.log.Error("collector scheduler halted", logx.Err(err))
			s.publish("scheduler.fatal", err.Error())
			return
		}
	}
}

// sweep evaluates every due collector once. Iteration order over the
// registry map is unspecified; each collector's own due events are strictly
// ordered by its interval regardless.
func (s *Service) sweep(now int64) error {
	s.regMu.Lock()
	defer s.regMu.Unlock()

	for c, due := range s.reg.entries {
		if due > now {
			continue
		}

		// Consume the due slot up front: a skipped or muted collector does
		// not accumulate backlog, its schedule just moves on.
		s.reg.entries[c] = due + c.Interval().Milliseconds()

		if c.Health() == Muted {
			s.sink.Record(OccMuted, c.Name())
			continue
		}

		if !CanSchedule(c, s.Mode()) {
			if s.skipLog.Allow() {
				s.log.Debug("collector skipped by mode",
					logx.String("collector", c.Name()),
					logx.String("mode", s.Mode().String()))
			}
			s.sink.Record(OccSkippedMode, c.Name())
			continue
		}

		if !c.InProgress() {
			c.SetStartTime(time.UnixMilli(now))
			if err := s.pool.submit(c); err != nil {
				// Cannot happen while the one-outstanding-run invariant
				// holds; if it does, something is broken enough that
				// degrading further would hide the bug.
				return fmt.Errorf("submit %s: %w", c.Name(), err)
			}
			continue
		}

		// Still in progress from the previous interval.
		if _, critical := c.(Critical); critical {
			return fmt.Errorf("%w: %s", ErrCriticalBlocked, c.Name())
		}

		next, slowEdge := OverrunNext(c.Health())
		c.SetHealth(next)
		if slowEdge {
			s.log.Warn("collector slow", logx.String("collector", c.Name()))
			s.sink.Record(OccSlow, c.Name())
			s.publish("collector.slow", c.Name())
		}
		if next == Muted {
			s.log.Warn("collector muted after repeated overruns", logx.String("collector", c.Name()))
			s.publish("collector.muted", c.Name())
		}
		if s.skipLog.Allow() {
			s.log.Info("collector still in progress, skipping this interval",
				logx.String("collector", c.Name()))
		}
		s.sink.Record(OccSkippedRunning, c.Name())
	}
	return nil
}
