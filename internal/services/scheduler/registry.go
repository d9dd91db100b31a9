package scheduler

import (
	"fmt"
	"math"
	"time"
)

// registry maps each collector to its next-due timestamp in unix millis.
//
// It is populated before the dispatch loop starts and, from then on, due
// timestamps are mutated only by the loop. minIntervalMS only ever shrinks:
// there is no collector removal, so it is never recomputed.
type registry struct {
	entries       map[Collector]int64
	names         map[string]struct{}
	minIntervalMS int64
}

func newRegistry() *registry {
	return &registry{
		entries:       map[Collector]int64{},
		names:         map[string]struct{}{},
		minIntervalMS: math.MaxInt64,
	}
}

func (r *registry) add(c Collector, now time.Time) error {
	iv := c.Interval()
	if iv <= 0 {
		return fmt.Errorf("%w: %s (%v)", ErrInvalidInterval, c.Name(), iv)
	}
	if _, ok := r.names[c.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, c.Name())
	}
	r.names[c.Name()] = struct{}{}
	r.entries[c] = now.UnixMilli() + iv.Milliseconds()
	if ms := iv.Milliseconds(); ms < r.minIntervalMS {
		r.minIntervalMS = ms
	}
	return nil
}

func (r *registry) size() int { return len(r.entries) }

// sleepInterval is the dispatch loop's wake cadence. Before any collector is
// registered there is nothing to schedule; fall back to a second so an empty
// scheduler idles instead of spinning.
func (r *registry) sleepInterval() time.Duration {
	if r.minIntervalMS == math.MaxInt64 {
		return time.Second
	}
	return time.Duration(r.minIntervalMS) * time.Millisecond
}
