package core

import (
	"context"
	"sync"
	"time"

	"collectord/internal/eventbus"
	logx "collectord/pkg/logx"
)

const eventLogSize = 64

// EventRecord is one bus event condensed for diagnostics.
type EventRecord struct {
	Time      time.Time `json:"time"`
	Type      string    `json:"type"`
	Collector string    `json:"collector,omitempty"`
}

// eventLog subscribes to the bus and keeps the most recent events in a
// fixed-size ring, served under /statusz. It is the app's one read side of
// the bus; the counters in stats stay the durable record.
type eventLog struct {
	log logx.Logger

	mu   sync.Mutex
	buf  []EventRecord
	next int
	full bool
}

func newEventLog(log logx.Logger) *eventLog {
	return &eventLog{log: log, buf: make([]EventRecord, eventLogSize)}
}

func (l *eventLog) run(ctx context.Context, bus eventbus.Bus) {
	ch, unsub := bus.Subscribe(32)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			l.record(ev)
		}
	}
}

func (l *eventLog) record(ev eventbus.Event) {
	rec := EventRecord{Time: ev.Time, Type: ev.Type, Collector: collectorOf(ev)}
	l.log.Debug("event observed",
		logx.String("type", rec.Type),
		logx.String("collector", rec.Collector))

	l.mu.Lock()
	l.buf[l.next] = rec
	l.next++
	if l.next == len(l.buf) {
		l.next = 0
		l.full = true
	}
	l.mu.Unlock()
}

// Recent returns the buffered events, oldest first.
func (l *eventLog) Recent() []EventRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		return append([]EventRecord(nil), l.buf[:l.next]...)
	}
	out := make([]EventRecord, 0, len(l.buf))
	out = append(out, l.buf[l.next:]...)
	out = append(out, l.buf[:l.next]...)
	return out
}

// collectorOf pulls the collector label out of the publisher-specific Data
// shapes (the scheduler uses map[string]string, collectors map[string]any).
func collectorOf(ev eventbus.Event) string {
	switch d := ev.Data.(type) {
	case map[string]string:
		return d["collector"]
	case map[string]any:
		if s, ok := d["collector"].(string); ok {
			return s
		}
	}
	return ""
}
