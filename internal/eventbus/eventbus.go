// Package eventbus is a minimal in-process pub/sub fanout used to decouple
// the scheduler and collectors from whoever wants to observe them.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is one operational signal. The scheduler publishes lifecycle
// occurrences ("collector.slow", "collector.muted", "scheduler.fatal"),
// collectors publish liveness beacons ("agent.heartbeat"); the app's event
// log subscribes and keeps a recent-events window for diagnostics.
//
// Data should stay small and JSON-serializable.
type Event struct {
	Type string
	Time time.Time
	Data any
}

// Bus fans published events out to all current subscribers.
//
// Publish never blocks: subscribers receive on buffered channels and lose
// events when they fall behind. That is acceptable for operational signals;
// anything that must not be lost goes through the sink, not the bus.
type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns an in-memory fanout bus. It owns no goroutines; delivery
// happens inline on the publisher's goroutine.
func New() Bus {
	return &fanoutBus{subs: map[uint64]chan Event{}}
}

type fanoutBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	seq  atomic.Uint64
}

func (b *fanoutBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			// Publish tolerates the close below racing an in-flight send.
			close(ch)
		})
	}
	return ch, unsub
}

func (b *fanoutBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	// Snapshot under the read lock, send outside it: a send must never run
	// while Subscribe or an unsubscribe mutates the map.
	b.mu.RLock()
	targets := make([]chan Event, 0, len(b.subs))
	for _, ch := range b.subs {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		b.send(ch, e)
	}
}

// send is a non-blocking delivery attempt. A concurrent unsubscribe may
// close the channel between the snapshot and the send; the recover absorbs
// that send-on-closed panic.
func (b *fanoutBus) send(ch chan Event, e Event) {
	defer func() { _ = recover() }()
	select {
	case ch <- e:
	default:
	}
}
