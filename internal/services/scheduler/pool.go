package scheduler

import (
	"context"
	"runtime/debug"
	"sync"

	logx "collectord/pkg/logx"
)

// pool is a fixed set of reusable worker goroutines draining a bounded
// backlog. The backlog is sized to the registered-collector count: the loop
// never submits a collector whose previous run is still in progress, so at
// most one submission per collector can be outstanding and the queue cannot
// legitimately fill. submit therefore treats a full queue as a caller bug
// and surfaces ErrBacklogFull instead of blocking or dropping silently.
type pool struct {
	log     logx.Logger
	workers int
	queue   chan Collector
	wg      sync.WaitGroup
}

func newPool(workers, backlog int, log logx.Logger) *pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if backlog <= 0 {
		backlog = 1
	}
	return &pool{
		log:     log,
		workers: workers,
		queue:   make(chan Collector, backlog),
	}
}

func (p *pool) start(ctx context.Context) {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		idx := i
		go func() {
			defer p.wg.Done()
			p.worker(ctx, idx)
		}()
	}
}

func (p *pool) worker(ctx context.Context, idx int) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-p.queue:
			p.runOne(ctx, c)
		}
	}
}

func (p *pool) runOne(ctx context.Context, c Collector) {
	// The collector body owns its own failures; the pool only contains
	// panics so one bad collector cannot take down a worker.
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("panic in collector",
				logx.String("collector", c.Name()),
				logx.Any("panic", r),
				logx.Stack(string(debug.Stack())))
		}
	}()
	c.Run(ctx)
}

func (p *pool) submit(c Collector) error {
	select {
	case p.queue <- c:
		return nil
	default:
		return ErrBacklogFull
	}
}

// wait blocks until all workers have exited (after ctx cancellation).
func (p *pool) wait() { p.wg.Wait() }
