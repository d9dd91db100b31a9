package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStopWaitsForGoroutines(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	exited := make(chan struct{})
	s.Go0("worker", func(ctx context.Context) {
		<-ctx.Done()
		close(exited)
	})

	if !s.Stop(time.Second) {
		t.Fatal("Stop timed out")
	}
	select {
	case <-exited:
	default:
		t.Fatal("Stop returned before the goroutine exited")
	}
}

func TestFirstErrorWins(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	errA := errors.New("a")
	errB := errors.New("b")

	s.Go("a", func(context.Context) error { return errA })
	s.Stop(time.Second)
	s.Go("b", func(context.Context) error { return errB })
	s.Stop(time.Second)

	if err := s.Err(); !errors.Is(err, errA) {
		t.Fatalf("Err = %v, want the first error", err)
	}
}

func TestContextCanceledIsNotAnError(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	s.Go("quits-on-cancel", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	s.Stop(time.Second)
	if err := s.Err(); err != nil {
		t.Fatalf("Err = %v, want nil for a clean cancellation", err)
	}
}

func TestCancelOnError(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), WithCancelOnError(true))
	s.Go("fails", func(context.Context) error { return errors.New("boom") })

	select {
	case <-s.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after goroutine error")
	}
	s.Stop(time.Second)
}

func TestPanicRecovered(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	s.Go0("panics", func(context.Context) { panic("boom") })
	s.Stop(time.Second)
	if err := s.Err(); err == nil {
		t.Fatal("panic not surfaced as error")
	}
	c := s.CountersNow()
	if c.Started != 1 || c.Active != 0 {
		t.Fatalf("counters = %+v, want started 1, active 0", c)
	}
}
