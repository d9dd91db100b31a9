package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	logx "collectord/pkg/logx"
)

// fakeCollector is an ordinary collector with a controllable run body.
type fakeCollector struct {
	name     string
	interval time.Duration

	// block, when non-nil, makes Run wait until the channel is closed.
	block chan struct{}

	runs       atomic.Int32
	inProgress atomic.Bool
	health     atomic.Int32
	startMS    atomic.Int64
	contention atomic.Bool
}

func newFake(name string, interval time.Duration) *fakeCollector {
	return &fakeCollector{name: name, interval: interval}
}

func (f *fakeCollector) Name() string            { return f.name }
func (f *fakeCollector) Interval() time.Duration { return f.interval }

func (f *fakeCollector) Run(ctx context.Context) {
	f.inProgress.Store(true)
	defer f.inProgress.Store(false)
	f.runs.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}
}

func (f *fakeCollector) InProgress() bool            { return f.inProgress.Load() }
func (f *fakeCollector) Health() HealthState         { return HealthState(f.health.Load()) }
func (f *fakeCollector) SetHealth(h HealthState)     { f.health.Store(int32(h)) }
func (f *fakeCollector) SetStartTime(t time.Time)    { f.startMS.Store(t.UnixMilli()) }
func (f *fakeCollector) SetContentionMonitoring(b bool) { f.contention.Store(b) }

type fakeTelemetry struct{ *fakeCollector }

func (fakeTelemetry) Telemetry() {}

type fakeCritical struct{ *fakeCollector }

func (fakeCritical) Telemetry() {}
func (fakeCritical) Critical()  {}

// recordSink counts occurrences per "kind/name".
type recordSink struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecordSink() *recordSink { return &recordSink{counts: map[string]int{}} }

func (r *recordSink) Record(occ Occurrence, name string) {
	r.mu.Lock()
	r.counts[string(occ)+"/"+name]++
	r.mu.Unlock()
}

func (r *recordSink) get(occ Occurrence, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[string(occ)+"/"+name]
}

func newTestService(t *testing.T, cfg Config, sink Sink) *Service {
	t.Helper()
	if sink == nil {
		sink = NopSink{}
	}
	return New(cfg, logx.Nop(), nil, sink)
}

func TestCanScheduleTable(t *testing.T) {
	t.Parallel()
	ordinary := newFake("ord", time.Second)
	telemetry := fakeTelemetry{newFake("tel", time.Second)}

	tests := []struct {
		name string
		c    Collector
		mode Mode
		want bool
	}{
		{"ordinary under rca", ordinary, ModeRCA, true},
		{"ordinary under telemetry", ordinary, ModeTelemetry, false},
		{"ordinary under dual", ordinary, ModeDual, true},
		{"telemetry under rca", telemetry, ModeRCA, false},
		{"telemetry under telemetry", telemetry, ModeTelemetry, true},
		{"telemetry under dual", telemetry, ModeDual, true},
	}
	for _, tt := range tests {
		if got := CanSchedule(tt.c, tt.mode); got != tt.want {
			t.Errorf("%s: CanSchedule = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOverrunNext(t *testing.T) {
	t.Parallel()
	if next, slow := OverrunNext(Healthy); next != Slow || !slow {
		t.Fatalf("Healthy -> (%v, %v), want (Slow, true)", next, slow)
	}
	if next, slow := OverrunNext(Slow); next != Muted || slow {
		t.Fatalf("Slow -> (%v, %v), want (Muted, false)", next, slow)
	}
	if next, slow := OverrunNext(Muted); next != Muted || slow {
		t.Fatalf("Muted -> (%v, %v), want (Muted, false)", next, slow)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	for raw, want := range map[string]Mode{
		"":          ModeRCA,
		"rca":       ModeRCA,
		"TELEMETRY": ModeTelemetry,
		" dual ":    ModeDual,
	} {
		got, err := ParseMode(raw)
		if err != nil {
			t.Fatalf("ParseMode(%q) error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseMode(%q) = %v, want %v", raw, got, want)
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestRegistryAdd(t *testing.T) {
	t.Parallel()
	r := newRegistry()
	now := time.Now()

	if err := r.add(newFake("a", 100*time.Millisecond), now); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := r.add(newFake("b", 50*time.Millisecond), now); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if got := r.sleepInterval(); got != 50*time.Millisecond {
		t.Fatalf("sleepInterval = %v, want 50ms", got)
	}

	if err := r.add(newFake("a", time.Second), now); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("duplicate add error = %v, want ErrDuplicateName", err)
	}
	if err := r.add(newFake("z", 0), now); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("zero interval error = %v, want ErrInvalidInterval", err)
	}
}

func TestPoolBacklogBound(t *testing.T) {
	t.Parallel()
	p := newPool(1, 1, logx.Nop())
	// Workers not started: the first submit fills the backlog, the second
	// must be rejected rather than block.
	if err := p.submit(newFake("a", time.Second)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := p.submit(newFake("b", time.Second)); !errors.Is(err, ErrBacklogFull) {
		t.Fatalf("second submit error = %v, want ErrBacklogFull", err)
	}
}

func TestRegisterAfterStart(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{Enabled: true, Mode: ModeDual, Workers: 1}, nil)
	if err := s.Register(newFake("a", 50*time.Millisecond)); err != nil {
		t.Fatalf("register: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Register(newFake("b", 50*time.Millisecond)); !errors.Is(err, ErrStarted) {
		t.Fatalf("register after start error = %v, want ErrStarted", err)
	}
	if err := s.Start(ctx); !errors.Is(err, ErrStarted) {
		t.Fatalf("second start error = %v, want ErrStarted", err)
	}
	cancel()
	<-s.Done()
}

func TestIntervalCadence(t *testing.T) {
	t.Parallel()
	sink := newRecordSink()
	s := newTestService(t, Config{Enabled: true, Mode: ModeDual, Workers: 2}, sink)

	a := newFake("a", 100*time.Millisecond)
	b := fakeTelemetry{newFake("b", 50*time.Millisecond)}
	if err := s.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := s.Register(b); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	time.Sleep(520 * time.Millisecond)
	cancel()
	<-s.Done()

	// Fast runs, no gating: ~5 and ~10 submissions. Wide margins keep the
	// test stable on slow CI machines.
	if got := a.runs.Load(); got < 3 || got > 7 {
		t.Errorf("a runs = %d, want ~5", got)
	}
	if got := b.runs.Load(); got < 7 || got > 13 {
		t.Errorf("b runs = %d, want ~10", got)
	}
	if got := sink.get(OccSlow, "a"); got != 0 {
		t.Errorf("a slow occurrences = %d, want 0", got)
	}
	if got := sink.get(OccMuted, "a"); got != 0 {
		t.Errorf("a muted occurrences = %d, want 0", got)
	}
	if err := s.Err(); err != nil {
		t.Errorf("unexpected fatal: %v", err)
	}
}

func TestOverrunDemotionAndMuting(t *testing.T) {
	t.Parallel()
	sink := newRecordSink()
	s := newTestService(t, Config{Enabled: true, Mode: ModeDual, Workers: 1}, sink)

	c := newFake("blocker", 20*time.Millisecond)
	c.block = make(chan struct{})
	if err := s.Register(c); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// First due: submitted. Second due (still running): slow. Third: muted.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && c.Health() != Muted {
		time.Sleep(5 * time.Millisecond)
	}
	if got := c.Health(); got != Muted {
		t.Fatalf("health = %v, want Muted", got)
	}
	if got := sink.get(OccSlow, "blocker"); got != 1 {
		t.Errorf("slow occurrences = %d, want 1", got)
	}
	if got := sink.get(OccSkippedRunning, "blocker"); got < 2 {
		t.Errorf("skipped_running occurrences = %d, want >= 2", got)
	}

	// Unblock: the body returns, but a muted collector is never resubmitted
	// and keeps heartbeating "muted" at its own interval.
	close(c.block)
	before := sink.get(OccMuted, "blocker")
	time.Sleep(100 * time.Millisecond)
	if got := c.runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1 (muted collector resubmitted)", got)
	}
	if after := sink.get(OccMuted, "blocker"); after <= before {
		t.Errorf("muted occurrences did not grow (%d -> %d)", before, after)
	}
	if err := s.Err(); err != nil {
		t.Errorf("unexpected fatal: %v", err)
	}
}

func TestModeGating(t *testing.T) {
	t.Parallel()
	sink := newRecordSink()
	s := newTestService(t, Config{Enabled: true, Mode: ModeRCA, Workers: 2}, sink)

	ord := newFake("ord", 30*time.Millisecond)
	tel := fakeTelemetry{newFake("tel", 30*time.Millisecond)}
	if err := s.Register(ord); err != nil {
		t.Fatal(err)
	}
	if err := s.Register(tel); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if got := tel.runs.Load(); got != 0 {
		t.Fatalf("telemetry runs under rca = %d, want 0", got)
	}
	if got := ord.runs.Load(); got == 0 {
		t.Fatal("ordinary collector never ran under rca")
	}
	if got := sink.get(OccSkippedMode, "tel"); got == 0 {
		t.Fatal("no skipped_mode occurrences for gated collector")
	}
	// Denial leaves health untouched.
	if got := tel.Health(); got != Healthy {
		t.Fatalf("gated collector health = %v, want Healthy", got)
	}

	// Mode flips are picked up without restarting the loop.
	s.SetMode(ModeDual)
	time.Sleep(200 * time.Millisecond)
	if got := tel.runs.Load(); got == 0 {
		t.Fatal("telemetry collector never ran after switching to dual")
	}
}

func TestDisableFreezesSchedules(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{Enabled: false, Mode: ModeDual, Workers: 1}, nil)
	c := newFake("c", 30*time.Millisecond)
	if err := s.Register(c); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	started := time.Now()
	time.Sleep(150 * time.Millisecond)
	if got := c.runs.Load(); got != 0 {
		t.Fatalf("runs while disabled = %d, want 0", got)
	}

	s.SetEnabled(true)
	time.Sleep(150 * time.Millisecond)
	elapsed := time.Since(started)
	got := c.runs.Load()
	if got == 0 {
		t.Fatal("collector never ran after enabling")
	}
	// Frozen due timestamps make the collector immediately due on re-enable,
	// but each due event still consumes exactly one interval: total firings
	// stay bounded by the wall time elapsed since Start, never a burst
	// replaying the disabled window.
	if bound := int32(elapsed/c.interval) + 2; got > bound {
		t.Fatalf("runs after enabling = %d, want <= %d (schedule reset, not frozen)", got, bound)
	}
}

func TestCriticalCollectorHaltsScheduler(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{Enabled: true, Mode: ModeDual, Workers: 1}, nil)

	c := fakeCritical{newFake("self_stats", 20 * time.Millisecond)}
	c.block = make(chan struct{})
	defer close(c.block)
	if err := s.Register(c); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not halt on blocked critical collector")
	}
	if err := s.Err(); !errors.Is(err, ErrCriticalBlocked) {
		t.Fatalf("Err = %v, want ErrCriticalBlocked", err)
	}
	// The critical collector is halted on, not demoted.
	if got := c.Health(); got != Healthy {
		t.Fatalf("critical collector health = %v, want Healthy", got)
	}
}

func TestContentionMonitoringFanout(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{Enabled: false, Mode: ModeDual}, nil)
	a := newFake("a", time.Second)
	b := newFake("b", time.Second)
	if err := s.Register(a); err != nil {
		t.Fatal(err)
	}

	s.SetContentionMonitoring(true)
	if !a.contention.Load() {
		t.Fatal("contention toggle not fanned out to registered collector")
	}
	// A collector registered afterwards inherits the current setting.
	if err := s.Register(b); err != nil {
		t.Fatal(err)
	}
	if !b.contention.Load() {
		t.Fatal("late-registered collector did not inherit contention setting")
	}

	s.SetContentionMonitoring(false)
	if a.contention.Load() || b.contention.Load() {
		t.Fatal("contention toggle not cleared on fanout")
	}
}

func TestSnapshot(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{Enabled: true, Mode: ModeTelemetry, Workers: 3}, nil)
	if err := s.Register(fakeTelemetry{newFake("tel", time.Second)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Register(newFake("ord", 2*time.Second)); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	if snap.Mode != "telemetry" || !snap.Enabled || snap.Workers != 3 {
		t.Fatalf("unexpected snapshot header: %+v", snap)
	}
	if len(snap.Collectors) != 2 {
		t.Fatalf("snapshot collectors = %d, want 2", len(snap.Collectors))
	}
	// Sorted by name.
	if snap.Collectors[0].Name != "ord" || snap.Collectors[1].Name != "tel" {
		t.Fatalf("unexpected order: %+v", snap.Collectors)
	}
	if !snap.Collectors[1].Telemetry {
		t.Fatal("telemetry capability not reflected in snapshot")
	}
}
