package stats

import (
	"testing"

	"collectord/internal/services/scheduler"
	logx "collectord/pkg/logx"
)

func TestRecordAndFlush(t *testing.T) {
	t.Parallel()
	svc := New(Config{}, logx.Nop())

	svc.Record(scheduler.OccSlow, "runtime_stats")
	svc.Record(scheduler.OccSkippedRunning, "runtime_stats")
	svc.Record(scheduler.OccSkippedRunning, "runtime_stats")
	svc.Record(scheduler.OccMuted, "heartbeat")

	got := svc.Flush()
	want := map[string]float64{
		"slow/runtime_stats":            1,
		"skipped_running/runtime_stats": 2,
		"muted/heartbeat":               1,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestFlushEmpty(t *testing.T) {
	t.Parallel()
	svc := New(Config{}, logx.Nop())
	if got := svc.Flush(); len(got) != 0 {
		t.Fatalf("fresh service reported occurrences: %v", got)
	}
}
