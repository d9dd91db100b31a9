package scheduler

import (
	"sort"
	"time"
)

// CollectorInfo is a point-in-time view of one registry entry.
type CollectorInfo struct {
	Name       string        `json:"name"`
	Interval   time.Duration `json:"interval"`
	Health     string        `json:"health"`
	Telemetry  bool          `json:"telemetry"`
	Critical   bool          `json:"critical"`
	InProgress bool          `json:"in_progress"`
	NextDue    time.Time     `json:"next_due"`
}

// Snapshot is a lightweight diagnostics view of the scheduler.
type Snapshot struct {
	Enabled              bool            `json:"enabled"`
	Mode                 string          `json:"mode"`
	Workers              int             `json:"workers"`
	ContentionMonitoring bool            `json:"contention_monitoring"`
	QueueLen             int             `json:"queue_len"`
	QueueCap             int             `json:"queue_cap"`
	Fatal                string          `json:"fatal,omitempty"`
	Collectors           []CollectorInfo `json:"collectors"`
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	snap := Snapshot{
		Enabled:              cfg.Enabled,
		Mode:                 cfg.Mode.String(),
		Workers:              cfg.Workers,
		ContentionMonitoring: cfg.ContentionMonitoring,
	}
	if snap.Workers <= 0 {
		snap.Workers = defaultWorkers
	}
	if p := s.pool; p != nil {
		snap.QueueLen = len(p.queue)
		snap.QueueCap = cap(p.queue)
	}
	if err := s.Err(); err != nil {
		snap.Fatal = err.Error()
	}

	s.regMu.Lock()
	snap.Collectors = make([]CollectorInfo, 0, len(s.reg.entries))
	for c, due := range s.reg.entries {
		_, tel := c.(Telemetry)
		_, crit := c.(Critical)
		snap.Collectors = append(snap.Collectors, CollectorInfo{
			Name:       c.Name(),
			Interval:   c.Interval(),
			Health:     c.Health().String(),
			Telemetry:  tel,
			Critical:   crit,
			InProgress: c.InProgress(),
			NextDue:    time.UnixMilli(due),
		})
	}
	s.regMu.Unlock()

	sort.Slice(snap.Collectors, func(i, j int) bool {
		return snap.Collectors[i].Name < snap.Collectors[j].Name
	})
	return snap
}
