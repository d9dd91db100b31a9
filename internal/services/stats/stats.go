package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"collectord/internal/services/scheduler"
	logx "collectord/pkg/logx"
)

// Config controls the stats service.
type Config struct {
	Enabled bool
	// Addr is the exposition listen address (default "127.0.0.1:9417").
	Addr string
}

const defaultAddr = "127.0.0.1:9417"

// Service is the scheduler's observability sink: one monotonically
// incrementing counter per (occurrence kind, collector name), exposed in
// prometheus format. It is write-only from the scheduler's point of view;
// Flush exists for the agent's self-reporting collector.
type Service struct {
	log logx.Logger
	cfg Config

	reg *prometheus.Registry
	occ *prometheus.CounterVec

	mu  sync.Mutex
	srv *http.Server

	// Snapshotter, when set, is served as JSON at /statusz.
	snapshotter func() any
}

func New(cfg Config, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	occ := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collectord",
		Name:      "scheduler_occurrences_total",
		Help:      "Scheduling occurrences (muted, slow, skipped_mode, skipped_running) per collector.",
	}, []string{"kind", "collector"})
	reg.MustRegister(occ)

	return &Service{log: log, cfg: cfg, reg: reg, occ: occ}
}

// Record implements scheduler.Sink. It must stay non-blocking: the dispatch
// loop calls it inline.
func (s *Service) Record(occ scheduler.Occurrence, collector string) {
	s.occ.WithLabelValues(string(occ), collector).Inc()
}

// SetSnapshotter installs the diagnostics view served at /statusz.
func (s *Service) SetSnapshotter(fn func() any) {
	s.mu.Lock()
	s.snapshotter = fn
	s.mu.Unlock()
}

// Flush returns the current occurrence counts keyed "kind/collector".
// Used by the self-stats collector to fold scheduler health back into the
// sample history.
func (s *Service) Flush() map[string]float64 {
	out := map[string]float64{}
	mfs, err := s.reg.Gather()
	if err != nil {
		s.log.Warn("stats gather failed", logx.Err(err))
		return out
	}
	for _, mf := range mfs {
		if mf.GetName() != "collectord_scheduler_occurrences_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var kind, collector string
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "kind":
					kind = lp.GetValue()
				case "collector":
					collector = lp.GetValue()
				}
			}
			out[kind+"/"+collector] = m.GetCounter().GetValue()
		}
	}
	return out
}

func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}
	addr := strings.TrimSpace(s.cfg.Addr)
	if addr == "" {
		addr = defaultAddr
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/statusz", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		fn := s.snapshotter
		s.mu.Unlock()
		if fn == nil {
			http.Error(w, "no status available", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(fn())
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("stats server failed", logx.Err(err), logx.String("addr", addr))
		}
	}()
	s.log.Info("stats server started", logx.String("addr", addr))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)
}
