// Package diag exposes the maidnode process's own operational surface: a
// liveness probe, a Prometheus scrape endpoint, Go's runtime profiler, and
// a snapshot of pending-operation counts per payload family — the handful
// of routes an operator-facing client process needs.
package diag

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/maidnode/internal/cli/health"
	"github.com/marmos91/maidnode/internal/logger"
)

// StatsProvider reports pending-operation counts per payload family, as
// exposed by pkg/client.MaidNode.Stats / pkg/client.DataGetter.Stats.
type StatsProvider interface {
	Stats() map[string]int
}

// NewRouter builds the diagnostics HTTP handler. metricsReg is nil when
// metrics are disabled, in which case /metrics reports 404 rather than an
// empty registry, so scraping misconfiguration is visible instead of silent.
func NewRouter(stats StatsProvider, metricsReg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", handleHealthz)

	if metricsReg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))
	}

	r.Get("/ops", handleOps(stats))

	r.Route("/debug/pprof", func(r chi.Router) {
		r.Get("/", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Handle("/goroutine", pprof.Handler("goroutine"))
		r.Handle("/heap", pprof.Handler("heap"))
		r.Handle("/allocs", pprof.Handler("allocs"))
		r.Handle("/block", pprof.Handler("block"))
		r.Handle("/mutex", pprof.Handler("mutex"))
		r.Handle("/threadcreate", pprof.Handler("threadcreate"))
	})

	return r
}

var startedAt = time.Now()

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	var resp health.Response
	resp.Status = "ok"
	resp.Timestamp = now.UTC().Format(time.RFC3339)
	resp.Data.Service = "maidnode"
	resp.Data.StartedAt = startedAt.UTC().Format(time.RFC3339)
	resp.Data.Uptime = now.Sub(startedAt).Round(time.Second).String()
	resp.Data.UptimeSec = int64(now.Sub(startedAt).Seconds())

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleOps dumps the live pending-operation counts per payload family, the
// shape maidnodectl's ops list command decodes.
func handleOps(stats StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats.Stats())
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Debug("diagnostics request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String())
	})
}
