// Package httpdebug serves the optional debug HTTP endpoints this client
// exposes during a run: Prometheus metrics, a liveness probe, and a JSON
// snapshot of the shared stats record. The routing style mirrors the
// teacher's pkg/api router, scaled down to the handful of unauthenticated
// routes a load generator needs.
package httpdebug

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/nfsbench/internal/bench"
	"github.com/marmos91/nfsbench/internal/logger"
	"github.com/marmos91/nfsbench/internal/metrics"
)

// NewRouter builds the chi router for the debug HTTP server.
//
// Routes:
//   - GET /healthz      - liveness probe, always 200 while the process is up
//   - GET /metrics      - Prometheus exposition, served off the private registry
//   - GET /stats.json   - a point-in-time snapshot of the shared stats record
func NewRouter(m *bench.Mount) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/healthz", http.StatusTemporaryRedirect)
	})

	r.Get("/healthz", healthzHandler)

	if met := metrics.Get(); met != nil {
		r.Handle("/metrics", promhttp.HandlerFor(met.Registry, promhttp.HandlerOpts{}))
	}

	r.Get("/stats.json", statsHandler(m))

	return r
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statsHandler returns a handler closing over m so it can read the live
// Stats record on every request without any package-level state.
func statsHandler(m *bench.Mount) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := m.Stats.Snapshot()
		writeJSON(w, http.StatusOK, statsResponse{
			Requests:       snap.Requests,
			BytesSent:      snap.BytesSent,
			BytesRecv:      snap.BytesRecv,
			LatencyMin:     snap.LatencyMin.String(),
			LatencyMax:     snap.LatencyMax.String(),
			InFlight:       m.Table.Len(),
			ActiveJobs:     m.ActiveJobs.Load(),
			ReconnectCount: m.Reconnects(),
		})
	}
}

type statsResponse struct {
	Requests       uint64 `json:"requests"`
	BytesSent      uint64 `json:"bytes_sent"`
	BytesRecv      uint64 `json:"bytes_received"`
	LatencyMin     string `json:"latency_min"`
	LatencyMax     string `json:"latency_max"`
	InFlight       int    `json:"in_flight"`
	ActiveJobs     int64  `json:"active_jobs"`
	ReconnectCount uint64 `json:"reconnect_count"`
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debug("debug http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
