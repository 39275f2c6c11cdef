// Package metrics exposes Prometheus metrics for the bracket service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fencing"

// Recorder owns every collector and the registry they live in. A nil
// *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	roundsInitialized *prometheus.CounterVec
	byesResolved      prometheus.Counter
	boutsAdvanced     *prometheus.CounterVec
	roundsCompleted   *prometheus.CounterVec
	relayLegs         prometheus.Counter
	relaysCompleted   *prometheus.CounterVec
	exports           *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New builds a Recorder on its own registry, with the Go and process
// collectors added.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	auto := promauto.With(reg)
	return &Recorder{
		registry: reg,
		roundsInitialized: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "initialized_total",
			Help:      "Rounds whose pools or bracket were generated, by round type.",
		}, []string{"type"}),
		byesResolved: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bracket",
			Name:      "byes_resolved_total",
			Help:      "Bracket bouts decided as byes during generation.",
		}),
		boutsAdvanced: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bouts",
			Name:      "advanced_total",
			Help:      "Bouts that received a winner, by bout kind (pool or bracket).",
		}, []string{"kind"}),
		roundsCompleted: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "completed_total",
			Help:      "Rounds marked complete, by round type.",
		}, []string{"type"}),
		relayLegs: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "legs_recorded_total",
			Help:      "Relay legs appended to a ledger.",
		}),
		relaysCompleted: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "completed_total",
			Help:      "Relays that completed, by outcome (decided or tied).",
		}, []string{"outcome"}),
		exports: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "snapshots_total",
			Help:      "Round snapshot uploads, by result.",
		}, []string{"result"}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (r *Recorder) RoundInitialized(roundType string) {
	if r == nil {
		return
	}
	r.roundsInitialized.WithLabelValues(roundType).Inc()
}

func (r *Recorder) ByesResolved(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.byesResolved.Add(float64(n))
}

func (r *Recorder) BoutAdvanced(kind string) {
	if r == nil {
		return
	}
	r.boutsAdvanced.WithLabelValues(kind).Inc()
}

func (r *Recorder) RoundCompleted(roundType string) {
	if r == nil {
		return
	}
	r.roundsCompleted.WithLabelValues(roundType).Inc()
}

func (r *Recorder) RelayLegRecorded() {
	if r == nil {
		return
	}
	r.relayLegs.Inc()
}

func (r *Recorder) RelayCompleted(decided bool) {
	if r == nil {
		return
	}
	outcome := "tied"
	if decided {
		outcome = "decided"
	}
	r.relaysCompleted.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ExportFinished(err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.exports.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Middleware records count and latency per chi route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.httpRequests.WithLabelValues(route, req.Method, strconv.Itoa(status)).Inc()
		r.httpRequestDuration.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
	})
}
