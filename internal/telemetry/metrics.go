package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// RuleCompilations counts compile attempts by outcome ("ok" or "malformed").
	RuleCompilations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_compilations_total",
			Help: "Rule compilations by outcome",
		},
		[]string{"outcome"},
	)
	// RuleEvaluations counts evaluations by result ("true" or "false").
	RuleEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_evaluations_total",
			Help: "Rule evaluations by result",
		},
		[]string{"result"},
	)
	SnapshotRules = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_rules",
		Help: "Number of rules currently in the in-memory snapshot",
	})
)

var initOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpReqs, httpDur, RuleCompilations, RuleEvaluations, SnapshotRules)
	})
}

// ObserveCompile records a compile outcome.
func ObserveCompile(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "malformed"
	}
	RuleCompilations.WithLabelValues(outcome).Inc()
}

// ObserveEvaluation records an evaluation result.
func ObserveEvaluation(result bool) {
	label := "false"
	if result {
		label = "true"
	}
	RuleEvaluations.WithLabelValues(label).Inc()
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		// the route pattern is only complete after routing
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
