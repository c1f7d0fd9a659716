package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/upb/climate-action-ai/services/backends"
	"github.com/upb/climate-action-ai/services/orchestrator"
)

const namespace = "climate"

// OutcomeSuccess labels successful attempts and generations.
const OutcomeSuccess = "success"

// Metrics holds the application collectors.
type Metrics struct {
	backendAttempts     *prometheus.CounterVec
	generationDuration  *prometheus.HistogramVec
	generationExhausted prometheus.Counter
	cacheLookups        *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		backendAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_attempts_total",
				Help:      "Backend invocation attempts by backend and outcome.",
			},
			[]string{"backend", "outcome"},
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Time spent walking the backend priority list.",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		generationExhausted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_exhausted_total",
				Help:      "Generations where every backend failed.",
			},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Result cache lookups by cache and result.",
			},
			[]string{"cache", "result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route pattern and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route pattern.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.backendAttempts,
		m.generationDuration,
		m.generationExhausted,
		m.cacheLookups,
		m.httpRequests,
		m.httpDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveAttempt implements orchestrator.Recorder. Failures are labelled with
// their coarse reason.
func (m *Metrics) ObserveAttempt(backend orchestrator.BackendID, err error, _ time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = backends.Classify(err)
	}
	m.backendAttempts.WithLabelValues(string(backend), outcome).Inc()
}

// ObserveGeneration implements orchestrator.Recorder.
func (m *Metrics) ObserveGeneration(success bool, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if !success {
		outcome = "exhausted"
		m.generationExhausted.Inc()
	}
	m.generationDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveCacheLookup implements cache.LookupRecorder.
func (m *Metrics) ObserveCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// ObserveHTTPRequest records one served request. route should be the router
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

var _ orchestrator.Recorder = (*Metrics)(nil)
