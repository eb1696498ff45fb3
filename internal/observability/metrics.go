package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the application's Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	analysisCalls   *prometheus.CounterVec
	analysisLatency prometheus.Histogram
	sessionsCreated prometheus.Counter
	goalsCreated    *prometheus.CounterVec
	goalsCompleted  prometheus.Counter
	storeErrors     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		analysisCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farum_analysis_calls_total",
			Help: "Conversation analysis calls by outcome.",
		}, []string{"outcome"}),
		analysisLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "farum_analysis_latency_seconds",
			Help:    "Latency of conversation analysis calls.",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farum_sessions_created_total",
			Help: "Sessions persisted for the first time.",
		}),
		goalsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farum_goals_created_total",
			Help: "Goals created by kind.",
		}, []string{"kind"}),
		goalsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farum_goals_completed_total",
			Help: "Goals that went from open to completed.",
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farum_store_errors_total",
			Help: "Record store failures by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		m.analysisCalls,
		m.analysisLatency,
		m.sessionsCreated,
		m.goalsCreated,
		m.goalsCompleted,
		m.storeErrors,
	)
	return m
}

func (m *Metrics) RecordAnalysis(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.analysisCalls.WithLabelValues(outcome).Inc()
	m.analysisLatency.Observe(d.Seconds())
}

func (m *Metrics) RecordSessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

func (m *Metrics) RecordGoalCreated(kind string) {
	if m == nil {
		return
	}
	m.goalsCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordGoalCompleted() {
	if m == nil {
		return
	}
	m.goalsCompleted.Inc()
}

func (m *Metrics) RecordStoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// Handler serves the gathered metrics for Prometheus scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
