// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"token-sentinel/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Collector metrics
	CollectorCalls   *prometheus.CounterVec
	CollectorLatency *prometheus.HistogramVec

	// Scoring metrics
	TokensScored  *prometheus.CounterVec
	ScoresAwarded prometheus.Histogram
	TokensTracked prometheus.Counter

	// Monitor metrics
	MonitorRuns     prometheus.Counter
	MonitorDuration prometheus.Histogram
	TokensChecked   *prometheus.CounterVec
	CheckFailures   prometheus.Counter

	// Incident metrics
	IncidentsDetected *prometheus.CounterVec
	AlertsPosted      prometheus.Counter
	AlertFailures     prometheus.Counter

	// Registry metrics
	TrackedByStatus *prometheus.GaugeVec

	// Feed metrics
	MentionsIngested prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_sentinel"
	}

	return &Metrics{
		CollectorCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "calls_total",
			Help:      "Collector invocations by collector name and outcome",
		}, []string{"collector", "outcome"}),
		CollectorLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "latency_seconds",
			Help:      "Collector call latency including retries",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"collector"}),

		TokensScored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "tokens_scored_total",
			Help:      "Scored tokens by resulting risk level",
		}, []string{"risk_level"}),
		ScoresAwarded: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "score",
			Help:      "Distribution of awarded composite scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		TokensTracked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "tokens_tracked_total",
			Help:      "Tokens seeded into the tracked registry",
		}),

		MonitorRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "runs_total",
			Help:      "Completed monitor passes",
		}),
		MonitorDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "run_duration_seconds",
			Help:      "Duration of one monitor pass",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		TokensChecked: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "tokens_checked_total",
			Help:      "Tokens evaluated by resulting status",
		}, []string{"status"}),
		CheckFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "check_failures_total",
			Help:      "Per-token evaluations that failed and were skipped",
		}),

		IncidentsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "incident",
			Name:      "detected_total",
			Help:      "Rug incidents by type and severity",
		}, []string{"rug_type", "severity"}),
		AlertsPosted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "incident",
			Name:      "alerts_posted_total",
			Help:      "Alerts actually delivered to the publisher",
		}),
		AlertFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "incident",
			Name:      "alert_failures_total",
			Help:      "Publish attempts that failed and left the latch unset",
		}),

		TrackedByStatus: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "tracked_tokens",
			Help:      "Tracked tokens per lifecycle status",
		}, []string{"status"}),

		MentionsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "mentions_ingested_total",
			Help:      "Social mentions consumed from the feed",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// CollectorResult implements the signal gatherer's observer hook.
func (m *Metrics) CollectorResult(name string, ok bool, elapsed time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.CollectorCalls.WithLabelValues(name, outcome).Inc()
	m.CollectorLatency.WithLabelValues(name).Observe(elapsed.Seconds())
}

// TokenChecked implements the monitor's observer hook.
func (m *Metrics) TokenChecked(status domain.TokenStatus) {
	m.TokensChecked.WithLabelValues(string(status)).Inc()
}

// IncidentDetected implements the monitor's observer hook.
func (m *Metrics) IncidentDetected(rugType domain.RugType, severity domain.Severity) {
	m.IncidentsDetected.WithLabelValues(string(rugType), string(severity)).Inc()
}

// RunCompleted implements the monitor's observer hook.
func (m *Metrics) RunCompleted(checked, failed int, elapsed time.Duration) {
	m.MonitorRuns.Inc()
	m.MonitorDuration.Observe(elapsed.Seconds())
	m.CheckFailures.Add(float64(failed))
}

// RecordScore records one composite scoring outcome.
func (m *Metrics) RecordScore(score int, riskLevel string) {
	m.TokensScored.WithLabelValues(riskLevel).Inc()
	m.ScoresAwarded.Observe(float64(score))
}

// UpdateStatusGauges refreshes the per-status registry gauges. Statuses
// missing from counts are reset to zero.
func (m *Metrics) UpdateStatusGauges(counts map[domain.TokenStatus]int) {
	for _, status := range []domain.TokenStatus{
		domain.StatusActive, domain.StatusSuspicious, domain.StatusRugged, domain.StatusDelisted,
	} {
		m.TrackedByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
