// Package metrics provides Prometheus-backed observability for the
// evaluation workflows.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/argus-eval/argus/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It tracks LLM spend, workflow latency, and evidence search activity for
// the evaluation engine.
type PrometheusMetrics struct {
	tokensUsed       *prometheus.CounterVec
	requestCounter   *prometheus.CounterVec
	workflowLatency  *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers all
// metrics with the given registerer. Passing a private registry keeps tests
// isolated from the global default.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		tokensUsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens consumed across all LLM interactions.",
			},
			[]string{"provider", "model", "token_type"},
		),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM requests by provider and outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		workflowLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evaluation_duration_seconds",
				Help:    "Execution time of evaluation workflows and stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "workflow"},
		),
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_operations_total",
				Help: "Total number of workflow operations by outcome.",
			},
			[]string{"operation", "status", "workflow"},
		),
		systemGauges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "evaluation_state",
				Help: "Current state values for in-flight evaluations.",
			},
			[]string{"metric", "workflow"},
		),
	}

	reg.MustRegister(
		pm.tokensUsed,
		pm.requestCounter,
		pm.workflowLatency,
		pm.operationCounter,
		pm.systemGauges,
	)
	return pm
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.workflowLatency.WithLabelValues(operation, workflowLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "llm_tokens_total":
		pm.tokensUsed.WithLabelValues(
			labels["provider"],
			labels["model"],
			labels["token_type"],
		).Add(value)
	case "llm_requests_total":
		pm.requestCounter.WithLabelValues(
			labels["provider"],
			labels["model"],
			labels["status"],
		).Add(value)
	default:
		status, ok := labels["status"]
		if !ok {
			status = "success"
		}
		pm.operationCounter.WithLabelValues(metric, status, workflowLabel(labels)).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric, workflowLabel(labels)).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	pm.workflowLatency.WithLabelValues(metric, workflowLabel(labels)).Observe(value)
}

func workflowLabel(labels map[string]string) string {
	if wf, ok := labels["workflow"]; ok {
		return wf
	}
	return "unknown"
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
