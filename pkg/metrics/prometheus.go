package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analysesTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	confidence    *prometheus.GaugeVec
	batchSize     prometheus.Gauge
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		analysesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalforge_analyses_total",
				Help: "Total number of token analyses completed",
			},
			[]string{"token"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalforge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		confidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalforge_confidence_score",
				Help: "Last confidence score for a token",
			},
			[]string{"token"},
		),
		batchSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalforge_batch_size",
				Help: "Current adaptive batch size of the analysis runner",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalforge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis records one completed analysis and its confidence score.
func (r *Recorder) RecordAnalysis(token string, score float64) {
	r.analysesTotal.WithLabelValues(token).Inc()
	r.confidence.WithLabelValues(token).Set(score)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordBatchSize records the runner's current batch size.
func (r *Recorder) RecordBatchSize(size int) {
	r.batchSize.Set(float64(size))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
