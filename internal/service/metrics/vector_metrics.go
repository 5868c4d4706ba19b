package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	VectorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "signalforge",
			Subsystem: "vector",
			Name:      "latency_seconds",
			Help:      "Latency of vector service endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	VectorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signalforge",
			Subsystem: "vector",
			Name:      "errors_total",
			Help:      "Errors by vector service endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(VectorLatency, VectorErrors)
	})
}
