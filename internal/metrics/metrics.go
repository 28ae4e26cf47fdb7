package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "namozvaqti"

// Delivery outcomes of the daily broadcast.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	broadcastDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_deliveries_total",
			Help:      "Daily broadcast messages by outcome.",
		},
		[]string{"outcome"},
	)

	broadcastCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_cycles_total",
			Help:      "Daily broadcast cycles by outcome.",
		},
		[]string{"outcome"},
	)

	broadcastDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "broadcast_cycle_duration_seconds",
			Help:      "Time spent delivering one broadcast cycle.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, broadcastDeliveries, broadcastCycles, broadcastDuration)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncDelivery(outcome string) {
	broadcastDeliveries.WithLabelValues(outcome).Inc()
}

// ObserveCycle records a finished broadcast cycle; outcome is "completed" or "skipped".
func ObserveCycle(outcome string, d time.Duration) {
	broadcastCycles.WithLabelValues(outcome).Inc()
	broadcastDuration.Observe(d.Seconds())
}
