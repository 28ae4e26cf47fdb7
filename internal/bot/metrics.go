package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	UpdatesProcessed     prometheus.Counter
	UpdateProcessingTime prometheus.Histogram
	LookupsTotal         *prometheus.CounterVec
	NotifyChanges        *prometheus.CounterVec
	ErrorsTotal          prometheus.Counter
}

// NewMetrics создает метрики и регистрирует их в reg (nil означает регистр по умолчанию)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		UpdatesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_updates_processed_total",
			Help: "Total number of processed updates",
		}),

		UpdateProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),

		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_prayer_lookups_total",
			Help: "Prayer-times lookups requested from chat, by city and outcome",
		}, []string{"city", "outcome"}),

		NotifyChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_daily_notify_changes_total",
			Help: "Daily notification opt-in/opt-out choices",
		}, []string{"choice"}),

		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Total number of handler errors and recovered panics",
		}),
	}
}
