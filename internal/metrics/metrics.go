package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the pipeline.
type Metrics struct {
	// Source adapters
	FetchTotal    *prometheus.CounterVec
	FetchEmpty    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	VideosFetched *prometheus.CounterVec

	// Persistence
	UpsertErrors prometheus.Counter

	// Delivery
	DeliveryRuns     prometheus.Counter
	DeliveryOutcomes *prometheus.CounterVec
	DeliveryDuration prometheus.Histogram
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		FetchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "viral_daily_source_fetch_total",
			Help: "Total number of source adapter fetches",
		}, []string{"platform"}),
		FetchEmpty: f.NewCounterVec(prometheus.CounterOpts{
			Name: "viral_daily_source_fetch_empty_total",
			Help: "Fetches that returned no videos (including failures and timeouts)",
		}, []string{"platform"}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "viral_daily_source_fetch_duration_seconds",
			Help:    "Duration of source adapter fetches",
			Buckets: prometheus.DefBuckets,
		}, []string{"platform"}),
		VideosFetched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "viral_daily_videos_fetched_total",
			Help: "Videos returned by source adapters",
		}, []string{"platform"}),
		UpsertErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "viral_daily_video_upsert_errors_total",
			Help: "Video upserts that failed",
		}),
		DeliveryRuns: f.NewCounter(prometheus.CounterOpts{
			Name: "viral_daily_delivery_runs_total",
			Help: "Daily delivery runs scheduled",
		}),
		DeliveryOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "viral_daily_delivery_outcomes_total",
			Help: "Per-subscriber delivery outcomes",
		}, []string{"status"}),
		DeliveryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "viral_daily_delivery_duration_seconds",
			Help:    "Duration of a single subscriber delivery",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// NewNop returns metrics registered on a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) RecordFetch(platform string, count int, d time.Duration) {
	m.FetchTotal.WithLabelValues(platform).Inc()
	m.FetchDuration.WithLabelValues(platform).Observe(d.Seconds())
	if count == 0 {
		m.FetchEmpty.WithLabelValues(platform).Inc()
		return
	}
	m.VideosFetched.WithLabelValues(platform).Add(float64(count))
}

func (m *Metrics) RecordDelivery(status string, d time.Duration) {
	m.DeliveryOutcomes.WithLabelValues(status).Inc()
	m.DeliveryDuration.Observe(d.Seconds())
}
