package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ProviderRequests   *prometheus.CounterVec
	ProviderRetries    *prometheus.CounterVec
	RequestSeconds     *prometheus.HistogramVec
	ResolutionSeconds  *prometheus.HistogramVec
	SkippedItems       *prometheus.CounterVec
	ResolutionsRunning prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		ProviderRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geocoding_provider_requests_total",
			Help: "Total number of outbound geocoding provider requests by outcome.",
		}, []string{"provider", "outcome"}),
		ProviderRetries: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geocoding_provider_retries_total",
			Help: "Total number of retried provider requests.",
		}, []string{"provider", "reason"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geocoding_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ResolutionSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geocoding_resolution_duration_seconds",
			Help:    "Duration of a whole county or town resolution request.",
			Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90, 120},
		}, []string{"operation"}),
		SkippedItems: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geocoding_skipped_items_total",
			Help: "Counties or query variants omitted after provider failures.",
		}, []string{"operation"}),
		ResolutionsRunning: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "geocoding_resolutions_running",
			Help: "Current number of resolution requests in progress.",
		}),
	}
}
