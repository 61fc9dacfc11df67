package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Latency buckets in milliseconds; the captcha call dominates the tail.
	latencyBuckets = []float64{
		5, 10, 25,
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000,
	}

	RequestTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "formshield_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	RequestLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formshield_latency_ms",
			Help:    "Request latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"method", "path"},
	)

	SubmissionTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "formshield_submissions_total",
			Help: "Contact form submissions by validation outcome",
		},
		[]string{"outcome"},
	)

	CaptchaVerifyLatency = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "formshield_captcha_verify_latency_ms",
			Help:    "Captcha provider verification latency in milliseconds",
			Buckets: latencyBuckets,
		},
	)
)

// Handler serves the metrics registry; mounted on the dedicated metrics port.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
