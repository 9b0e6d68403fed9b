package metrics

import (
	"errors"
	"time"

	"recipe-assistant/internal/pkg/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recipe_assistant"

var (
	// HTTP 指標
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 業務指標
	RecognitionResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_results_total",
			Help:      "Per-image recognition outcomes",
		},
		[]string{"status"},
	)
	GenerationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_outcomes_total",
			Help:      "Recipe generation outcomes",
		},
		[]string{"outcome"},
	)
	AICacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_cache_lookups_total",
			Help:      "AI response cache lookups by result",
		},
		[]string{"endpoint", "result"},
	)
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of chat completion calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 90},
		},
		[]string{"endpoint", "result"},
	)
)

// ObserveUpstream 記錄一次上游呼叫
func ObserveUpstream(endpoint string, d time.Duration, err error) {
	UpstreamDuration.WithLabelValues(endpoint, upstreamResult(err)).Observe(d.Seconds())
}

func upstreamResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case common.IsTimeout(err):
		return "timeout"
	case errors.Is(err, common.ErrQueueFull):
		return "rejected"
	default:
		return "error"
	}
}
