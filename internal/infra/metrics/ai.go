package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiTokensTotal,
		aiCallsLatencyMs,
		aiRateLimited,
	)
}

var (
	aiTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Sum of total tokens consumed per provider.",
		},
		[]string{"provider"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI vision call latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		},
		[]string{"provider", "success"},
	)

	aiRateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_rate_limited_total",
			Help: "Vendor throttling signals per provider.",
		},
		[]string{"provider"},
	)
)

func ObserveAnalysis(provider string, tokens int, latencyMs int, success bool) {
	aiTokensTotal.WithLabelValues(norm(provider)).Add(float64(tokens))
	aiCallsLatencyMs.WithLabelValues(norm(provider), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncRateLimited(provider string) {
	aiRateLimited.WithLabelValues(norm(provider)).Inc()
}
