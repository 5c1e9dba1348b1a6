package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, queuePendingDepth) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tagging_jobs_processed_total",
		Help: "Total number of queue jobs processed, labeled by outcome.",
	},
	[]string{"outcome"}, // 'succeeded', 'retried', 'failed'
)

var queuePendingDepth = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "tagging_queue_pending",
		Help: "Number of pending jobs in the processing queue.",
	},
)

func IncJob(outcome string) {
	jobsProcessedTotal.WithLabelValues(norm(outcome)).Inc()
}

func SetQueueDepth(n int) {
	queuePendingDepth.Set(float64(n))
}
