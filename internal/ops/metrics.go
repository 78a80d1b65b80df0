package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll cycle and publish metrics, exposed on the API server's /metrics.
var (
	PollCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rapbattle_poll_cycles_total",
		Help: "Aggregation cycles per view and outcome.",
	}, []string{"view", "outcome"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rapbattle_query_duration_seconds",
		Help:    "Wall time of one view's relay fetch and aggregation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"view"})

	PublishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rapbattle_publish_total",
		Help: "Published events per kind and outcome.",
	}, []string{"kind", "outcome"})
)

// Outcome labels for PollCycles and PublishTotal.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// OutcomeOf maps an error to its metric label.
func OutcomeOf(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
