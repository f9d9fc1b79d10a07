package audit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	auditRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siteaudit",
		Subsystem: "audit",
		Name:      "runs_total",
		Help:      "Total number of audit runs broken down by outcome.",
	}, []string{"result"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "siteaudit",
		Subsystem: "audit",
		Name:      "upstream_duration_seconds",
		Help:      "Latency of upstream data source calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
	}, []string{"source", "outcome"})

	suggestionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "siteaudit",
		Subsystem: "audit",
		Name:      "suggestion_failures_total",
		Help:      "Suggestion calls that failed and were replaced by an empty list.",
	})

	reportScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "siteaudit",
		Subsystem: "audit",
		Name:      "report_score",
		Help:      "Distribution of composite scores of stored reports.",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})
)

const (
	resultDone            = "done"
	resultInvalidInput    = "invalid_input"
	resultUpstreamFailure = "upstream_failure"
	resultStoreFailure    = "store_failure"
)

func recordRun(result string) {
	auditRuns.WithLabelValues(result).Inc()
}

func observeUpstream(source string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamDuration.WithLabelValues(source, outcome).Observe(time.Since(started).Seconds())
}
