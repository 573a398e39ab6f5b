package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chublink_searches_total",
		Help: "Total number of search requests sent to CHub",
	}, []string{"outcome"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chublink_search_duration_seconds",
		Help:    "Duration of the full search pipeline (incl. avatar fetches)",
		Buckets: prometheus.DefBuckets,
	})

	AvatarFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chublink_avatar_fetches_total",
		Help: "Total number of avatar fetch attempts",
	}, []string{"outcome"})

	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chublink_imports_total",
		Help: "Total number of character imports pushed to the host",
	}, []string{"outcome"})
)

// Outcome label values shared by the counters above.
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeTransport = "transport_error"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
	OutcomeStale     = "stale"
	OutcomeSkipped   = "skipped"
)
