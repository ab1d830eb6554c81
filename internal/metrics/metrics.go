// Package metrics registers the process-wide Prometheus collectors.
// They are exposed on /metrics by internal/web.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// TogglesTotal counts inbound toggle signals by direction and how
	// they were resolved (handled, filtered, miss, error).
	TogglesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memocal",
		Name:      "toggles_total",
		Help:      "Inbound confirm/unconfirm toggle signals",
	}, []string{"direction", "outcome"})

	// ParsedLinesTotal counts lines seen by the parser, split into event
	// lines and misses.
	ParsedLinesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memocal",
		Name:      "parsed_lines_total",
		Help:      "Memo lines parsed, by result",
	}, []string{"result"})

	// ArtifactActionsTotal counts sink mutations by action kind
	// (create, edit, recreate, withdraw).
	ArtifactActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memocal",
		Name:      "artifact_actions_total",
		Help:      "Reply artifact mutations performed by the reconciler",
	}, []string{"action"})

	// ArtifactFailuresTotal counts failed sink calls.
	ArtifactFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memocal",
		Name:      "artifact_failures_total",
		Help:      "Failed reply artifact mutations",
	}, []string{"action"})

	// StoreWriteFailuresTotal counts state writes that could not be
	// persisted; these surface as hard toggle failures.
	StoreWriteFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "memocal",
		Name:      "store_write_failures_total",
		Help:      "State store writes that failed",
	})

	// ReconcileDuration tracks end-to-end toggle reconciliation time.
	ReconcileDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "memocal",
		Name:      "reconcile_duration_seconds",
		Help:      "Time spent reconciling a single toggle",
	})
)

func init() {
	prometheus.MustRegister(
		TogglesTotal,
		ParsedLinesTotal,
		ArtifactActionsTotal,
		ArtifactFailuresTotal,
		StoreWriteFailuresTotal,
		ReconcileDuration,
	)
}
