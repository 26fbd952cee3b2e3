package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for monitoring the settlement engine
var (
	SettlementsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settlements_created_total",
			Help: "Total number of settlements created for paid orders",
		},
	)

	DuplicateTriggersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settlement_duplicate_triggers_total",
			Help: "Total number of paid-order events that already had a settlement",
		},
	)

	// A paid order without a settlement is a revenue-tracking defect; alert on this.
	CreationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settlement_creation_failures_total",
			Help: "Total number of paid-order events that failed to create a settlement",
		},
	)

	StatusTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_status_transitions_total",
			Help: "Total number of manual settlement status transitions",
		},
		[]string{"status"},
	)

	RPCDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpc_duration_seconds",
			Help:    "Duration of RPC calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"procedure", "code"},
	)
)

// Register registers all Prometheus metrics with reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(SettlementsCreatedTotal)
	reg.MustRegister(DuplicateTriggersTotal)
	reg.MustRegister(CreationFailuresTotal)
	reg.MustRegister(StatusTransitionsTotal)
	reg.MustRegister(RPCDuration)
}
