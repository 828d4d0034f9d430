package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all domain-specific metrics for the agent.
type Registry struct {
	// Cycle metrics
	CyclesTotal   prometheus.Counter
	CycleFailures prometheus.Counter
	CycleDuration prometheus.Histogram

	// Collection metrics
	EventsCollected *prometheus.CounterVec

	// Risk metrics
	RiskLevelTotal *prometheus.CounterVec

	// Storage and uplink metrics
	StoreErrors    prometheus.Counter
	UplinkFailures prometheus.Counter
}

// NewRegistry creates the agent metrics, registered against reg. Pass
// prometheus.DefaultRegisterer in the binary and a fresh registry in tests.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dea",
			Name:      "cycles_total",
			Help:      "Total number of detection cycles run",
		}),
		CycleFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dea",
			Name:      "cycle_failures_total",
			Help:      "Total number of detection cycles that ended in error",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dea",
			Name:      "cycle_duration_seconds",
			Help:      "Detection cycle duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		}),
		EventsCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dea",
			Name:      "events_collected_total",
			Help:      "Total number of telemetry events collected",
		}, []string{"collector"}),
		RiskLevelTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dea",
			Name:      "risk_level_total",
			Help:      "Cycle risk classifications by level",
		}, []string{"level"}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dea",
			Name:      "store_errors_total",
			Help:      "Total number of event persistence failures",
		}),
		UplinkFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dea",
			Name:      "uplink_failures_total",
			Help:      "Total number of failed uplink reports",
		}),
	}
}
