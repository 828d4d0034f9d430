package pipeline

import (
	"context"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/event"
	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/risk"
)

// Collector produces point-in-time batches of telemetry events.
type Collector interface {
	// Name identifies the collector in logs and metrics.
	Name() string
	// Snapshot returns the events observed since the previous poll. A failed
	// snapshot is isolated by the orchestrator: the cycle proceeds with the
	// other collectors' events.
	Snapshot(ctx context.Context) ([]event.Event, error)
}

// Model scores an encoded feature vector for anomaly likelihood.
type Model interface {
	// Predict returns a score in [0, 1]. Implementations never fail visibly;
	// a detector without a usable artifact returns 0.0.
	Predict(values []float64) float64
}

// Store persists scored events.
type Store interface {
	// InsertEvent upserts one encrypted event row keyed by id.
	InsertEvent(id string, ts int64, kind string, payload []byte, riskScore *float64) error
}

// Uplink reports a completed cycle upstream.
type Uplink interface {
	// Report sends the cycle's events and risk result. Failures must never
	// block persistence or the next cycle.
	Report(ctx context.Context, platform string, events []event.Event, result risk.Result) error
}
