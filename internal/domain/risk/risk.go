package risk

import "fmt"

// Level is the categorical outcome of threshold comparison. Levels are
// ordered: Low < Medium < High.
type Level int

const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// MarshalText renders the level lowercase, matching the uplink wire format.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Thresholds are inclusive lower bounds for Medium and High classification.
type Thresholds struct {
	High   float64 `json:"high_threshold" koanf:"high_threshold" validate:"gte=0,lte=1"`
	Medium float64 `json:"medium_threshold" koanf:"medium_threshold" validate:"gte=0,lte=1,ltefield=High"`
}

// DefaultThresholds returns the stock agent thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.8, Medium: 0.5}
}

// LevelFromScore classifies a raw anomaly score. Bounds are inclusive:
// score >= High is high risk, else score >= Medium is medium, else low.
func LevelFromScore(score float64, t Thresholds) Level {
	switch {
	case score >= t.High:
		return LevelHigh
	case score >= t.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Result is the scored outcome of one detection cycle.
type Result struct {
	EventID string  `json:"event_id"`
	Score   float64 `json:"score"`
	Level   Level   `json:"level"`
	TS      int64   `json:"ts"`
}

// Engine turns raw anomaly scores into Results. It holds only immutable
// thresholds and is safe for concurrent use without locking.
type Engine struct {
	thresholds Thresholds
}

func NewEngine(t Thresholds) *Engine {
	return &Engine{thresholds: t}
}

// Score classifies a raw score against the engine thresholds. Identical
// inputs always yield identical results.
func (e *Engine) Score(eventID string, raw float64, ts int64) Result {
	return Result{
		EventID: eventID,
		Score:   raw,
		Level:   LevelFromScore(raw, e.thresholds),
		TS:      ts,
	}
}

// Thresholds returns the engine's immutable configuration.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}
