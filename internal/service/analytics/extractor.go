package analytics

import (
	"sync"
	"time"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/event"
)

// FeatureVector is a fixed-dimension numeric encoding of window statistics,
// tagged with the id of the last event folded in and its creation time in
// unix milliseconds.
type FeatureVector struct {
	Dim     int       `json:"dim"`
	Values  []float64 `json:"values"`
	EventID string    `json:"event_id"`
	TS      int64     `json:"ts"`
}

// Extractor owns a bounded FIFO window of events and derives feature vectors
// from it. The window is guarded by a single mutex; Push and Flush may be
// called from different goroutines. There is no snapshot isolation between
// concurrent pushes: the last writer's full-window recompute wins.
type Extractor struct {
	windowEvents int
	featureDim   int

	mu     sync.Mutex
	window []event.Event
}

// NewExtractor creates an extractor with the given window capacity and
// output dimensionality.
func NewExtractor(windowEvents, featureDim int) *Extractor {
	return &Extractor{
		windowEvents: windowEvents,
		featureDim:   featureDim,
	}
}

// Push appends events in arrival order, evicting from the front whenever the
// window exceeds capacity, then encodes one vector over the full current
// window contents. It returns zero or one vectors: none when the window is
// empty afterwards.
func (x *Extractor) Push(events []event.Event) []FeatureVector {
	x.mu.Lock()
	for _, e := range events {
		x.window = append(x.window, e)
		for len(x.window) > x.windowEvents {
			x.window = x.window[1:]
		}
	}
	snapshot := make([]event.Event, len(x.window))
	copy(snapshot, x.window)
	x.mu.Unlock()

	if len(snapshot) == 0 {
		return nil
	}

	stats := StatsFromEvents(snapshot)
	return []FeatureVector{{
		Dim:     x.featureDim,
		Values:  stats.Vector(x.featureDim),
		EventID: snapshot[len(snapshot)-1].ID,
		TS:      time.Now().UnixMilli(),
	}}
}

// Flush encodes the current window without mutating it. The second return is
// false when the window is empty.
func (x *Extractor) Flush() (FeatureVector, bool) {
	x.mu.Lock()
	snapshot := make([]event.Event, len(x.window))
	copy(snapshot, x.window)
	x.mu.Unlock()

	if len(snapshot) == 0 {
		return FeatureVector{}, false
	}

	stats := StatsFromEvents(snapshot)
	return FeatureVector{
		Dim:     x.featureDim,
		Values:  stats.Vector(x.featureDim),
		EventID: snapshot[len(snapshot)-1].ID,
		TS:      time.Now().UnixMilli(),
	}, true
}

// Len reports the current window length.
func (x *Extractor) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.window)
}
