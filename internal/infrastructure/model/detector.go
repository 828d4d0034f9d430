package model

import (
	"encoding/json"
	"log/slog"
	"math"
	"os"
)

// artifact is the on-disk model: linear weights plus bias, scored through a
// sigmoid. Artifacts are produced by the fleet training pipeline.
type artifact struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Detector scores feature vectors for anomaly likelihood. A detector without
// a usable artifact runs in no-op mode and scores everything 0.0; Predict
// never fails visibly.
type Detector struct {
	weights []float64
	bias    float64
	dim     int
	active  bool
}

// Load reads the model artifact at path. A missing or unreadable artifact is
// not an error: the detector degrades to no-op mode with a warning, keeping
// the agent collecting and persisting.
func Load(path string, featureDim int, logger *slog.Logger) *Detector {
	detector := &Detector{dim: featureDim}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("model artifact not found; inference disabled",
			slog.String("path", path))
		return detector
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil || len(art.Weights) == 0 {
		logger.Warn("model artifact unreadable; inference disabled",
			slog.String("path", path))
		return detector
	}

	detector.weights = art.Weights
	detector.bias = art.Bias
	detector.active = true
	logger.Info("model loaded",
		slog.String("path", path),
		slog.Int("weights", len(art.Weights)),
		slog.Int("feature_dim", featureDim))
	return detector
}

// Active reports whether a real artifact is loaded.
func (d *Detector) Active() bool {
	return d.active
}

// Predict returns an anomaly score in [0, 1]. No-op detectors return 0.0.
// At most feature_dim values are considered.
func (d *Detector) Predict(values []float64) float64 {
	if !d.active {
		return 0.0
	}

	n := d.dim
	if len(values) < n {
		n = len(values)
	}
	if len(d.weights) < n {
		n = len(d.weights)
	}

	sum := d.bias
	for i := 0; i < n; i++ {
		sum += d.weights[i] * values[i]
	}

	score := 1.0 / (1.0 + math.Exp(-sum))
	return math.Max(0.0, math.Min(score, 1.0))
}
