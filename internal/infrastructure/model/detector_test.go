package model

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeArtifact(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func TestLoad_MissingArtifactIsNoop(t *testing.T) {
	d := Load(filepath.Join(t.TempDir(), "absent.onnx"), 12, testLogger())

	assert.False(t, d.Active())
	assert.Zero(t, d.Predict([]float64{1, 1, 1}))
	assert.Zero(t, d.Predict(nil))
}

func TestLoad_MalformedArtifactIsNoop(t *testing.T) {
	path := writeArtifact(t, "\x00\x01 not a weights file")

	d := Load(path, 12, testLogger())
	assert.False(t, d.Active())
	assert.Zero(t, d.Predict([]float64{0.9, 0.9}))
}

func TestLoad_EmptyWeightsIsNoop(t *testing.T) {
	path := writeArtifact(t, `{"weights": [], "bias": 0.3}`)

	d := Load(path, 12, testLogger())
	assert.False(t, d.Active())
}

func TestPredict_LinearSigmoid(t *testing.T) {
	path := writeArtifact(t, `{"weights": [1.0, 2.0], "bias": -0.5}`)

	d := Load(path, 2, testLogger())
	require.True(t, d.Active())

	got := d.Predict([]float64{0.25, 0.5})
	assert.InDelta(t, sigmoid(0.25+1.0-0.5), got, 1e-12)
}

func TestPredict_CapsAtFeatureDim(t *testing.T) {
	path := writeArtifact(t, `{"weights": [1.0, 1.0, 1.0], "bias": 0}`)

	d := Load(path, 2, testLogger())

	withThird := d.Predict([]float64{0.5, 0.5, 100.0})
	assert.InDelta(t, sigmoid(1.0), withThird, 1e-12, "values beyond feature_dim are ignored")
}

func TestPredict_ShortVector(t *testing.T) {
	path := writeArtifact(t, `{"weights": [1.0, 1.0, 1.0], "bias": 0}`)

	d := Load(path, 3, testLogger())
	assert.InDelta(t, sigmoid(0.5), d.Predict([]float64{0.5}), 1e-12)
}

func TestPredict_StaysInUnitInterval(t *testing.T) {
	path := writeArtifact(t, `{"weights": [1000.0], "bias": 500.0}`)

	d := Load(path, 1, testLogger())

	high := d.Predict([]float64{1.0})
	assert.LessOrEqual(t, high, 1.0)
	assert.GreaterOrEqual(t, high, 0.0)

	low := d.Predict([]float64{-10.0})
	assert.LessOrEqual(t, low, 1.0)
	assert.GreaterOrEqual(t, low, 0.0)
}
