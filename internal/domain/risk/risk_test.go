package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromScore_Boundaries(t *testing.T) {
	thresholds := Thresholds{High: 0.8, Medium: 0.5}

	tests := []struct {
		name  string
		score float64
		want  Level
	}{
		{name: "zero", score: 0.0, want: LevelLow},
		{name: "just below medium", score: 0.49, want: LevelLow},
		{name: "medium bound inclusive", score: 0.5, want: LevelMedium},
		{name: "just below high", score: 0.79, want: LevelMedium},
		{name: "high bound inclusive", score: 0.80, want: LevelHigh},
		{name: "maximum", score: 1.0, want: LevelHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromScore(tt.score, thresholds))
		})
	}
}

func TestLevelFromScore_Monotonic(t *testing.T) {
	thresholds := DefaultThresholds()

	prev := LevelLow
	for score := 0.0; score <= 1.0; score += 0.01 {
		level := LevelFromScore(score, thresholds)
		assert.GreaterOrEqual(t, level, prev, "level regressed at score %.2f", score)
		prev = level
	}
}

func TestEngine_Score(t *testing.T) {
	engine := NewEngine(DefaultThresholds())

	tests := []struct {
		eventID string
		score   float64
		want    Level
	}{
		{eventID: "e1", score: 0.3, want: LevelLow},
		{eventID: "e2", score: 0.6, want: LevelMedium},
		{eventID: "e3", score: 0.9, want: LevelHigh},
	}

	for _, tt := range tests {
		result := engine.Score(tt.eventID, tt.score, 1700000000000)
		assert.Equal(t, tt.eventID, result.EventID)
		assert.Equal(t, tt.score, result.Score)
		assert.Equal(t, tt.want, result.Level)
		assert.Equal(t, int64(1700000000000), result.TS)
	}
}

func TestEngine_DeterministicForSameInput(t *testing.T) {
	engine := NewEngine(DefaultThresholds())

	first := engine.Score("e1", 0.75, 42)
	second := engine.Score("e1", 0.75, 42)
	assert.Equal(t, first, second)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "low", LevelLow.String())
	assert.Equal(t, "medium", LevelMedium.String())
	assert.Equal(t, "high", LevelHigh.String())
}
