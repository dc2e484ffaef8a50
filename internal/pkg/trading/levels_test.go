package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelativeLevel(t *testing.T) {
	tests := []struct {
		name  string
		entry float64
		pct   float64
		side  string
		want  float64
	}{
		{"long up 2.5", 100, 2.5, "LONG", 102.5},
		{"long up 22.1", 100, 22.1, "LONG", 122.1},
		{"short down 2.5", 100, 2.5, "SHORT", 97.5},
		{"short down 12.6", 200, 12.6, "SHORT", 174.8},
		{"lowercase side", 100, 5.2, "short", 94.8},
		{"zero entry", 0, 2.5, "LONG", 0},
		{"negative entry", -5, 2.5, "LONG", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RelativeLevel(tt.entry, tt.pct, tt.side), 1e-9)
		})
	}
}

func TestRelativeLevelNoFloatDrift(t *testing.T) {
	// 0.1*3 style drift must not leak into ladder prices.
	assert.Equal(t, 102.5, RelativeLevel(100, 2.5, "LONG"))
	assert.Equal(t, 112.6, RelativeLevel(100, 12.6, "LONG"))
	assert.Equal(t, 87.4, RelativeLevel(100, 12.6, "SHORT"))
}

func TestAdverseLevel(t *testing.T) {
	assert.InDelta(t, 95, AdverseLevel(100, 5, "LONG"), 1e-9)
	assert.InDelta(t, 105, AdverseLevel(100, 5, "SHORT"), 1e-9)
}

func TestTargetReached(t *testing.T) {
	assert.True(t, TargetReached("LONG", 103, 102.5))
	assert.True(t, TargetReached("LONG", 102.5, 102.5))
	assert.False(t, TargetReached("LONG", 102.4, 102.5))

	assert.True(t, TargetReached("SHORT", 97, 97.5))
	assert.True(t, TargetReached("SHORT", 97.5, 97.5))
	assert.False(t, TargetReached("SHORT", 98, 97.5))

	assert.False(t, TargetReached("LONG", 0, 102.5))
	assert.False(t, TargetReached("LONG", 103, 0))
}

func TestStopBreached(t *testing.T) {
	assert.True(t, StopBreached("LONG", 94, 95))
	assert.True(t, StopBreached("LONG", 95, 95))
	assert.False(t, StopBreached("LONG", 96, 95))

	assert.True(t, StopBreached("SHORT", 106, 105))
	assert.True(t, StopBreached("SHORT", 105, 105))
	assert.False(t, StopBreached("SHORT", 104, 105))

	assert.False(t, StopBreached("LONG", 0, 95))
	assert.False(t, StopBreached("LONG", 94, 0))
}

func TestProfitPercent(t *testing.T) {
	assert.InDelta(t, 4, ProfitPercent("LONG", 100, 104), 1e-9)
	assert.InDelta(t, -10, ProfitPercent("LONG", 100, 90), 1e-9)
	assert.InDelta(t, -6, ProfitPercent("SHORT", 100, 106), 1e-9)
	assert.InDelta(t, 6, ProfitPercent("SHORT", 100, 94), 1e-9)
	assert.Zero(t, ProfitPercent("LONG", 0, 104))
}
