package notifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigtide/internal/types"
)

var testTime = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func sampleSignal() *types.Signal {
	return &types.Signal{
		Pair:     "BTCUSDT",
		Side:     types.SideLong,
		Leverage: 20,
		Entry:    types.EntryZone{Min: 98, Max: 102},
		Targets: []types.TargetLevel{
			{Price: 102.5, Percent: 2.5},
			{Price: 105.2, Percent: 5.2},
		},
		StopLoss:   95,
		Confidence: 78,
		Indicators: map[string]float64{"rsi": 28.4, "macd": -12.1},
		Patterns:   []string{"double_bottom"},
		Status:     types.SignalStatusActive,
		CreatedAt:  testTime,
	}
}

func samplePosition() *types.Position {
	return &types.Position{
		ID:         7,
		Pair:       "BTCUSDT",
		Side:       types.SideLong,
		Leverage:   20,
		EntryPrice: 100,
		Targets: []types.PositionTarget{
			{Price: 102.5, Percent: 2.5},
			{Price: 105.2, Percent: 5.2},
		},
		TargetsHit: []int{},
		StopLoss:   95,
		Status:     types.PositionStatusOpen,
		OpenedAt:   testTime,
	}
}

func TestNewSignalMessage(t *testing.T) {
	f := NewFormatter(TemplateSet{})
	text := f.NewSignal(sampleSignal(), testTime)

	assert.Contains(t, text, "NEW SIGNAL DETECTED")
	assert.Contains(t, text, "#BTCUSDT")
	assert.Contains(t, text, "Scalp LONG")
	assert.Contains(t, text, "Cross 20x")
	assert.Contains(t, text, "$98.00 - $102.00")
	assert.Contains(t, text, "1) 🎯 $102.50 (2.5%)")
	assert.Contains(t, text, "Stop Loss: $95.00")
	assert.Contains(t, text, "Confidence: 78%")
	assert.Contains(t, text, "RSI: 28.40")
	assert.Contains(t, text, "double_bottom")
	assert.Contains(t, text, "2026-09-01 12:00:00 UTC")
}

func TestFormatterIsPure(t *testing.T) {
	f := NewFormatter(TemplateSet{})
	sig := sampleSignal()
	assert.Equal(t, f.NewSignal(sig, testTime), f.NewSignal(sig, testTime))

	pos := samplePosition()
	assert.Equal(t, f.TargetHit(pos, 1, 103, testTime), f.TargetHit(pos, 1, 103, testTime))
}

func TestTargetHitMessage(t *testing.T) {
	f := NewFormatter(TemplateSet{})
	pos := samplePosition()
	pos.Targets[0].Hit = true
	pos.TargetsHit = []int{1}
	pos.RecomputeClosedPercent()

	text := f.TargetHit(pos, 1, 103, testTime)
	assert.Contains(t, text, "TARGET HIT #1")
	assert.Contains(t, text, "Target: $102.50 (2.5%)")
	assert.Contains(t, text, "Current: $103.00")
	assert.Contains(t, text, "Close 50% here")
	assert.Contains(t, text, "Remaining: 50%")
}

func TestStopLossMessage(t *testing.T) {
	f := NewFormatter(TemplateSet{})
	text := f.StopLoss(samplePosition(), 94, testTime)
	assert.Contains(t, text, "STOP LOSS HIT")
	assert.Contains(t, text, "CLOSE ENTIRE POSITION IMMEDIATELY")
	assert.Contains(t, text, "Loss: -6.00%")
}

func TestReversalMessage(t *testing.T) {
	f := NewFormatter(TemplateSet{})
	pos := samplePosition()
	pos.Targets[0].Hit = true
	pos.TargetsHit = []int{1}
	pos.RecomputeClosedPercent()

	text := f.Reversal(pos, 61.2, 103, testTime)
	assert.Contains(t, text, "TREND REVERSAL DETECTED")
	assert.Contains(t, text, "RSI: 61.20")
	assert.Contains(t, text, "Close remaining 50% of position")
	assert.Contains(t, text, "1 targets still open")
}

func TestPositionClosedMessage(t *testing.T) {
	f := NewFormatter(TemplateSet{})
	pos := samplePosition()
	pos.Status = types.PositionStatusClosed
	pos.ExitPrice = 104
	pos.ExitReason = types.ExitReasonManual
	pos.Profit = 4
	pos.TargetsHit = []int{1}

	text := f.PositionClosed(pos, testTime)
	assert.Contains(t, text, "POSITION CLOSED")
	assert.Contains(t, text, "Result: +4.00%")
	assert.Contains(t, text, "Targets Hit: 1/2")
	assert.Contains(t, text, "Reason: manual")
}

func TestTemplateOverrides(t *testing.T) {
	set := TemplateSet{
		StopLoss: EventTemplate{Title: "RISK EXIT", Footer: "act now"},
	}
	f := NewFormatter(set)
	text := f.StopLoss(samplePosition(), 94, testTime)
	assert.Contains(t, text, "RISK EXIT")
	assert.Contains(t, text, "act now")
	assert.NotContains(t, text, "STOP LOSS HIT")
}

func TestLoadTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stop_loss:\n  title: RISK EXIT\n"), 0o644))

	set, err := LoadTemplates(path)
	require.NoError(t, err)
	assert.Equal(t, "RISK EXIT", set.StopLoss.Title)
	assert.Empty(t, set.NewSignal.Title)
}

func TestLoadTemplatesRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stop_losss:\n  title: typo\n"), 0o644))
	_, err := LoadTemplates(path)
	assert.Error(t, err)
}

func TestLoadTemplatesEmptyPath(t *testing.T) {
	set, err := LoadTemplates("")
	require.NoError(t, err)
	assert.Equal(t, TemplateSet{}, set)
}

func TestRenderMarkdownSanitizesFences(t *testing.T) {
	msg := StructuredMessage{
		Title:    "TEST",
		Sections: []MessageSection{{Lines: []string{"code ``` injection"}}},
	}
	text := msg.RenderMarkdown()
	assert.NotContains(t, strings.TrimPrefix(text, "TEST"), "``` injection")
	assert.Contains(t, text, "''' injection")
}

func TestRenderMarkdownCapsLength(t *testing.T) {
	long := strings.Repeat("x", 5000)
	msg := StructuredMessage{Title: "BIG", Sections: []MessageSection{{Lines: []string{long}}}}
	text := msg.RenderMarkdown()
	assert.LessOrEqual(t, len(text), maxStructuredMessageLen+3)
	assert.True(t, strings.HasSuffix(text, "..."))
}
