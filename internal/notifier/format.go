package notifier

import (
	"fmt"
	"strings"
	"time"

	"sigtide/internal/types"
)

// Formatter maps lifecycle events to display text. Stateless: the same inputs
// always produce the same output.
type Formatter struct {
	tpl TemplateSet
}

func NewFormatter(tpl TemplateSet) *Formatter {
	return &Formatter{tpl: tpl}
}

func sideIcon(side types.Side) string {
	if side == types.SideShort {
		return "🔴"
	}
	return "🟢"
}

// NewSignal renders the announcement for a freshly generated signal.
func (f *Formatter) NewSignal(sig *types.Signal, at time.Time) string {
	lines := []string{
		fmt.Sprintf("Pair: #%s", sig.Pair),
		fmt.Sprintf("Position: Scalp %s %s", sig.Side, sideIcon(sig.Side)),
		fmt.Sprintf("Leverage: Cross %dx", sig.Leverage),
		fmt.Sprintf("Entry Zone: $%.2f - $%.2f", sig.Entry.Min, sig.Entry.Max),
	}
	targetLines := make([]string, 0, len(sig.Targets))
	for i, t := range sig.Targets {
		targetLines = append(targetLines, fmt.Sprintf("%d) 🎯 $%.2f (%.1f%%)", i+1, t.Price, t.Percent))
	}
	extra := []string{
		fmt.Sprintf("Stop Loss: $%.2f", sig.StopLoss),
		fmt.Sprintf("Confidence: %.0f%%", sig.Confidence),
	}
	if rsi, ok := sig.Indicators["rsi"]; ok {
		extra = append(extra, fmt.Sprintf("RSI: %.2f", rsi))
	}
	if macd, ok := sig.Indicators["macd"]; ok {
		extra = append(extra, fmt.Sprintf("MACD: %.2f", macd))
	}
	if len(sig.Patterns) > 0 {
		extra = append(extra, "Patterns: "+strings.Join(sig.Patterns, ", "))
	}
	msg := StructuredMessage{
		Icon:  "🚀",
		Title: f.tpl.NewSignal.title("NEW SIGNAL DETECTED"),
		Sections: []MessageSection{
			{Lines: lines},
			{Title: "Targets", Lines: targetLines},
			{Title: "Risk", Lines: extra},
		},
		Footer:    f.tpl.NewSignal.footer("Manual execution required"),
		Timestamp: at,
	}
	return msg.RenderMarkdown()
}

// PositionOpened renders the confirmation for a newly opened position.
func (f *Formatter) PositionOpened(pos *types.Position, at time.Time) string {
	lines := []string{
		fmt.Sprintf("Pair: %s", pos.Pair),
		fmt.Sprintf("Type: %s %s", pos.Side, sideIcon(pos.Side)),
		fmt.Sprintf("Entry: $%.2f", pos.EntryPrice),
		fmt.Sprintf("Leverage: %dx", pos.Leverage),
	}
	targetLines := make([]string, 0, len(pos.Targets))
	for i, t := range pos.Targets {
		targetLines = append(targetLines, fmt.Sprintf("%d) $%.2f (%.1f%%)", i+1, t.Price, t.Percent))
	}
	msg := StructuredMessage{
		Icon:  "✅",
		Title: f.tpl.PositionOpened.title("POSITION OPENED"),
		Sections: []MessageSection{
			{Lines: lines},
			{Title: "Targets", Lines: targetLines},
			{Lines: []string{fmt.Sprintf("Stop Loss: $%.2f", pos.StopLoss)}},
		},
		Footer:    f.tpl.PositionOpened.footer(""),
		Timestamp: at,
	}
	return msg.RenderMarkdown()
}

// TargetHit renders a take-profit alert. index is 1-based ladder position.
func (f *Formatter) TargetHit(pos *types.Position, index int, currentPrice float64, at time.Time) string {
	var target types.PositionTarget
	if index >= 1 && index <= len(pos.Targets) {
		target = pos.Targets[index-1]
	}
	slice := 0.0
	if n := len(pos.Targets); n > 0 {
		slice = 100 / float64(n)
	}
	msg := StructuredMessage{
		Icon:  "🎯",
		Title: fmt.Sprintf("%s #%d", f.tpl.TargetHit.title("TARGET HIT"), index),
		Sections: []MessageSection{
			{Lines: []string{
				fmt.Sprintf("Pair: %s", pos.Pair),
				fmt.Sprintf("Target: $%.2f (%.1f%%)", target.Price, target.Percent),
				fmt.Sprintf("Current: $%.2f", currentPrice),
			}},
			{Lines: []string{
				fmt.Sprintf("Close %.0f%% here", slice),
				fmt.Sprintf("Remaining: %.0f%%", 100-pos.ClosedPercent),
			}},
		},
		Footer:    f.tpl.TargetHit.footer(""),
		Timestamp: at,
	}
	return msg.RenderMarkdown()
}

// StopLoss renders the stop-loss breach alert.
func (f *Formatter) StopLoss(pos *types.Position, currentPrice float64, at time.Time) string {
	msg := StructuredMessage{
		Icon:  "🚨",
		Title: f.tpl.StopLoss.title("STOP LOSS HIT"),
		Sections: []MessageSection{
			{Lines: []string{
				fmt.Sprintf("Pair: %s", pos.Pair),
				fmt.Sprintf("Entry: $%.2f", pos.EntryPrice),
				fmt.Sprintf("Stop Loss: $%.2f", pos.StopLoss),
				fmt.Sprintf("Current: $%.2f", currentPrice),
			}},
			{Lines: []string{
				"CLOSE ENTIRE POSITION IMMEDIATELY",
				fmt.Sprintf("Loss: %.2f%%", pos.ProfitPercent(currentPrice)),
			}},
		},
		Footer:    f.tpl.StopLoss.footer(""),
		Timestamp: at,
	}
	return msg.RenderMarkdown()
}

// Reversal renders the advisory that momentum is turning against the trade.
func (f *Formatter) Reversal(pos *types.Position, rsi, currentPrice float64, at time.Time) string {
	remainingTargets := 0
	for _, t := range pos.Targets {
		if !t.Hit {
			remainingTargets++
		}
	}
	msg := StructuredMessage{
		Icon:  "⚠️",
		Title: f.tpl.Reversal.title("TREND REVERSAL DETECTED"),
		Sections: []MessageSection{
			{Lines: []string{
				fmt.Sprintf("Pair: %s", pos.Pair),
				fmt.Sprintf("RSI: %.2f", rsi),
				fmt.Sprintf("Current Price: $%.2f", currentPrice),
			}},
			{Lines: []string{
				fmt.Sprintf("Close remaining %.0f%% of position", 100-pos.ClosedPercent),
				fmt.Sprintf("Reason: market reversing, %d targets still open", remainingTargets),
			}},
		},
		Footer:    f.tpl.Reversal.footer(""),
		Timestamp: at,
	}
	return msg.RenderMarkdown()
}

// PositionClosed renders the final closure summary.
func (f *Formatter) PositionClosed(pos *types.Position, at time.Time) string {
	result := fmt.Sprintf("Result: %+.2f%%", pos.Profit)
	msg := StructuredMessage{
		Icon:  "✅",
		Title: f.tpl.PositionClosed.title("POSITION CLOSED"),
		Sections: []MessageSection{
			{Lines: []string{
				fmt.Sprintf("Pair: %s", pos.Pair),
				fmt.Sprintf("Type: %s", pos.Side),
				fmt.Sprintf("Entry: $%.2f", pos.EntryPrice),
				fmt.Sprintf("Exit: $%.2f", pos.ExitPrice),
				fmt.Sprintf("Reason: %s", pos.ExitReason),
			}},
			{Lines: []string{
				result,
				fmt.Sprintf("Targets Hit: %d/%d", len(pos.TargetsHit), len(pos.Targets)),
			}},
		},
		Footer:    f.tpl.PositionClosed.footer(""),
		Timestamp: at,
	}
	return msg.RenderMarkdown()
}
