package types

import (
	"time"

	"sigtide/internal/pkg/trading"
)

// PositionStatus is the lifecycle state of a position. Closed is terminal.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitReasonTarget   ExitReason = "target"
	ExitReasonStopLoss ExitReason = "stop_loss"
	ExitReasonReversal ExitReason = "reversal"
	ExitReasonManual   ExitReason = "manual"
)

// PositionTarget is a ladder rung copied from the signal, with hit tracking.
type PositionTarget struct {
	Price   float64    `json:"price"`
	Percent float64    `json:"percent"`
	Hit     bool       `json:"hit"`
	HitAt   *time.Time `json:"hit_at,omitempty"`
}

// Position is the tracked execution state derived from a Signal.
type Position struct {
	ID            int64            `json:"id"`
	SignalID      int64            `json:"signal_id"`
	Pair          string           `json:"pair"`
	Side          Side             `json:"side"`
	Leverage      int              `json:"leverage"`
	EntryPrice    float64          `json:"entry_price"`
	Targets       []PositionTarget `json:"targets"`
	TargetsHit    []int            `json:"targets_hit"`
	ClosedPercent float64          `json:"closed_percent"`
	StopLoss      float64          `json:"stop_loss"`
	ExitPrice     float64          `json:"exit_price,omitempty"`
	ExitReason    ExitReason       `json:"exit_reason,omitempty"`
	Profit        float64          `json:"profit,omitempty"`
	Status        PositionStatus   `json:"status"`
	OpenedAt      time.Time        `json:"opened_at"`
	ClosedAt      *time.Time       `json:"closed_at,omitempty"`

	// LastReversalAt tracks the most recent reversal advisory, for the
	// optional cooldown. Zero means none sent yet.
	LastReversalAt *time.Time `json:"last_reversal_at,omitempty"`
}

// Open reports whether the position can still mutate.
func (p *Position) Open() bool {
	return p != nil && p.Status == PositionStatusOpen
}

// RecomputeClosedPercent derives the cumulative closed fraction from hit
// counts. Kept as a derivation rather than an accumulator so the invariant
// closedPercent == 100*hits/len(targets) holds at every observed state.
func (p *Position) RecomputeClosedPercent() {
	if len(p.Targets) == 0 {
		p.ClosedPercent = 0
		return
	}
	hits := 0
	for _, t := range p.Targets {
		if t.Hit {
			hits++
		}
	}
	p.ClosedPercent = 100 * float64(hits) / float64(len(p.Targets))
}

// FullyClosedByTargets reports whether every ladder rung has been hit.
func (p *Position) FullyClosedByTargets() bool {
	for _, t := range p.Targets {
		if !t.Hit {
			return false
		}
	}
	return len(p.Targets) > 0
}

// ProfitPercent computes the signed realized percentage for an exit at price.
func (p *Position) ProfitPercent(exit float64) float64 {
	return trading.ProfitPercent(string(p.Side), p.EntryPrice, exit)
}

// BuildEntryZone returns price banded by zonePct percent both ways.
func BuildEntryZone(price, zonePct float64) EntryZone {
	return EntryZone{
		Min: trading.RelativeLevel(price, zonePct, string(SideShort)),
		Max: trading.RelativeLevel(price, zonePct, string(SideLong)),
	}
}

// BuildTargetLadder applies each percent offset to price in the favorable
// direction of side, preserving ladder order.
func BuildTargetLadder(price float64, side Side, percents []float64) []TargetLevel {
	out := make([]TargetLevel, 0, len(percents))
	for _, pct := range percents {
		out = append(out, TargetLevel{
			Price:   trading.RelativeLevel(price, pct, string(side)),
			Percent: pct,
		})
	}
	return out
}

// BuildStopLoss places the stop stopPct percent on the loss side of price.
func BuildStopLoss(price float64, side Side, stopPct float64) float64 {
	return trading.AdverseLevel(price, stopPct, string(side))
}
