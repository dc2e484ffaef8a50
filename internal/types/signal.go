package types

import (
	"time"
)

// Side is the trade direction of a signal or position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Valid reports whether s is one of the two known directions.
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// SignalStatus tracks whether a signal is still actionable.
type SignalStatus string

const (
	SignalStatusActive   SignalStatus = "active"
	SignalStatusConsumed SignalStatus = "consumed"
)

// EntryZone is the price band around the reading at signal creation.
type EntryZone struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// TargetLevel is one rung of the take-profit ladder.
type TargetLevel struct {
	Price   float64 `json:"price"`
	Percent float64 `json:"percent"`
}

// Signal is a proposed directional trade derived from an oracle reading.
// Immutable after creation except Status and Notified.
type Signal struct {
	ID         int64              `json:"id"`
	TraceID    string             `json:"trace_id"`
	Pair       string             `json:"pair"`
	Side       Side               `json:"side"`
	Leverage   int                `json:"leverage"`
	Entry      EntryZone          `json:"entry"`
	Targets    []TargetLevel      `json:"targets"`
	StopLoss   float64            `json:"stop_loss"`
	Confidence float64            `json:"confidence"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
	Patterns   []string           `json:"patterns,omitempty"`
	Status     SignalStatus       `json:"status"`
	Notified   bool               `json:"notified"`
	CreatedAt  time.Time          `json:"created_at"`
}
