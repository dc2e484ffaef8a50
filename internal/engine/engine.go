package engine

import (
	"context"
	"strings"
	"time"

	"sigtide/internal/oracle"
	"sigtide/internal/store/eventlog"
)

// Oracle is the engine's view of the external analytics service.
type Oracle interface {
	Analyze(ctx context.Context, symbol string) (*oracle.Analysis, error)
	Indicators(ctx context.Context, symbol string) (*oracle.IndicatorSet, error)
	HealthCheck(ctx context.Context) bool
}

// EventJournal records emitted lifecycle events. Append failures are treated
// as log-only by all callers.
type EventJournal interface {
	Append(ctx context.Context, rec eventlog.Record) error
}

// Settings carries the trading parameters shared by the signal factory and
// the position manager.
type Settings struct {
	QuoteAsset       string
	LeverageDefault  int
	TargetPercents   []float64
	EntryZonePercent float64
	StopLossPercent  float64
	DedupWindow      time.Duration
	ReversalLongRSI  float64
	ReversalShortRSI float64
	ReversalCooldown time.Duration
	PairDelay        time.Duration
}

// PairName joins a base symbol with the configured quote asset.
func (s Settings) PairName(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasSuffix(symbol, s.QuoteAsset) {
		return symbol
	}
	return symbol + s.QuoteAsset
}

// BaseSymbol strips the quote asset from a pair name for oracle lookups.
func (s Settings) BaseSymbol(pair string) string {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	return strings.TrimSuffix(pair, s.QuoteAsset)
}
