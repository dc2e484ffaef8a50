package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sigtide/internal/logger"
	"sigtide/internal/notifier"
	"sigtide/internal/store"
	"sigtide/internal/store/eventlog"
	"sigtide/internal/types"
)

// SignalFactory turns oracle readings into persisted, deduplicated signals.
type SignalFactory struct {
	oracle  Oracle
	signals store.SignalRepository
	notify  notifier.TextNotifier
	format  *notifier.Formatter
	events  EventJournal
	cfg     Settings

	nowFn func() time.Time
}

func NewSignalFactory(o Oracle, signals store.SignalRepository, notify notifier.TextNotifier, format *notifier.Formatter, events EventJournal, cfg Settings) *SignalFactory {
	return &SignalFactory{
		oracle:  o,
		signals: signals,
		notify:  notify,
		format:  format,
		events:  events,
		cfg:     cfg,
		nowFn:   time.Now,
	}
}

// SetNowFunc overrides the clock for tests.
func (f *SignalFactory) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		f.nowFn = fn
	}
}

// CheckForSignals runs one generation pass over the given symbols, pacing
// oracle calls with the configured delay.
func (f *SignalFactory) CheckForSignals(ctx context.Context, symbols []string) {
	logger.Infof("signal sweep: %d symbol(s)", len(symbols))
	for i, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		if _, err := f.Generate(ctx, symbol); err != nil {
			logger.Errorf("signal generation failed for %s: %v", symbol, err)
		}
		if i == len(symbols)-1 || f.cfg.PairDelay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(f.cfg.PairDelay):
		}
	}
}

// Generate produces at most one new signal for symbol. A nil signal with nil
// error means no actionable reading or an active signal already exists;
// transient oracle unavailability also yields (nil, nil) and is retried on
// the next sweep.
func (f *SignalFactory) Generate(ctx context.Context, symbol string) (*types.Signal, error) {
	analysis, err := f.oracle.Analyze(ctx, symbol)
	if err != nil {
		logger.Warnf("oracle analyze unavailable for %s: %v", symbol, err)
		return nil, nil
	}
	if !analysis.HasDirection() {
		logger.Debugf("no signal for %s", symbol)
		return nil, nil
	}
	side := types.Side(analysis.Direction)
	if !side.Valid() {
		logger.Warnf("oracle returned unknown direction %q for %s", analysis.Direction, symbol)
		return nil, nil
	}
	price := analysis.Price()
	if price <= 0 {
		logger.Warnf("oracle returned no price for %s", symbol)
		return nil, nil
	}

	now := f.nowFn().UTC()
	pair := f.cfg.PairName(symbol)
	existing, err := f.signals.FindActiveByPair(ctx, pair, now.Add(-f.cfg.DedupWindow))
	if err != nil {
		return nil, fmt.Errorf("dedup lookup failed for %s: %w", pair, err)
	}
	if existing != nil {
		logger.Debugf("signal already exists for %s (id=%d)", pair, existing.ID)
		return nil, nil
	}

	sig := &types.Signal{
		TraceID:    uuid.NewString(),
		Pair:       pair,
		Side:       side,
		Leverage:   f.cfg.LeverageDefault,
		Entry:      types.BuildEntryZone(price, f.cfg.EntryZonePercent),
		Targets:    types.BuildTargetLadder(price, side, f.cfg.TargetPercents),
		StopLoss:   types.BuildStopLoss(price, side, f.cfg.StopLossPercent),
		Confidence: analysis.Confidence,
		Indicators: analysis.Indicators,
		Patterns:   analysis.Patterns,
		Status:     types.SignalStatusActive,
		CreatedAt:  now,
	}
	if err := f.signals.Save(ctx, sig); err != nil {
		return nil, fmt.Errorf("persisting signal for %s failed: %w", pair, err)
	}
	logger.Infof("new %s signal for %s (confidence=%.0f%%, id=%d)", sig.Side, pair, sig.Confidence, sig.ID)

	text := f.format.NewSignal(sig, now)
	f.appendEvent(ctx, eventlog.Record{
		Kind:     eventlog.KindSignal,
		Pair:     pair,
		SignalID: sig.ID,
		Message:  text,
	})
	if err := f.notify.SendText(text); err != nil {
		logger.Errorf("signal notification failed for %s: %v", pair, err)
		return sig, nil
	}
	sig.Notified = true
	if err := f.signals.Save(ctx, sig); err != nil {
		// Notification already went out; the flag is best-effort.
		logger.Errorf("marking signal %d notified failed: %v", sig.ID, err)
	}
	return sig, nil
}

func (f *SignalFactory) appendEvent(ctx context.Context, rec eventlog.Record) {
	if f.events == nil {
		return
	}
	if err := f.events.Append(ctx, rec); err != nil {
		logger.Errorf("event journal append failed (%s): %v", rec.Kind, err)
	}
}
