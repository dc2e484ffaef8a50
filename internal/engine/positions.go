package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sigtide/internal/logger"
	"sigtide/internal/notifier"
	"sigtide/internal/pkg/trading"
	"sigtide/internal/store"
	"sigtide/internal/store/eventlog"
	"sigtide/internal/types"
)

// PositionManager opens positions from signals and advances them through
// target-hit, stop-loss and reversal evaluation on every monitor tick.
type PositionManager struct {
	oracle    Oracle
	positions store.PositionRepository
	signals   store.SignalRepository
	notify    notifier.TextNotifier
	format    *notifier.Formatter
	events    EventJournal
	cfg       Settings

	nowFn func() time.Time

	// locks serializes ticks per position: a tick must fully complete before
	// the next one for the same position begins.
	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

func NewPositionManager(o Oracle, positions store.PositionRepository, signals store.SignalRepository, notify notifier.TextNotifier, format *notifier.Formatter, events EventJournal, cfg Settings) *PositionManager {
	return &PositionManager{
		oracle:    o,
		positions: positions,
		signals:   signals,
		notify:    notify,
		format:    format,
		events:    events,
		cfg:       cfg,
		nowFn:     time.Now,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// SetNowFunc overrides the clock for tests.
func (m *PositionManager) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		m.nowFn = fn
	}
}

func (m *PositionManager) lockFor(id int64) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	mu, ok := m.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[id] = mu
	}
	return mu
}

// Open creates a position from a signal at entryPrice, marking the signal
// consumed so it cannot be opened twice.
func (m *PositionManager) Open(ctx context.Context, sig *types.Signal, entryPrice float64) (*types.Position, error) {
	if sig == nil {
		return nil, fmt.Errorf("open requires a signal")
	}
	if sig.Status == types.SignalStatusConsumed {
		return nil, fmt.Errorf("signal %d already consumed", sig.ID)
	}
	if entryPrice <= 0 {
		return nil, fmt.Errorf("entry price must be > 0")
	}
	now := m.nowFn().UTC()
	targets := make([]types.PositionTarget, 0, len(sig.Targets))
	for _, t := range sig.Targets {
		targets = append(targets, types.PositionTarget{Price: t.Price, Percent: t.Percent})
	}
	pos := &types.Position{
		SignalID:   sig.ID,
		Pair:       sig.Pair,
		Side:       sig.Side,
		Leverage:   sig.Leverage,
		EntryPrice: entryPrice,
		Targets:    targets,
		TargetsHit: []int{},
		StopLoss:   sig.StopLoss,
		Status:     types.PositionStatusOpen,
		OpenedAt:   now,
	}
	if err := m.positions.Save(ctx, pos); err != nil {
		return nil, fmt.Errorf("persisting position failed: %w", err)
	}
	sig.Status = types.SignalStatusConsumed
	if err := m.signals.Save(ctx, sig); err != nil {
		logger.Errorf("marking signal %d consumed failed: %v", sig.ID, err)
	}
	logger.Infof("opened %s position for %s at $%.2f (id=%d)", pos.Side, pos.Pair, entryPrice, pos.ID)

	text := m.format.PositionOpened(pos, now)
	m.appendEvent(ctx, eventlog.Record{
		Kind:       eventlog.KindOpened,
		Pair:       pos.Pair,
		SignalID:   sig.ID,
		PositionID: pos.ID,
		Message:    text,
	})
	m.send(text, "position opened")
	return pos, nil
}

// MonitorOpenPositions runs one monitor tick over every open position.
func (m *PositionManager) MonitorOpenPositions(ctx context.Context) {
	open, err := m.positions.ListOpen(ctx)
	if err != nil {
		logger.Errorf("listing open positions failed: %v", err)
		return
	}
	if len(open) == 0 {
		logger.Debugf("no open positions to monitor")
		return
	}
	logger.Infof("monitoring %d open position(s)", len(open))
	for i := range open {
		if ctx.Err() != nil {
			return
		}
		if err := m.Check(ctx, open[i].ID); err != nil {
			logger.Errorf("checking position %d failed: %v", open[i].ID, err)
		}
	}
}

// Check advances one position by one tick: stop-loss first, then targets in
// ladder order, then the reversal advisory. Each mutation is persisted the
// moment it is computed.
func (m *PositionManager) Check(ctx context.Context, positionID int64) error {
	mu := m.lockFor(positionID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read inside the critical section so a concurrent manual close or
	// another process's write is observed.
	pos, err := m.positions.FindByID(ctx, positionID)
	if err != nil {
		return fmt.Errorf("loading position %d failed: %w", positionID, err)
	}
	if pos == nil || !pos.Open() {
		return nil
	}

	ind, err := m.oracle.Indicators(ctx, m.cfg.BaseSymbol(pos.Pair))
	if err != nil {
		logger.Warnf("no oracle data for %s, skipping tick: %v", pos.Pair, err)
		return nil
	}

	now := m.nowFn().UTC()
	price := ind.Price
	logger.Debugf("%s | entry=$%.2f current=$%.2f rsi=%.1f", pos.Pair, pos.EntryPrice, price, ind.RSI)

	// Stop-loss takes priority and short-circuits everything else.
	if trading.StopBreached(string(pos.Side), price, pos.StopLoss) {
		return m.closeWith(ctx, pos, price, types.ExitReasonStopLoss, now)
	}

	if trading.TargetReached(string(pos.Side), price, pos.EntryPrice) {
		for i := range pos.Targets {
			target := &pos.Targets[i]
			if target.Hit || !trading.TargetReached(string(pos.Side), price, target.Price) {
				continue
			}
			hitAt := now
			target.Hit = true
			target.HitAt = &hitAt
			pos.TargetsHit = append(pos.TargetsHit, i+1)
			pos.RecomputeClosedPercent()
			if err := m.positions.Save(ctx, pos); err != nil {
				return fmt.Errorf("persisting target %d hit failed: %w", i+1, err)
			}
			logger.Infof("target %d hit for %s at $%.2f (closed=%.0f%%)", i+1, pos.Pair, target.Price, pos.ClosedPercent)
			text := m.format.TargetHit(pos, i+1, price, now)
			m.appendEvent(ctx, eventlog.Record{
				Kind:       eventlog.KindTargetHit,
				Pair:       pos.Pair,
				PositionID: pos.ID,
				Message:    text,
			})
			m.send(text, "target hit")
		}
	}

	if len(pos.TargetsHit) > 0 && pos.ClosedPercent < 100 && m.reversalTriggered(pos.Side, ind.RSI) {
		if m.reversalSuppressed(pos, now) {
			return nil
		}
		text := m.format.Reversal(pos, ind.RSI, price, now)
		m.appendEvent(ctx, eventlog.Record{
			Kind:       eventlog.KindReversal,
			Pair:       pos.Pair,
			PositionID: pos.ID,
			Message:    text,
		})
		m.send(text, "reversal advisory")
		logger.Infof("reversal advisory for %s (rsi=%.1f)", pos.Pair, ind.RSI)
		if m.cfg.ReversalCooldown > 0 {
			pos.LastReversalAt = &now
			if err := m.positions.Save(ctx, pos); err != nil {
				logger.Errorf("persisting reversal timestamp for %d failed: %v", pos.ID, err)
			}
		}
	}
	return nil
}

// reversalTriggered applies the momentum thresholds: a long is at risk when
// RSI climbs above the long threshold, a short when RSI falls below the
// short threshold.
func (m *PositionManager) reversalTriggered(side types.Side, rsi float64) bool {
	if side == types.SideShort {
		return rsi < m.cfg.ReversalShortRSI
	}
	return rsi > m.cfg.ReversalLongRSI
}

func (m *PositionManager) reversalSuppressed(pos *types.Position, now time.Time) bool {
	if m.cfg.ReversalCooldown <= 0 || pos.LastReversalAt == nil {
		return false
	}
	return now.Sub(*pos.LastReversalAt) < m.cfg.ReversalCooldown
}

// closeWith finalizes a stop-loss closure inside the monitor tick.
func (m *PositionManager) closeWith(ctx context.Context, pos *types.Position, exitPrice float64, reason types.ExitReason, now time.Time) error {
	pos.ExitPrice = exitPrice
	pos.ExitReason = reason
	pos.Profit = pos.ProfitPercent(exitPrice)
	pos.Status = types.PositionStatusClosed
	pos.ClosedAt = &now
	if err := m.positions.Save(ctx, pos); err != nil {
		return fmt.Errorf("persisting stop-loss closure failed: %w", err)
	}
	logger.Infof("stop loss hit for %s at $%.2f (profit=%.2f%%)", pos.Pair, exitPrice, pos.Profit)
	text := m.format.StopLoss(pos, exitPrice, now)
	m.appendEvent(ctx, eventlog.Record{
		Kind:       eventlog.KindStopLoss,
		Pair:       pos.Pair,
		PositionID: pos.ID,
		Message:    text,
	})
	m.send(text, "stop loss")
	return nil
}

// Close finalizes a position at exitPrice for the given reason. Closing an
// already-closed or unknown position is a logged no-op.
func (m *PositionManager) Close(ctx context.Context, positionID int64, exitPrice float64, reason types.ExitReason) (*types.Position, error) {
	mu := m.lockFor(positionID)
	mu.Lock()
	defer mu.Unlock()

	pos, err := m.positions.FindByID(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("loading position %d failed: %w", positionID, err)
	}
	if pos == nil {
		logger.Warnf("close requested for unknown position %d", positionID)
		return nil, nil
	}
	if pos.Status == types.PositionStatusClosed {
		logger.Infof("position %d already closed", positionID)
		return pos, nil
	}
	if reason == "" {
		reason = types.ExitReasonManual
	}
	now := m.nowFn().UTC()
	pos.ExitPrice = exitPrice
	pos.ExitReason = reason
	pos.Profit = pos.ProfitPercent(exitPrice)
	pos.Status = types.PositionStatusClosed
	pos.ClosedAt = &now
	if err := m.positions.Save(ctx, pos); err != nil {
		return nil, fmt.Errorf("persisting closure failed: %w", err)
	}
	logger.Infof("closed position %d with %.2f%% (reason=%s)", pos.ID, pos.Profit, reason)

	text := m.format.PositionClosed(pos, now)
	m.appendEvent(ctx, eventlog.Record{
		Kind:       eventlog.KindClosed,
		Pair:       pos.Pair,
		PositionID: pos.ID,
		Message:    text,
	})
	m.send(text, "position closed")
	return pos, nil
}

// ListOpen returns all open positions.
func (m *PositionManager) ListOpen(ctx context.Context) ([]types.Position, error) {
	return m.positions.ListOpen(ctx)
}

// Stats aggregates closed-position performance.
type Stats struct {
	TotalTrades int     `json:"total_trades"`
	WinRate     float64 `json:"win_rate"`
	AvgProfit   float64 `json:"avg_profit"`
	TotalProfit float64 `json:"total_profit"`
	BestTrade   float64 `json:"best_trade"`
	WorstTrade  float64 `json:"worst_trade"`
}

// Stats computes aggregates over all closed positions.
func (m *PositionManager) Stats(ctx context.Context) (Stats, error) {
	closed, err := m.positions.ListByStatus(ctx, types.PositionStatusClosed, 0)
	if err != nil {
		return Stats{}, err
	}
	if len(closed) == 0 {
		return Stats{}, nil
	}
	stats := Stats{TotalTrades: len(closed)}
	wins := 0
	stats.BestTrade = closed[0].Profit
	stats.WorstTrade = closed[0].Profit
	for _, p := range closed {
		if p.Profit > 0 {
			wins++
		}
		stats.TotalProfit += p.Profit
		if p.Profit > stats.BestTrade {
			stats.BestTrade = p.Profit
		}
		if p.Profit < stats.WorstTrade {
			stats.WorstTrade = p.Profit
		}
	}
	stats.WinRate = 100 * float64(wins) / float64(len(closed))
	stats.AvgProfit = stats.TotalProfit / float64(len(closed))
	return stats, nil
}

func (m *PositionManager) send(text, what string) {
	if err := m.notify.SendText(text); err != nil {
		logger.Errorf("%s notification failed: %v", what, err)
	}
}

func (m *PositionManager) appendEvent(ctx context.Context, rec eventlog.Record) {
	if m.events == nil {
		return
	}
	if err := m.events.Append(ctx, rec); err != nil {
		logger.Errorf("event journal append failed (%s): %v", rec.Kind, err)
	}
}
