package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"sigtide/internal/types"
)

// SignalModel is the gorm row for a persisted signal. Ladder, indicator and
// pattern payloads are stored as JSON columns.
type SignalModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	TraceID       string         `gorm:"column:trace_id;index"`
	Pair          string         `gorm:"column:pair;index:idx_signal_pair_status,priority:1"`
	Side          string         `gorm:"column:side"`
	Leverage      int            `gorm:"column:leverage"`
	EntryMin      float64        `gorm:"column:entry_min"`
	EntryMax      float64        `gorm:"column:entry_max"`
	TargetsJSON   datatypes.JSON `gorm:"column:targets_json;type:TEXT"`
	StopLoss      float64        `gorm:"column:stop_loss"`
	Confidence    float64        `gorm:"column:confidence"`
	IndicatorJSON datatypes.JSON `gorm:"column:indicators_json;type:TEXT"`
	PatternsJSON  datatypes.JSON `gorm:"column:patterns_json;type:TEXT"`
	Status        string         `gorm:"column:status;index:idx_signal_pair_status,priority:2"`
	Notified      bool           `gorm:"column:notified"`
	CreatedAtUnix int64          `gorm:"column:created_at;index"`
}

func (SignalModel) TableName() string { return "signals" }

// PositionModel is the gorm row for a tracked position.
type PositionModel struct {
	ID              int64          `gorm:"column:id;primaryKey"`
	SignalID        int64          `gorm:"column:signal_id;index"`
	Pair            string         `gorm:"column:pair;index"`
	Side            string         `gorm:"column:side"`
	Leverage        int            `gorm:"column:leverage"`
	EntryPrice      float64        `gorm:"column:entry_price"`
	TargetsJSON     datatypes.JSON `gorm:"column:targets_json;type:TEXT"`
	TargetsHitJSON  datatypes.JSON `gorm:"column:targets_hit_json;type:TEXT"`
	ClosedPercent   float64        `gorm:"column:closed_percent"`
	StopLoss        float64        `gorm:"column:stop_loss"`
	ExitPrice       float64        `gorm:"column:exit_price"`
	ExitReason      string         `gorm:"column:exit_reason"`
	Profit          float64        `gorm:"column:profit"`
	Status          string         `gorm:"column:status;index"`
	OpenedAtUnix    int64          `gorm:"column:opened_at"`
	ClosedAtUnix    *int64         `gorm:"column:closed_at"`
	LastReversalUnx *int64         `gorm:"column:last_reversal_at"`
	CreatedAtUnix   int64          `gorm:"column:created_at;index"`
	UpdatedAtUnix   int64          `gorm:"column:updated_at"`
}

func (PositionModel) TableName() string { return "positions" }

// SignalFromDomain converts a domain signal into its row form.
func SignalFromDomain(s *types.Signal) (*SignalModel, error) {
	targets, err := json.Marshal(s.Targets)
	if err != nil {
		return nil, err
	}
	indicators, err := json.Marshal(s.Indicators)
	if err != nil {
		return nil, err
	}
	patterns, err := json.Marshal(s.Patterns)
	if err != nil {
		return nil, err
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return &SignalModel{
		ID:            s.ID,
		TraceID:       s.TraceID,
		Pair:          s.Pair,
		Side:          string(s.Side),
		Leverage:      s.Leverage,
		EntryMin:      s.Entry.Min,
		EntryMax:      s.Entry.Max,
		TargetsJSON:   datatypes.JSON(targets),
		StopLoss:      s.StopLoss,
		Confidence:    s.Confidence,
		IndicatorJSON: datatypes.JSON(indicators),
		PatternsJSON:  datatypes.JSON(patterns),
		Status:        string(s.Status),
		Notified:      s.Notified,
		CreatedAtUnix: created.Unix(),
	}, nil
}

// ToDomain converts the row back into a domain signal.
func (m *SignalModel) ToDomain() (*types.Signal, error) {
	var targets []types.TargetLevel
	if len(m.TargetsJSON) > 0 {
		if err := json.Unmarshal(m.TargetsJSON, &targets); err != nil {
			return nil, err
		}
	}
	var indicators map[string]float64
	if len(m.IndicatorJSON) > 0 {
		if err := json.Unmarshal(m.IndicatorJSON, &indicators); err != nil {
			return nil, err
		}
	}
	var patterns []string
	if len(m.PatternsJSON) > 0 {
		if err := json.Unmarshal(m.PatternsJSON, &patterns); err != nil {
			return nil, err
		}
	}
	return &types.Signal{
		ID:         m.ID,
		TraceID:    m.TraceID,
		Pair:       m.Pair,
		Side:       types.Side(m.Side),
		Leverage:   m.Leverage,
		Entry:      types.EntryZone{Min: m.EntryMin, Max: m.EntryMax},
		Targets:    targets,
		StopLoss:   m.StopLoss,
		Confidence: m.Confidence,
		Indicators: indicators,
		Patterns:   patterns,
		Status:     types.SignalStatus(m.Status),
		Notified:   m.Notified,
		CreatedAt:  time.Unix(m.CreatedAtUnix, 0).UTC(),
	}, nil
}

// PositionFromDomain converts a domain position into its row form.
func PositionFromDomain(p *types.Position) (*PositionModel, error) {
	targets, err := json.Marshal(p.Targets)
	if err != nil {
		return nil, err
	}
	hits, err := json.Marshal(p.TargetsHit)
	if err != nil {
		return nil, err
	}
	opened := p.OpenedAt
	if opened.IsZero() {
		opened = time.Now().UTC()
	}
	m := &PositionModel{
		ID:             p.ID,
		SignalID:       p.SignalID,
		Pair:           p.Pair,
		Side:           string(p.Side),
		Leverage:       p.Leverage,
		EntryPrice:     p.EntryPrice,
		TargetsJSON:    datatypes.JSON(targets),
		TargetsHitJSON: datatypes.JSON(hits),
		ClosedPercent:  p.ClosedPercent,
		StopLoss:       p.StopLoss,
		ExitPrice:      p.ExitPrice,
		ExitReason:     string(p.ExitReason),
		Profit:         p.Profit,
		Status:         string(p.Status),
		OpenedAtUnix:   opened.Unix(),
		CreatedAtUnix:  opened.Unix(),
		UpdatedAtUnix:  time.Now().Unix(),
	}
	if p.ClosedAt != nil {
		ts := p.ClosedAt.Unix()
		m.ClosedAtUnix = &ts
	}
	if p.LastReversalAt != nil {
		ts := p.LastReversalAt.Unix()
		m.LastReversalUnx = &ts
	}
	return m, nil
}

// ToDomain converts the row back into a domain position.
func (m *PositionModel) ToDomain() (*types.Position, error) {
	var targets []types.PositionTarget
	if len(m.TargetsJSON) > 0 {
		if err := json.Unmarshal(m.TargetsJSON, &targets); err != nil {
			return nil, err
		}
	}
	var hits []int
	if len(m.TargetsHitJSON) > 0 {
		if err := json.Unmarshal(m.TargetsHitJSON, &hits); err != nil {
			return nil, err
		}
	}
	p := &types.Position{
		ID:            m.ID,
		SignalID:      m.SignalID,
		Pair:          m.Pair,
		Side:          types.Side(m.Side),
		Leverage:      m.Leverage,
		EntryPrice:    m.EntryPrice,
		Targets:       targets,
		TargetsHit:    hits,
		ClosedPercent: m.ClosedPercent,
		StopLoss:      m.StopLoss,
		ExitPrice:     m.ExitPrice,
		ExitReason:    types.ExitReason(m.ExitReason),
		Profit:        m.Profit,
		Status:        types.PositionStatus(m.Status),
		OpenedAt:      time.Unix(m.OpenedAtUnix, 0).UTC(),
	}
	if m.ClosedAtUnix != nil {
		ts := time.Unix(*m.ClosedAtUnix, 0).UTC()
		p.ClosedAt = &ts
	}
	if m.LastReversalUnx != nil {
		ts := time.Unix(*m.LastReversalUnx, 0).UTC()
		p.LastReversalAt = &ts
	}
	return p, nil
}
