package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"sigtide/internal/oracle"
	"sigtide/internal/store/eventlog"
	"sigtide/internal/types"
)

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Analyze(ctx context.Context, symbol string) (*oracle.Analysis, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oracle.Analysis), args.Error(1)
}

func (m *MockOracle) Indicators(ctx context.Context, symbol string) (*oracle.IndicatorSet, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oracle.IndicatorSet), args.Error(1)
}

func (m *MockOracle) HealthCheck(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// memSignalRepo is an in-memory SignalRepository.
type memSignalRepo struct {
	mu    sync.Mutex
	seq   int64
	rows  map[int64]*types.Signal
	saves int
}

func newMemSignalRepo() *memSignalRepo {
	return &memSignalRepo{rows: make(map[int64]*types.Signal)}
}

func copySignal(s *types.Signal) *types.Signal {
	raw, _ := json.Marshal(s)
	var out types.Signal
	_ = json.Unmarshal(raw, &out)
	out.CreatedAt = s.CreatedAt
	return &out
}

func (r *memSignalRepo) Save(_ context.Context, signal *types.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if signal.ID == 0 {
		r.seq++
		signal.ID = r.seq
	}
	r.rows[signal.ID] = copySignal(signal)
	r.saves++
	return nil
}

func (r *memSignalRepo) FindByID(_ context.Context, id int64) (*types.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return copySignal(row), nil
}

func (r *memSignalRepo) FindActiveByPair(_ context.Context, pair string, since time.Time) (*types.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *types.Signal
	for _, row := range r.rows {
		if row.Pair != pair || row.Status != types.SignalStatusActive || row.CreatedAt.Before(since) {
			continue
		}
		if newest == nil || row.CreatedAt.After(newest.CreatedAt) {
			newest = row
		}
	}
	if newest == nil {
		return nil, nil
	}
	return copySignal(newest), nil
}

func (r *memSignalRepo) ListByStatus(_ context.Context, status types.SignalStatus, limit int) ([]types.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Signal
	for _, row := range r.rows {
		if row.Status == status {
			out = append(out, *copySignal(row))
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memSignalRepo) ListRecent(_ context.Context, limit int) ([]types.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Signal
	for _, row := range r.rows {
		out = append(out, *copySignal(row))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memSignalRepo) CountByStatus(_ context.Context, status types.SignalStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.Status == status {
			n++
		}
	}
	return n, nil
}

// memPositionRepo is an in-memory PositionRepository with save counting.
type memPositionRepo struct {
	mu    sync.Mutex
	seq   int64
	rows  map[int64]*types.Position
	saves int
}

func newMemPositionRepo() *memPositionRepo {
	return &memPositionRepo{rows: make(map[int64]*types.Position)}
}

func copyPosition(p *types.Position) *types.Position {
	raw, _ := json.Marshal(p)
	var out types.Position
	_ = json.Unmarshal(raw, &out)
	out.OpenedAt = p.OpenedAt
	return &out
}

func (r *memPositionRepo) Save(_ context.Context, position *types.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if position.ID == 0 {
		r.seq++
		position.ID = r.seq
	}
	r.rows[position.ID] = copyPosition(position)
	r.saves++
	return nil
}

func (r *memPositionRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *memPositionRepo) FindByID(_ context.Context, id int64) (*types.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return copyPosition(row), nil
}

func (r *memPositionRepo) ListOpen(ctx context.Context) ([]types.Position, error) {
	return r.ListByStatus(ctx, types.PositionStatusOpen, 0)
}

func (r *memPositionRepo) ListByStatus(_ context.Context, status types.PositionStatus, limit int) ([]types.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Position
	for _, row := range r.rows {
		if row.Status == status {
			out = append(out, *copyPosition(row))
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memPositionRepo) ListRecent(_ context.Context, limit int) ([]types.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Position
	for _, row := range r.rows {
		out = append(out, *copyPosition(row))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memPositionRepo) CountByStatus(_ context.Context, status types.PositionStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.Status == status {
			n++
		}
	}
	return n, nil
}

// captureNotifier records every sent text.
type captureNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (n *captureNotifier) SendText(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.texts = append(n.texts, text)
	return nil
}

func (n *captureNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.texts...)
}

// captureJournal records appended event kinds.
type captureJournal struct {
	mu   sync.Mutex
	recs []eventlog.Record
}

func (j *captureJournal) Append(_ context.Context, rec eventlog.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recs = append(j.recs, rec)
	return nil
}

func (j *captureJournal) kinds() []eventlog.Kind {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]eventlog.Kind, 0, len(j.recs))
	for _, rec := range j.recs {
		out = append(out, rec.Kind)
	}
	return out
}
