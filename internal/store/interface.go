package store

import (
	"context"
	"time"

	"sigtide/internal/types"
)

// SignalRepository handles signal persistence.
type SignalRepository interface {
	Save(ctx context.Context, signal *types.Signal) error
	FindByID(ctx context.Context, id int64) (*types.Signal, error)
	// FindActiveByPair returns the newest active signal for pair created at or
	// after since, or nil when none exists.
	FindActiveByPair(ctx context.Context, pair string, since time.Time) (*types.Signal, error)
	ListByStatus(ctx context.Context, status types.SignalStatus, limit int) ([]types.Signal, error)
	ListRecent(ctx context.Context, limit int) ([]types.Signal, error)
	CountByStatus(ctx context.Context, status types.SignalStatus) (int64, error)
}

// PositionRepository handles position persistence.
type PositionRepository interface {
	Save(ctx context.Context, position *types.Position) error
	FindByID(ctx context.Context, id int64) (*types.Position, error)
	ListOpen(ctx context.Context) ([]types.Position, error)
	ListByStatus(ctx context.Context, status types.PositionStatus, limit int) ([]types.Position, error)
	ListRecent(ctx context.Context, limit int) ([]types.Position, error)
	CountByStatus(ctx context.Context, status types.PositionStatus) (int64, error)
}

// Store is the entry point for database access.
type Store interface {
	Signals() SignalRepository
	Positions() PositionRepository
	Close() error
}
