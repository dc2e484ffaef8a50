package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sigtide/internal/store"
	storemodel "sigtide/internal/store/model"
	"sigtide/internal/types"
)

// GormStore implements signal and position storage using Gorm + SQLite.
type GormStore struct {
	db *gorm.DB
}

var _ store.Store = (*GormStore)(nil)

// NewGormStore opens (creating if needed) the SQLite database at path.
func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: db path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&storemodel.SignalModel{}, &storemodel.PositionModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP
	// reads while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Signals returns the signal repository.
func (s *GormStore) Signals() store.SignalRepository { return &signalRepo{db: s.db} }

// Positions returns the position repository.
func (s *GormStore) Positions() store.PositionRepository { return &positionRepo{db: s.db} }

type signalRepo struct {
	db *gorm.DB
}

func (r *signalRepo) Save(ctx context.Context, signal *types.Signal) error {
	if signal == nil {
		return fmt.Errorf("gorm store: nil signal")
	}
	row, err := storemodel.SignalFromDomain(signal)
	if err != nil {
		return fmt.Errorf("encoding signal failed: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("saving signal failed: %w", err)
	}
	signal.ID = row.ID
	return nil
}

func (r *signalRepo) FindByID(ctx context.Context, id int64) (*types.Signal, error) {
	var row storemodel.SignalModel
	err := r.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
}

func (r *signalRepo) FindActiveByPair(ctx context.Context, pair string, since time.Time) (*types.Signal, error) {
	var row storemodel.SignalModel
	err := r.db.WithContext(ctx).
		Where("pair = ? AND status = ? AND created_at >= ?", pair, string(types.SignalStatusActive), since.Unix()).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
}

func (r *signalRepo) ListByStatus(ctx context.Context, status types.SignalStatus, limit int) ([]types.Signal, error) {
	var rows []storemodel.SignalModel
	q := r.db.WithContext(ctx).Where("status = ?", string(status)).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return signalsToDomain(rows)
}

func (r *signalRepo) ListRecent(ctx context.Context, limit int) ([]types.Signal, error) {
	var rows []storemodel.SignalModel
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return signalsToDomain(rows)
}

func (r *signalRepo) CountByStatus(ctx context.Context, status types.SignalStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&storemodel.SignalModel{}).
		Where("status = ?", string(status)).
		Count(&count).Error
	return count, err
}

func signalsToDomain(rows []storemodel.SignalModel) ([]types.Signal, error) {
	out := make([]types.Signal, 0, len(rows))
	for i := range rows {
		sig, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *sig)
	}
	return out, nil
}

type positionRepo struct {
	db *gorm.DB
}

func (r *positionRepo) Save(ctx context.Context, position *types.Position) error {
	if position == nil {
		return fmt.Errorf("gorm store: nil position")
	}
	row, err := storemodel.PositionFromDomain(position)
	if err != nil {
		return fmt.Errorf("encoding position failed: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("saving position failed: %w", err)
	}
	position.ID = row.ID
	return nil
}

func (r *positionRepo) FindByID(ctx context.Context, id int64) (*types.Position, error) {
	var row storemodel.PositionModel
	err := r.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
}

func (r *positionRepo) ListOpen(ctx context.Context) ([]types.Position, error) {
	return r.ListByStatus(ctx, types.PositionStatusOpen, 0)
}

func (r *positionRepo) ListByStatus(ctx context.Context, status types.PositionStatus, limit int) ([]types.Position, error) {
	var rows []storemodel.PositionModel
	q := r.db.WithContext(ctx).Where("status = ?", string(status)).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return positionsToDomain(rows)
}

func (r *positionRepo) ListRecent(ctx context.Context, limit int) ([]types.Position, error) {
	var rows []storemodel.PositionModel
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return positionsToDomain(rows)
}

func (r *positionRepo) CountByStatus(ctx context.Context, status types.PositionStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&storemodel.PositionModel{}).
		Where("status = ?", string(status)).
		Count(&count).Error
	return count, err
}

func positionsToDomain(rows []storemodel.PositionModel) ([]types.Position, error) {
	out := make([]types.Position, 0, len(rows))
	for i := range rows {
		pos, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *pos)
	}
	return out, nil
}
