package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Kind labels a lifecycle event in the journal.
type Kind string

const (
	KindSignal    Kind = "signal"
	KindOpened    Kind = "position_opened"
	KindTargetHit Kind = "target_hit"
	KindStopLoss  Kind = "stop_loss"
	KindReversal  Kind = "reversal"
	KindClosed    Kind = "position_closed"
)

// Record is one journal row. PositionID/SignalID are zero when not applicable.
type Record struct {
	ID         int64     `json:"id"`
	Kind       Kind      `json:"kind"`
	Pair       string    `json:"pair"`
	SignalID   int64     `json:"signal_id,omitempty"`
	PositionID int64     `json:"position_id,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store keeps an append-only journal of emitted lifecycle events, so the read
// API can replay what was pushed without depending on the notification channel.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open creates or opens the journal database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("eventlog: db path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, path: path}
	if err := s.bootstrap(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) bootstrap() error {
	const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	pair TEXT NOT NULL DEFAULT '',
	signal_id INTEGER NOT NULL DEFAULT 0,
	position_id INTEGER NOT NULL DEFAULT 0,
	message TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts one record. The caller treats failures as log-only; the
// journal never blocks a lifecycle operation.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("eventlog: store not initialized")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (kind, pair, signal_id, position_id, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		string(rec.Kind), rec.Pair, rec.SignalID, rec.PositionID, rec.Message, rec.CreatedAt.Unix(),
	)
	return err
}

// ListRecent returns up to limit records, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("eventlog: store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, pair, signal_id, position_id, message, created_at FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		var kind string
		var created int64
		if err := rows.Scan(&rec.ID, &kind, &rec.Pair, &rec.SignalID, &rec.PositionID, &rec.Message, &created); err != nil {
			return nil, err
		}
		rec.Kind = Kind(kind)
		rec.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the journal database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
