// Package turnlog persists completed chat turns to a local SQLite
// database. The log is optional: a nil *Store disables it and every
// method no-ops.
package turnlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL DEFAULT '',
	session_key TEXT NOT NULL DEFAULT '',
	platform    TEXT NOT NULL DEFAULT '',
	model       TEXT NOT NULL DEFAULT '',
	prompt      TEXT NOT NULL DEFAULT '',
	reply       TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, created_at);
`

// Turn is one logged conversation turn.
type Turn struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId,omitempty"`
	SessionKey string    `json:"sessionKey,omitempty"`
	Platform   string    `json:"platform"`
	Model      string    `json:"model,omitempty"`
	Prompt     string    `json:"prompt"`
	Reply      string    `json:"reply,omitempty"`
	Status     string    `json:"status"` // ok | error
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store writes turns through a single background writer so request
// handlers never block on disk.
type Store struct {
	db   *sql.DB
	ch   chan Turn
	done chan struct{}
	once sync.Once
}

// Open creates or opens the turn database at path and starts the
// writer. The caller owns Close.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open turn log: %w", err)
	}
	// modernc's driver serializes writes; one connection avoids
	// SQLITE_BUSY churn entirely.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init turn log schema: %w", err)
	}
	s := &Store{
		db:   db,
		ch:   make(chan Turn, 64),
		done: make(chan struct{}),
	}
	go s.writer()
	return s, nil
}

// Record queues a turn for persistence. Never blocks: when the queue
// is full the turn is dropped with a warning. Safe on a nil Store.
func (s *Store) Record(t Turn) {
	if s == nil {
		return
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	select {
	case s.ch <- t:
	default:
		slog.Warn("turn log queue full, dropping turn", "id", t.ID)
	}
}

func (s *Store) writer() {
	defer close(s.done)
	for t := range s.ch {
		_, err := s.db.Exec(
			`INSERT OR REPLACE INTO turns
			(id, session_id, session_key, platform, model, prompt, reply, status, error, duration_ms, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.SessionID, t.SessionKey, t.Platform, t.Model,
			t.Prompt, t.Reply, t.Status, t.Error, t.DurationMs, t.CreatedAt,
		)
		if err != nil {
			slog.Warn("turn log write failed", "id", t.ID, "error", err)
		}
	}
}

// Recent returns up to limit turns, newest first. Safe on a nil Store.
func (s *Store) Recent(ctx context.Context, limit int) ([]Turn, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, session_key, platform, model, prompt, reply, status, error, duration_ms, created_at
		FROM turns ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.SessionKey, &t.Platform, &t.Model,
			&t.Prompt, &t.Reply, &t.Status, &t.Error, &t.DurationMs, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// BySession returns a session's turns oldest first. Safe on a nil Store.
func (s *Store) BySession(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, session_key, platform, model, prompt, reply, status, error, duration_ms, created_at
		FROM turns WHERE session_id = ? ORDER BY created_at ASC, id ASC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.SessionKey, &t.Platform, &t.Model,
			&t.Prompt, &t.Reply, &t.Status, &t.Error, &t.DurationMs, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Close drains queued turns and closes the database. Safe on a nil
// Store and safe to call twice.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		close(s.ch)
	})
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		slog.Warn("turn log writer did not drain in time")
	}
	return s.db.Close()
}
