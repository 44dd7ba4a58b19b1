// Package store provides a SQLite-backed turn history log for the FAQ bot.
// Each chat session has its own thread of question/answer turns, persisted
// across restarts for later review.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Role identifies the author of a turn.
type Role string

const (
	// RoleUser is a question asked by the human operator.
	RoleUser Role = "user"
	// RoleAssistant is an answer produced by the model.
	RoleAssistant Role = "assistant"
)

// Turn is a single question or answer within a session.
type Turn struct {
	// SessionID identifies the chat session the turn belongs to.
	SessionID string
	// Role is the author of the turn.
	Role Role
	// Content is the text of the turn.
	Content string
	// CreatedAt is when the turn was persisted.
	CreatedAt time.Time
}

// TurnLog persists and retrieves turn history keyed by session ID.
// Implementations must be safe for concurrent use.
type TurnLog interface {
	// Append persists a single turn for the given session.
	Append(ctx context.Context, sessionID string, role Role, content string) error
	// Recent returns the most recent n turns for the session, ordered
	// oldest-first. If fewer than n turns exist, all are returned.
	Recent(ctx context.Context, sessionID string, n int) ([]Turn, error)
	// Close releases any resources held by the log.
	Close() error
}

// SQLiteStore is a TurnLog backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns the default path for the turn history database.
// It resolves to ~/.faqbot/history.db, creating the directory if needed.
// The FAQBOT_HISTORY_DB environment variable overrides it entirely.
func DefaultDBPath() (string, error) {
	if p := os.Getenv("FAQBOT_HISTORY_DB"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".faqbot")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS turns (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session      TEXT    NOT NULL,
    role         TEXT    NOT NULL CHECK(role IN ('user','assistant')),
    content      TEXT    NOT NULL,
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_turns_session_created
    ON turns (session, created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Append persists a single turn for the given session.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, role Role, content string) error {
	const q = `INSERT INTO turns (session, role, content, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, sessionID, string(role), content, time.Now().Unix()); err != nil {
		return fmt.Errorf("store: append: %w", err)
	}
	return nil
}

// Recent returns the most recent n turns for the session, ordered
// oldest-first. Uses a subquery to select the tail then re-order.
func (s *SQLiteStore) Recent(ctx context.Context, sessionID string, n int) ([]Turn, error) {
	const q = `
SELECT session, role, content, created_at FROM (
    SELECT id, session, role, content, created_at
    FROM   turns
    WHERE  session = ?
    ORDER  BY created_at DESC, id DESC
    LIMIT  ?
) ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var ts int64
		var role string
		if err := rows.Scan(&t.SessionID, &role, &t.Content, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		t.Role = Role(role)
		t.CreatedAt = time.Unix(ts, 0)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return turns, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
