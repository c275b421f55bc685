package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS history (
    session_id TEXT PRIMARY KEY,
    timestamp  INTEGER NOT NULL,
    title      TEXT NOT NULL,
    messages   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
`

// SQLiteStore keeps history in a local database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the history file at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sessionID, title string, messages []models.Message) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("sqlite save: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO history (session_id, timestamp, title, messages) VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			timestamp = excluded.timestamp, title = excluded.title, messages = excluded.messages`,
		sessionID, s.now().UnixNano(), title, string(raw))
	if err != nil {
		return fmt.Errorf("sqlite save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (*models.HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, timestamp, title, messages FROM history WHERE session_id = ?`, sessionID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, timestamp, title, messages FROM history ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite list: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite list: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*models.HistoryEntry, error) {
	var (
		e   models.HistoryEntry
		ts  int64
		raw string
	)
	if err := sc.Scan(&e.SessionID, &ts, &e.Title, &raw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &e.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	e.Timestamp = time.Unix(0, ts)
	return &e, nil
}
