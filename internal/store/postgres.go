package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

// PostgresStore keeps history in a PostgreSQL table.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

// Migrate creates the history table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS history (
			session_id TEXT PRIMARY KEY,
			timestamp  TIMESTAMPTZ NOT NULL,
			title      TEXT        NOT NULL,
			messages   JSONB       NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history (timestamp DESC)
	`)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, sessionID, title string, messages []models.Message) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("postgres save: encode: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO history (session_id, timestamp, title, messages)
		 VALUES ($1, $2, $3, $4::jsonb)
		 ON CONFLICT (session_id) DO UPDATE
		 SET timestamp = EXCLUDED.timestamp, title = EXCLUDED.title, messages = EXCLUDED.messages`,
		sessionID, s.now(), title, string(raw),
	)
	if err != nil {
		return fmt.Errorf("postgres save: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*models.HistoryEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT session_id, timestamp, title, messages FROM history WHERE session_id = $1`, sessionID)
	e, err := scanPgEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT session_id, timestamp, title, messages FROM history ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres list: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		e, err := scanPgEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres list: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM history WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPgEntry(row pgx.Row) (*models.HistoryEntry, error) {
	var (
		e   models.HistoryEntry
		raw []byte
	)
	if err := row.Scan(&e.SessionID, &e.Timestamp, &e.Title, &raw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &e.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return &e, nil
}
