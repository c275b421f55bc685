// Package store persists session history and archived attachments.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/config"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

// ErrNotFound is returned by Get for unknown session ids.
var ErrNotFound = errors.New("store: session not found")

// HistoryStore saves each session's title and messages under its id.
// Save upserts with the current time as timestamp; List returns newest first;
// Delete of an unknown id is a no-op.
type HistoryStore interface {
	Save(ctx context.Context, sessionID, title string, messages []models.Message) error
	Get(ctx context.Context, sessionID string) (*models.HistoryEntry, error)
	List(ctx context.Context) ([]models.HistoryEntry, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// OpenHistory connects the backend named by cfg.HistoryBackend.
func OpenHistory(ctx context.Context, cfg *config.Config) (HistoryStore, error) {
	switch cfg.HistoryBackend {
	case "", "sqlite":
		return NewSQLiteStore(cfg.HistoryPath)
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		s := NewPostgresStore(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return s, nil
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		return NewMongoStore(client, cfg.MongoDB), nil
	case "redis":
		rdb, err := NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		return NewRedisStore(rdb), nil
	}
	return nil, fmt.Errorf("unsupported history backend %q", cfg.HistoryBackend)
}
