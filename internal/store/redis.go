package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

const (
	redisHistoryPrefix = "research:history:"
	redisHistoryIndex  = "research:history:index"
)

// RedisStore keeps each session as a JSON value plus a sorted-set index
// scored by save time.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (s *RedisStore) Save(ctx context.Context, sessionID, title string, messages []models.Message) error {
	now := s.now()
	raw, err := json.Marshal(models.HistoryEntry{SessionID: sessionID, Timestamp: now, Title: title, Messages: messages})
	if err != nil {
		return fmt.Errorf("redis save: encode: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisHistoryPrefix+sessionID, raw, 0)
		p.ZAdd(ctx, redisHistoryIndex, redis.Z{Score: float64(now.UnixNano()), Member: sessionID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.HistoryEntry, error) {
	raw, err := s.rdb.Get(ctx, redisHistoryPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var e models.HistoryEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("redis get: decode: %w", err)
	}
	return &e, nil
}

func (s *RedisStore) List(ctx context.Context) ([]models.HistoryEntry, error) {
	ids, err := s.rdb.ZRevRange(ctx, redisHistoryIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisHistoryPrefix + id
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	out := make([]models.HistoryEntry, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue // index entry outlived its value
		}
		var e models.HistoryEntry
		if err := json.Unmarshal([]byte(str), &e); err != nil {
			return nil, fmt.Errorf("redis list: decode: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, redisHistoryPrefix+sessionID)
		p.ZRem(ctx, redisHistoryIndex, sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
