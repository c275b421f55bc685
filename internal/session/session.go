// Package session holds the explicit per-client conversation context: which
// session is open, its title, sidebar preferences and messages so far.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

const (
	DefaultTTL    = 24 * time.Hour
	SessionCookie = "research_session"
	DefaultTitle  = "New Chat"

	WelcomeGreeting    = "Welcome! I'm your research assistant. What topic should I research for you today?."
	NewSessionGreeting = "Started a new session."
)

// ErrNotFound is returned for unknown or expired contexts.
var ErrNotFound = errors.New("session: not found")

// Context is one open conversation.
type Context struct {
	ID                string                   `json:"id"`
	Title             string                   `json:"title"`
	SummaryPreference models.SummaryPreference `json:"summary_preference"`
	SourceFocus       models.SourceFocus       `json:"source_focus"`
	Messages          []models.Message         `json:"messages"`
}

// NewID returns a session id of the form sid_YYYYMMDD_HHMMSS_xxxxxx.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("sid_%s_%s", now.Format("20060102_150405"), suffix)
}

// New creates a fresh context opened by an assistant greeting.
func New(greeting string, now time.Time) *Context {
	return &Context{
		ID:                NewID(now),
		Title:             DefaultTitle,
		SummaryPreference: models.SummaryShort,
		SourceFocus:       models.FocusScholarly,
		Messages: []models.Message{
			{Role: models.RoleAssistant, Kind: models.KindAssistantPlain, Content: greeting},
		},
	}
}

// FromHistory opens a saved session, keeping the preferences of the current
// context when there is one.
func FromHistory(e *models.HistoryEntry, current *Context) *Context {
	c := &Context{
		ID:                e.SessionID,
		Title:             e.Title,
		SummaryPreference: models.SummaryShort,
		SourceFocus:       models.FocusScholarly,
		Messages:          append([]models.Message(nil), e.Messages...),
	}
	if current != nil {
		c.SummaryPreference = current.SummaryPreference
		c.SourceFocus = current.SourceFocus
	}
	return c
}

// Append adds a message to the conversation.
func (c *Context) Append(m models.Message) {
	c.Messages = append(c.Messages, m)
}

// Store keeps contexts between requests.
type Store interface {
	Get(ctx context.Context, id string) (*Context, error)
	Put(ctx context.Context, c *Context) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps contexts in process; they vanish on exit.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	contexts map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, contexts: make(map[string]memoryEntry)}
}

// Get returns a copy of the stored context.
func (s *MemoryStore) Get(_ context.Context, id string) (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.contexts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(e.expires) {
		delete(s.contexts, id)
		return nil, ErrNotFound
	}
	var c Context
	if err := json.Unmarshal(e.data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MemoryStore) Put(_ context.Context, c *Context) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[c.ID] = memoryEntry{data: data, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, id)
	return nil
}

const redisSessionPrefix = "research:session:"

// RedisStore wraps Redis for context storage; each Put refreshes the TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Context, error) {
	val, err := s.rdb.Get(ctx, redisSessionPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var c Context
	if err := json.Unmarshal(val, &c); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Put(ctx context.Context, c *Context) error {
	val, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisSessionPrefix+c.ID, val, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisSessionPrefix+id).Err()
}
