package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
)

// History holds the chat messages of one session.
type History struct {
	Messages []*schema.Message `json:"messages"`
}

// Repository persists per-session conversation history.
type Repository interface {
	Load(ctx context.Context, sessionID string) (*History, error)
	Save(ctx context.Context, sessionID string, history *History) error
	AddMessage(ctx context.Context, sessionID string, message *schema.Message) error
	Context(ctx context.Context, sessionID string, strategy ContextStrategy) (string, error)
}

// MemoryRepository keeps history in process memory, for development and tests.
type MemoryRepository struct {
	mu        sync.Mutex
	histories map[string]*History
}

// NewMemoryRepository creates an in-memory conversation repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{histories: make(map[string]*History)}
}

func (m *MemoryRepository) Load(ctx context.Context, sessionID string) (*History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, exists := m.histories[sessionID]
	if !exists {
		return &History{Messages: []*schema.Message{}}, nil
	}
	copied := &History{Messages: make([]*schema.Message, len(history.Messages))}
	copy(copied.Messages, history.Messages)
	return copied, nil
}

func (m *MemoryRepository) Save(ctx context.Context, sessionID string, history *History) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.histories[sessionID] = history
	return nil
}

func (m *MemoryRepository) AddMessage(ctx context.Context, sessionID string, message *schema.Message) error {
	history, err := m.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	history.Messages = append(history.Messages, message)
	return m.Save(ctx, sessionID, history)
}

func (m *MemoryRepository) Context(ctx context.Context, sessionID string, strategy ContextStrategy) (string, error) {
	history, err := m.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return strategy.BuildContext(history.Messages), nil
}

// RedisRepository persists history in Redis with a sliding TTL.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository creates a Redis-backed conversation repository
func NewRedisRepository(ctx context.Context, redisURL string, ttl time.Duration) (*RedisRepository, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRepository{
		client: client,
		ttl:    ttl,
	}, nil
}

func (r *RedisRepository) Load(ctx context.Context, sessionID string) (*History, error) {
	key := "conversation:" + sessionID
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return &History{Messages: []*schema.Message{}}, nil
		}
		return nil, err
	}

	var history History
	if err := sonic.UnmarshalString(data, &history); err != nil {
		return nil, err
	}

	// Refresh TTL
	r.client.Expire(ctx, key, r.ttl)
	return &history, nil
}

func (r *RedisRepository) Save(ctx context.Context, sessionID string, history *History) error {
	data, err := sonic.MarshalString(history)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, "conversation:"+sessionID, data, r.ttl).Err()
}

func (r *RedisRepository) AddMessage(ctx context.Context, sessionID string, message *schema.Message) error {
	history, err := r.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	history.Messages = append(history.Messages, message)
	return r.Save(ctx, sessionID, history)
}

func (r *RedisRepository) Context(ctx context.Context, sessionID string, strategy ContextStrategy) (string, error) {
	history, err := r.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return strategy.BuildContext(history.Messages), nil
}
