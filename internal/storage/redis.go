package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists session state in Redis as a single JSON blob per
// session, refreshed with a TTL on every write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-backed store from a redis:// URL
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
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

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

// Create installs state for the session, replacing any existing state
func (r *RedisStore) Create(ctx context.Context, userID, sessionID string, state map[string]any) error {
	if state == nil {
		state = map[string]any{}
	}
	return r.save(ctx, userID, sessionID, state)
}

// Get returns a snapshot of the session state
func (r *RedisStore) Get(ctx context.Context, userID, sessionID string) (map[string]any, error) {
	data, err := r.client.Get(ctx, r.key(userID, sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session state: %w", err)
	}

	var state map[string]any
	if err := sonic.UnmarshalString(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return state, nil
}

// Merge writes update keys into the existing session state
func (r *RedisStore) Merge(ctx context.Context, userID, sessionID string, update map[string]any) error {
	state, err := r.Get(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	for key, value := range update {
		state[key] = value
	}
	return r.save(ctx, userID, sessionID, state)
}

// Delete removes the session
func (r *RedisStore) Delete(ctx context.Context, userID, sessionID string) error {
	if err := r.client.Del(ctx, r.key(userID, sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) save(ctx context.Context, userID, sessionID string, state map[string]any) error {
	data, err := sonic.MarshalString(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	if err := r.client.Set(ctx, r.key(userID, sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session state: %w", err)
	}
	return nil
}

func (r *RedisStore) key(userID, sessionID string) string {
	return "pipeline:state:" + sessionKey(userID, sessionID)
}
