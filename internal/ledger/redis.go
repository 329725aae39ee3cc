package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces ledger keys in a shared Redis database
const DefaultRedisPrefix = "receipt-calendar:expenses:"

// RedisConfig holds the connection settings for RedisStore
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore implements Store on top of Redis string values
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

// Get returns the expenses stored under key
func (r *RedisStore) Get(ctx context.Context, key string) ([]Expense, error) {
	expenses := make([]Expense, 0)
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return expenses, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, &expenses); err != nil {
		return nil, fmt.Errorf("unmarshaling expenses for %s: %w", key, err)
	}
	return expenses, nil
}

// Put replaces the expenses stored under key
func (r *RedisStore) Put(ctx context.Context, key string, expenses []Expense) error {
	if len(expenses) == 0 {
		if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
			return fmt.Errorf("deleting %s: %w", key, err)
		}
		return nil
	}

	data, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("marshaling expenses: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
