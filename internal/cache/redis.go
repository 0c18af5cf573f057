package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"g2-yoyodex/internal/logger"
)

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string // namespace inside the Redis DB
}

// RedisStore implements Store on Redis. Every key is namespaced under
// KeyPrefix so Clear never touches foreign keys in a shared DB.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	log       *logger.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig, log *logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "yoyodex"
	}

	s := &RedisStore{
		client:    client,
		keyPrefix: keyPrefix + ":",
		log:       logger.OrNop(log).Component("redis_store"),
	}
	s.log.Info("connected", "db", cfg.DB, "prefix", keyPrefix)
	return s, nil
}

func (s *RedisStore) key(k string) string {
	return s.keyPrefix + k
}

// Get retrieves a value by key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set stores a value; Redis handles expiry natively.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.key(key), value, ttl).Err()
}

// Delete removes a value by key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// Exists checks if a key exists.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Keys scans the namespace for keys with the given prefix.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	raw, err := s.scan(ctx, s.key(prefix))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, s.keyPrefix))
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes every key in the namespace.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.scan(ctx, s.keyPrefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, k := range keys {
		pipe.Del(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	s.log.Info("cleared namespace", "keys", len(keys))
	return nil
}

func (s *RedisStore) scan(ctx context.Context, prefix string) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, escapeGlob(prefix)+"*", 200).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			// SCAN may return a key more than once
			if strings.HasPrefix(k, prefix) {
				out = append(out, k)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return dedupe(out), nil
}

// Sweep is a no-op: Redis expires keys itself.
func (s *RedisStore) Sweep(ctx context.Context) (int64, error) {
	return 0, nil
}

// GetStats reports the number of keys in the namespace.
func (s *RedisStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	keys, err := s.scan(ctx, s.keyPrefix)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"type":       "redis",
		"prefix":     strings.TrimSuffix(s.keyPrefix, ":"),
		"total_keys": len(keys),
	}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
