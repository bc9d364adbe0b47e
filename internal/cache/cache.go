// Package cache is a JSON read-through cache over Redis. A Helper built on a
// nil client is valid and behaves as a permanent miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CoursePrefix namespaces course detail entries.
const CoursePrefix = "course:"

// Helper stores JSON values under a key prefix.
type Helper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewHelper returns a helper. client may be nil.
func NewHelper(client *redis.Client, prefix string, ttl time.Duration) *Helper {
	return &Helper{client: client, prefix: prefix, ttl: ttl}
}

// Enabled reports whether a Redis client backs the helper.
func (h *Helper) Enabled() bool {
	return h != nil && h.client != nil
}

func (h *Helper) key(k string) string {
	return h.prefix + k
}

// Get loads key into dest.
func (h *Helper) Get(ctx context.Context, key string, dest any) error {
	if !h.Enabled() {
		return ErrCacheNotAvailable
	}

	data, err := h.client.Get(ctx, h.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal: %w", err)
	}
	return nil
}

// Set stores value under key with the helper TTL.
func (h *Helper) Set(ctx context.Context, key string, value any) error {
	if !h.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return h.client.Set(ctx, h.key(key), data, h.ttl).Err()
}

// Delete removes keys.
func (h *Helper) Delete(ctx context.Context, keys ...string) error {
	if !h.Enabled() || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = h.key(k)
	}
	return h.client.Del(ctx, full...).Err()
}

// GetOrLoad implements cache-aside: a hit fills dest from Redis, a miss or
// cache failure calls load and stores its result. Cache failures are
// reported through onErr and never fail the read.
func GetOrLoad[T any](ctx context.Context, h *Helper, key string, load func() (T, error), onErr func(error)) (T, error) {
	var cached T
	err := h.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) && onErr != nil {
		onErr(err)
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := h.Set(ctx, key, value); err != nil && onErr != nil {
		onErr(err)
	}
	return value, nil
}
