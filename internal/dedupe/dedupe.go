// Package dedupe remembers which notifications have already been handled.
// SNS delivers at least once, so the same MessageId can arrive more than once.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thomasdesr/mwspay/internal/errorutil"
)

const (
	DefaultTTL = 24 * time.Hour

	keyPrefix = "mwspay:ipn:"
)

// Deduper reports whether a notification id was seen before, recording it
// if not. Forget drops a record so a failed notification can be redelivered.
type Deduper interface {
	Seen(ctx context.Context, messageID string) (bool, error)
	Forget(ctx context.Context, messageID string) error
}

// Store is the subset of a redis client Redis needs.
type Store interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ Store = &redis.Client{}

// Redis records message ids with SETNX so concurrent receivers agree on
// which one handles a notification.
type Redis struct {
	store Store
	ttl   time.Duration
}

var _ Deduper = &Redis{}

// NewRedis returns a Redis deduper whose records expire after ttl, or after
// DefaultTTL when ttl is not positive.
func NewRedis(store Store, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{store: store, ttl: ttl}
}

func (r *Redis) Seen(ctx context.Context, messageID string) (bool, error) {
	stored, err := r.store.SetNX(ctx, Key(messageID), "1", r.ttl).Result()
	if err != nil {
		return false, errorutil.Wrap(err, "recording notification id")
	}

	return !stored, nil
}

func (r *Redis) Forget(ctx context.Context, messageID string) error {
	if err := r.store.Del(ctx, Key(messageID)).Err(); err != nil {
		return errorutil.Wrap(err, "forgetting notification id")
	}
	return nil
}

// Key is the redis key a message id is recorded under.
func Key(messageID string) string {
	sum := sha256.Sum256([]byte(messageID))
	return keyPrefix + hex.EncodeToString(sum[:])
}
