//go:build !runredis
// +build !runredis

package testutils

import (
	"testing"

	"github.com/redis/go-redis/v9"
)

func RedisIfAvailable(tb testing.TB) *redis.Client {
	tb.Helper()
	tb.Skip("skipping redis tests - use -tags=runredis to enable")
	return nil
}
