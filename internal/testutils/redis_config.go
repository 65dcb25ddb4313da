//go:build runredis
// +build runredis

package testutils

import (
	"context"
	"flag"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisAddr = flag.String("redis-addr", "localhost:6379", "redis instance used by integration tests")

// RedisIfAvailable connects to the redis named by -redis-addr and fails the
// test if it does not answer a PING.
func RedisIfAvailable(tb testing.TB) *redis.Client {
	tb.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		tb.Fatalf("pinging redis at %s: %v", *redisAddr, err)
	}
	tb.Cleanup(func() { client.Close() })

	return client
}
