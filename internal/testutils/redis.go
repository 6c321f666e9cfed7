// Package testutils provides shared helpers for tests: in-memory Redis,
// temp-dir run history and deterministic dice.
package testutils

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/hall-runner/internal/redis"
)

// CreateTestRedisClient creates an in-memory Redis client for testing.
// The server is closed when the test ends.
func CreateTestRedisClient(t *testing.T) (redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redis.NewClient(mr.Addr(), nil)
	require.NoError(t, err, "failed to create redis client")
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

// FlushTestRedis removes every key so a shared client can be reused
func FlushTestRedis(ctx context.Context, client redis.Client) error {
	return client.FlushAll(ctx).Err()
}
