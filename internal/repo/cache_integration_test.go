//go:build integration

package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestlink/recipient-service/internal/repo"
	"github.com/harvestlink/recipient-service/testutil/containers"
)

func TestCachedDirectory_Redis(t *testing.T) {
	client := containers.NewRedisClient(t)
	ctx := context.Background()

	r := recipientAt("cached", 13.0, 77.6)
	inner := &countingDirectory{next: repo.NewMemoryDirectory(r)}
	d := repo.NewCachedDirectory(inner, client, time.Minute, nil)
	q := foodQuery(12.9716, 77.5946, 25000)

	first, err := d.Query(ctx, q)
	require.NoError(t, err)
	second, err := d.Query(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)

	keys, err := client.Keys(ctx, "recipients:directory:*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)

	ttl, err := client.TTL(ctx, keys[0]).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestCachedDirectory_RedisExpiry(t *testing.T) {
	client := containers.NewRedisClient(t)
	ctx := context.Background()

	inner := &countingDirectory{next: repo.NewMemoryDirectory(recipientAt("r", 13.0, 77.6))}
	d := repo.NewCachedDirectory(inner, client, time.Second, nil)
	q := foodQuery(12.9716, 77.5946, 25000)

	_, err := d.Query(ctx, q)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		keys, err := client.Keys(ctx, "recipients:directory:*").Result()
		return err == nil && len(keys) == 0
	}, 5*time.Second, 100*time.Millisecond)

	_, err = d.Query(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
