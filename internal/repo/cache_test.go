package repo_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestlink/recipient-service/internal/domain"
	"github.com/harvestlink/recipient-service/internal/repo"
)

// fakeCache is an in-memory repo.CacheClient. getErr and setErr simulate an
// unreachable redis.
type fakeCache struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCache) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

var _ repo.CacheClient = (*fakeCache)(nil)

// countingDirectory counts calls to the wrapped directory.
type countingDirectory struct {
	next  repo.RecipientDirectory
	err   error
	calls int
}

func (c *countingDirectory) Query(ctx context.Context, q repo.DirectoryQuery) ([]domain.Recipient, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.next.Query(ctx, q)
}

// staticDirectory returns the same recipients for every query.
type staticDirectory []domain.Recipient

func (s staticDirectory) Query(context.Context, repo.DirectoryQuery) ([]domain.Recipient, error) {
	return s, nil
}

func TestCachedDirectory_MissThenHit(t *testing.T) {
	r := recipientAt("cached", 13.0, 77.6)
	inner := &countingDirectory{next: repo.NewMemoryDirectory(r)}
	cache := newFakeCache()
	d := repo.NewCachedDirectory(inner, cache, 30*time.Second, nil)
	q := foodQuery(12.9716, 77.5946, 25000)

	first, err := d.Query(context.Background(), q)
	require.NoError(t, err)
	second, err := d.Query(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].OpenIntervals, second[0].OpenIntervals)
	for _, ttl := range cache.ttls {
		assert.Equal(t, 30*time.Second, ttl)
	}
}

func TestCachedDirectory_DistinctQueriesDoNotShareEntries(t *testing.T) {
	inner := &countingDirectory{next: repo.NewMemoryDirectory(recipientAt("r", 13.0, 77.6))}
	d := repo.NewCachedDirectory(inner, newFakeCache(), time.Minute, nil)

	_, err := d.Query(context.Background(), foodQuery(12.9716, 77.5946, 25000))
	require.NoError(t, err)
	_, err = d.Query(context.Background(), foodQuery(12.9716, 77.5946, 1000))
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedDirectory_ReadFailureFallsThrough(t *testing.T) {
	inner := &countingDirectory{next: repo.NewMemoryDirectory(recipientAt("r", 13.0, 77.6))}
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	d := repo.NewCachedDirectory(inner, cache, time.Minute, nil)

	got, err := d.Query(context.Background(), foodQuery(12.9716, 77.5946, 25000))

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedDirectory_CorruptEntryIgnored(t *testing.T) {
	inner := &countingDirectory{next: repo.NewMemoryDirectory(recipientAt("r", 13.0, 77.6))}
	cache := newFakeCache()
	d := repo.NewCachedDirectory(inner, cache, time.Minute, nil)
	q := foodQuery(12.9716, 77.5946, 25000)

	_, err := d.Query(context.Background(), q)
	require.NoError(t, err)
	for k := range cache.data {
		cache.data[k] = "{not json"
	}

	got, err := d.Query(context.Background(), q)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedDirectory_StoreErrorNotCached(t *testing.T) {
	inner := &countingDirectory{err: domain.ErrStoreUnavailable}
	cache := newFakeCache()
	d := repo.NewCachedDirectory(inner, cache, time.Minute, nil)

	_, err := d.Query(context.Background(), foodQuery(0, 0, 1000))

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Empty(t, cache.data)
}

func TestCachedDirectory_EntryIsJSON(t *testing.T) {
	inner := &countingDirectory{next: repo.NewMemoryDirectory(recipientAt("r", 13.0, 77.6))}
	cache := newFakeCache()
	d := repo.NewCachedDirectory(inner, cache, time.Minute, nil)

	_, err := d.Query(context.Background(), foodQuery(12.9716, 77.5946, 25000))
	require.NoError(t, err)

	require.Len(t, cache.data, 1)
	for k, v := range cache.data {
		assert.Contains(t, k, "recipients:directory:")
		var decoded []domain.Recipient
		assert.NoError(t, json.Unmarshal([]byte(v), &decoded))
	}
}

func TestCachedDirectory_UnencodableQueryBypassesCache(t *testing.T) {
	inner := &countingDirectory{next: staticDirectory{recipientAt("r", 13.0, 77.6)}}
	cache := newFakeCache()
	d := repo.NewCachedDirectory(inner, cache, time.Minute, nil)
	q := foodQuery(12.9716, 77.5946, math.NaN())

	for range 2 {
		got, err := d.Query(context.Background(), q)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}

	assert.Equal(t, 2, inner.calls)
	assert.Empty(t, cache.data)
}
