package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harvestlink/recipient-service/internal/domain"
)

// CacheClient is the subset of *redis.Client used by CachedDirectory.
type CacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedDirectory is a read-through cache in front of another directory.
// Cache failures are logged and bypassed; only the wrapped directory can fail
// a query. Results are served for at most ttl after they were read.
type CachedDirectory struct {
	next   RecipientDirectory
	client CacheClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedDirectory wraps next with a redis-backed result cache.
func NewCachedDirectory(next RecipientDirectory, client CacheClient, ttl time.Duration, logger *slog.Logger) *CachedDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDirectory{next: next, client: client, ttl: ttl, logger: logger}
}

// Query serves q from the cache when present, otherwise from the wrapped directory.
func (c *CachedDirectory) Query(ctx context.Context, q DirectoryQuery) ([]domain.Recipient, error) {
	key, err := cacheKey(q)
	if err != nil {
		c.logger.WarnContext(ctx, "directory cache bypassed", "error", err)
		return c.query(ctx, q)
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []domain.Recipient
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable directory cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "directory cache read failed", "key", key, "error", err)
	}

	recipients, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(recipients)
	if err != nil {
		c.logger.WarnContext(ctx, "directory cache encode failed", "error", err)
		return recipients, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "directory cache write failed", "key", key, "error", err)
	}
	return recipients, nil
}

func (c *CachedDirectory) query(ctx context.Context, q DirectoryQuery) ([]domain.Recipient, error) {
	recipients, err := c.next.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.CachedDirectory.Query: %w", err)
	}
	return recipients, nil
}

// cacheKey hashes the query so free-form type and capability tokens cannot
// collide with the key separator. Encoding fails for NaN or infinite
// coordinates, and such a query is never cached.
func cacheKey(q DirectoryQuery) (string, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.Sum256(b)
	return "recipients:directory:" + hex.EncodeToString(sum[:]), nil
}
