package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/repo-gateway/internal/domain/repo"
	"github.com/target/repo-gateway/internal/ports"
)

const cachePrefix = "orgdir:"

// Cached fronts a directory with a Redis read-through cache for Resolve.
// Only successful lookups are cached; List always reads through.
type Cached struct {
	next   ports.OrganizationDirectory
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.OrganizationDirectory = (*Cached)(nil)

// CachedOptions configures a Cached directory.
type CachedOptions struct {
	Client redis.UniversalClient
	TTL    time.Duration // defaults to 5m
	Logger *slog.Logger
}

// NewCached wraps next. A nil client disables caching.
func NewCached(next ports.OrganizationDirectory, opts CachedOptions) *Cached {
	if next == nil {
		panic("directory: next directory is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, client: opts.Client, ttl: ttl, logger: logger.With("component", "directory_cache")}
}

func cacheKey(name string) string {
	return cachePrefix + strings.ToLower(strings.TrimSpace(name))
}

// Resolve serves from cache and falls back to the wrapped directory. Cache failures are logged, never returned.
func (c *Cached) Resolve(ctx context.Context, name string) (repo.Organization, error) {
	if c.client == nil {
		return c.next.Resolve(ctx, name)
	}

	key := cacheKey(name)
	if org, ok := c.get(ctx, key); ok {
		return org, nil
	}

	org, err := c.next.Resolve(ctx, name)
	if err != nil {
		return repo.Organization{}, err
	}
	c.set(ctx, key, org)
	return org, nil
}

// List reads through to the wrapped directory.
func (c *Cached) List(ctx context.Context) ([]repo.Organization, error) {
	return c.next.List(ctx)
}

// Invalidate drops the cached entry for name.
func (c *Cached) Invalidate(ctx context.Context, name string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, cacheKey(name)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *Cached) get(ctx context.Context, key string) (repo.Organization, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "directory cache read failed", "key", key, "error", err)
		}
		return repo.Organization{}, false
	}
	var org repo.Organization
	if err := json.Unmarshal(data, &org); err != nil {
		c.logger.WarnContext(ctx, "directory cache entry corrupt", "key", key, "error", err)
		return repo.Organization{}, false
	}
	return org, true
}

func (c *Cached) set(ctx context.Context, key string, org repo.Organization) {
	data, err := json.Marshal(org)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "directory cache write failed", "key", key, "error", err)
	}
}
