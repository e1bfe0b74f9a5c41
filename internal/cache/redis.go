// Package cache keeps pages of the public spot listing in Redis.
//
// CACHE-ASIDE WITH A GENERATION COUNTER:
// Keys embed a generation number read from spots:listing:gen. Any write
// that can change a listing (spot, image or review) bumps the generation
// with INCR, which orphans every cached page at once without a SCAN/DEL
// sweep. Orphaned pages expire on their own TTL.
//
//	spots:listing:gen          → 7
//	spots:listing:7:p1:s20     → [{"id":1,...}, ...]
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/rental-spots/internal/config"
	"github.com/sakif/rental-spots/internal/model"
)

const generationKey = "spots:listing:gen"

// Connect opens a client for cfg and checks it with PING.
func Connect(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: connecting to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// ListingCache stores JSON-encoded listing pages.
type ListingCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewListingCache(client redis.Cmdable, ttl time.Duration) *ListingCache {
	return &ListingCache{client: client, ttl: ttl}
}

func pageKey(gen int64, page, size int) string {
	return fmt.Sprintf("spots:listing:%d:p%d:s%d", gen, page, size)
}

// Generation returns the current listing generation. Callers read it once
// before querying the database and hand the same value to GetListing and
// SetListing, so a page read before an Invalidate is never stored under the
// generation that Invalidate created.
func (c *ListingCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: reading listing generation: %w", err)
	}
	return gen, nil
}

// GetListing returns the page cached under gen, or ok=false on a miss.
func (c *ListingCache) GetListing(ctx context.Context, gen int64, page, size int) ([]model.SpotListing, bool, error) {
	raw, err := c.client.Get(ctx, pageKey(gen, page, size)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: reading listing page: %w", err)
	}

	var spots []model.SpotListing
	if err := json.Unmarshal(raw, &spots); err != nil {
		return nil, false, fmt.Errorf("cache: decoding listing page: %w", err)
	}
	return spots, true, nil
}

// SetListing stores a page under gen.
func (c *ListingCache) SetListing(ctx context.Context, gen int64, page, size int, spots []model.SpotListing) error {
	raw, err := json.Marshal(spots)
	if err != nil {
		return fmt.Errorf("cache: encoding listing page: %w", err)
	}
	if err := c.client.Set(ctx, pageKey(gen, page, size), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: writing listing page: %w", err)
	}
	return nil
}

// Invalidate drops every cached page.
func (c *ListingCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("cache: bumping listing generation: %w", err)
	}
	return nil
}
