// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// content.go caches the JSON bodies of public listings whose visibility
// does not depend on the clock: FAQs, references and downloads. Posts, and
// the category and tag lists that count them, are never cached because
// visibility is decided against the current time on every read.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	contentKeyPrefix = "public:"

	// DefaultContentTTL bounds how stale a listing can get if an
	// invalidation is lost.
	DefaultContentTTL = 5 * time.Minute
)

// Keys of the cached public listings.
const (
	KeyFAQs       = "faqs"
	KeyReferences = "references"
	KeyDownloads  = "downloads"
)

// ContentCache stores rendered JSON listings in Valkey. Every method is
// best-effort: Valkey errors are logged and treated as a miss.
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewContentCache creates a content cache backed by the given Valkey client.
func NewContentCache(client *redis.Client, ttl time.Duration) *ContentCache {
	if ttl <= 0 {
		ttl = DefaultContentTTL
	}
	return &ContentCache{client: client, ttl: ttl}
}

// Get returns the cached body for key.
func (c *ContentCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, contentKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("content cache get error", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

// Set stores body under key with the configured TTL.
func (c *ContentCache) Set(ctx context.Context, key string, body []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, contentKeyPrefix+key, body, c.ttl).Err(); err != nil {
		slog.Warn("content cache set error", "key", key, "error", err)
	}
}

// Invalidate removes the given listings. Keys that have variants (such as
// FAQs filtered by category) are removed together with their variants.
func (c *ContentCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil {
		return
	}
	for _, key := range keys {
		c.deletePattern(ctx, contentKeyPrefix+key+"*")
	}
}

// InvalidateAll removes every cached listing.
func (c *ContentCache) InvalidateAll(ctx context.Context) {
	if c == nil {
		return
	}
	c.deletePattern(ctx, contentKeyPrefix+"*")
}

func (c *ContentCache) deletePattern(ctx context.Context, pattern string) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("content cache scan error", "pattern", pattern, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("content cache delete error", "pattern", pattern, "error", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// VariantKey returns the key of a filtered variant of a listing.
func VariantKey(key, variant string) string {
	if variant == "" {
		return key
	}
	return key + ":" + variant
}
