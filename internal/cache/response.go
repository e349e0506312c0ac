// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// response.go provides a Valkey-backed cache for the public article
// responses. The published list and each published article's JSON body are
// stored so repeat reads skip the database entirely. Any article mutation
// invalidates the list plus the touched slug.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// responseKeyPrefix is the Valkey key prefix for cached responses.
	responseKeyPrefix = "articles:"

	// DefaultResponseTTL is how long a cached response stays valid.
	DefaultResponseTTL = 5 * time.Minute
)

// ResponseCache manages public JSON response caching in Valkey.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache creates a response cache backed by the given Valkey client.
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl == 0 {
		ttl = DefaultResponseTTL
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// Get retrieves a cached response body. Returns (nil, false) on miss.
func (rc *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := rc.client.Get(ctx, responseKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("response cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("response cache hit", "key", key)
	return val, true
}

// Set stores a response body for a key with the configured TTL.
func (rc *ResponseCache) Set(ctx context.Context, key string, body []byte) {
	if err := rc.client.Set(ctx, responseKeyPrefix+key, body, rc.ttl).Err(); err != nil {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// Invalidate removes cached entries for the given keys.
func (rc *ResponseCache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := rc.client.Del(ctx, responseKeyPrefix+key).Err(); err != nil {
			slog.Warn("response cache invalidate error", "key", key, "error", err)
		}
	}
}

// ListKey returns the cache key for the published article list.
func ListKey() string {
	return "_list"
}

// SlugKey returns the cache key for a published article by slug.
func SlugKey(slug string) string {
	return "slug:" + slug
}
