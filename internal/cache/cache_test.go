// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Cache integration tests. Skipped when Valkey is unavailable.
package cache

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testClient returns a Valkey client on DB 15, skipping if unreachable.
func testClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, responseKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func TestResponseCacheRoundTrip(t *testing.T) {
	rc := NewResponseCache(testClient(t), time.Minute)
	ctx := context.Background()

	if _, ok := rc.Get(ctx, ListKey()); ok {
		t.Fatal("expected miss on empty cache")
	}

	body := []byte(`[{"slug":"welcome"}]`)
	rc.Set(ctx, ListKey(), body)

	got, ok := rc.Get(ctx, ListKey())
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if !bytes.Equal(got, body) {
		t.Errorf("cached body mismatch: %q", got)
	}
}

func TestResponseCacheInvalidate(t *testing.T) {
	rc := NewResponseCache(testClient(t), time.Minute)
	ctx := context.Background()

	rc.Set(ctx, ListKey(), []byte("list"))
	rc.Set(ctx, SlugKey("welcome"), []byte("article"))

	rc.Invalidate(ctx, ListKey(), SlugKey("welcome"))

	if _, ok := rc.Get(ctx, ListKey()); ok {
		t.Error("list should be invalidated")
	}
	if _, ok := rc.Get(ctx, SlugKey("welcome")); ok {
		t.Error("slug entry should be invalidated")
	}
}

func TestResponseCacheTTL(t *testing.T) {
	rc := NewResponseCache(testClient(t), time.Second)
	ctx := context.Background()

	rc.Set(ctx, SlugKey("expiring"), []byte("x"))
	if _, ok := rc.Get(ctx, SlugKey("expiring")); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(1500 * time.Millisecond)
	if _, ok := rc.Get(ctx, SlugKey("expiring")); ok {
		t.Error("expected miss after TTL")
	}
}
