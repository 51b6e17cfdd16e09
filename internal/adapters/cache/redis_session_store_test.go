package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/ports"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set; skipping redis integration test")
	}
	ctx := context.Background()
	client, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return client
}

func TestRedisSessionStoreLifecycle(t *testing.T) {
	client := newTestRedis(t)
	store := NewRedisSessionStore(client)
	ctx := context.Background()

	digest := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = client.Del(context.Background(), sessionKeyPrefix+digest).Err() })

	now := time.Now().UTC().Truncate(time.Second)
	record := ports.SessionRecord{
		AccountID: uuid.New(),
		Role:      string(domain.RoleAdmin),
		IssuedAt:  now,
		ExpiresAt: now.Add(10 * time.Minute),
	}
	if err := store.Put(ctx, digest, record); err != nil {
		t.Fatalf("put session: %v", err)
	}
	if err := store.Put(ctx, digest, record); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on second put, got %v", err)
	}

	ttl, err := client.TTL(ctx, sessionKeyPrefix+digest).Result()
	if err != nil {
		t.Fatalf("read ttl: %v", err)
	}
	if ttl <= 0 || ttl > 10*time.Minute {
		t.Fatalf("expected ttl tracking session expiry, got %s", ttl)
	}

	got, err := store.Get(ctx, digest)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.AccountID != record.AccountID || got.Role != record.Role || !got.ExpiresAt.Equal(record.ExpiresAt) {
		t.Fatalf("unexpected session %+v", got)
	}

	if err := store.Delete(ctx, digest); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if err := store.Delete(ctx, digest); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	if _, err := store.Get(ctx, digest); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestRedisSessionStoreMissingDigest(t *testing.T) {
	client := newTestRedis(t)
	store := NewRedisSessionStore(client)

	if _, err := store.Get(context.Background(), "missing-"+uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRedisSessionStoreShortTTLFloor(t *testing.T) {
	client := newTestRedis(t)
	store := NewRedisSessionStore(client)
	ctx := context.Background()

	digest := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = client.Del(context.Background(), sessionKeyPrefix+digest).Err() })

	now := time.Now()
	store.nowFn = func() time.Time { return now }
	if err := store.Put(ctx, digest, ports.SessionRecord{AccountID: uuid.New(), Role: "viewer", IssuedAt: now, ExpiresAt: now}); err != nil {
		t.Fatalf("put session: %v", err)
	}
	ttl, err := client.PTTL(ctx, sessionKeyPrefix+digest).Result()
	if err != nil {
		t.Fatalf("read ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Second {
		t.Fatalf("expected a one second ttl floor, got %s", ttl)
	}
}
