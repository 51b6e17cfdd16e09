package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/ports"
)

const sessionKeyPrefix = "huntress:session:"

// RedisSessionStore keeps sessions as JSON values whose key TTL tracks the
// session expiry, so Redis drops them on its own once they lapse.
type RedisSessionStore struct {
	client *redis.Client
	nowFn  func() time.Time
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, nowFn: time.Now}
}

func (s *RedisSessionStore) Put(ctx context.Context, digest string, record ports.SessionRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	ttl := record.ExpiresAt.Sub(s.nowFn())
	if ttl < time.Second {
		ttl = time.Second
	}
	ok, err := s.client.SetNX(ctx, sessionKeyPrefix+digest, raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrConflict
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, digest string) (ports.SessionRecord, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+digest).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.SessionRecord{}, domain.ErrNotFound
		}
		return ports.SessionRecord{}, err
	}
	var out ports.SessionRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		return ports.SessionRecord{}, err
	}
	return out, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, digest string) error {
	return s.client.Del(ctx, sessionKeyPrefix+digest).Err()
}

// CountActive counts live session keys. Keys past their TTL are already gone,
// so the result does not depend on now.
func (s *RedisSessionStore) CountActive(ctx context.Context, _ time.Time) (int64, error) {
	var (
		n      int64
		cursor uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, sessionKeyPrefix+"*", 500).Result()
		if err != nil {
			return 0, err
		}
		n += int64(len(keys))
		if next == 0 {
			return n, nil
		}
		cursor = next
	}
}
