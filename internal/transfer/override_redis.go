package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const overrideKey = "transfer:override"

// RedisOverrideStore keeps the override as a JSON value whose key TTL
// matches the override expiry, so a forgotten override removes itself.
type RedisOverrideStore struct {
	rdb   *redis.Client
	clock func() time.Time
}

func NewRedisOverrideStore(rdb *redis.Client) *RedisOverrideStore {
	return &RedisOverrideStore{rdb: rdb, clock: time.Now}
}

func (s *RedisOverrideStore) Get(ctx context.Context) (Override, bool, error) {
	raw, err := s.rdb.Get(ctx, overrideKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Override{}, false, nil
	}
	if err != nil {
		return Override{}, false, fmt.Errorf("transfer: load override: %w", err)
	}
	var o Override
	if err := json.Unmarshal(raw, &o); err != nil {
		return Override{}, false, fmt.Errorf("transfer: decode override: %w", err)
	}
	// The key TTL normally removes stale overrides; re-check for skew.
	if !o.Active(s.clock()) {
		return Override{}, false, nil
	}
	return o, true, nil
}

func (s *RedisOverrideStore) Set(ctx context.Context, o Override) error {
	now := s.clock()
	if err := checkOverride(o, now); err != nil {
		return err
	}
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("transfer: encode override: %w", err)
	}
	if err := s.rdb.Set(ctx, overrideKey, payload, o.ExpiresAt.Sub(now)).Err(); err != nil {
		return fmt.Errorf("transfer: save override: %w", err)
	}
	return nil
}

func (s *RedisOverrideStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, overrideKey).Err(); err != nil {
		return fmt.Errorf("transfer: clear override: %w", err)
	}
	return nil
}
