// Package statestore persists in-progress call state between webhook
// events. The Redis store is the production implementation; Memory
// backs tests and single-node development.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"careline/internal/callflow"
)

const (
	stateKeyPrefix   = "callstate:"
	versionKeySuffix = ":ver"

	// DefaultTTL bounds how long an abandoned call's state survives.
	// Live calls refresh it on every saved transition.
	DefaultTTL = 30 * time.Minute
)

var casSaveScript = redis.NewScript(`
-- KEYS[1] = state key (json payload)
-- KEYS[2] = version key (integer)
-- ARGV[1] = expected version (int)
-- ARGV[2] = new version (int)
-- ARGV[3] = state json
-- ARGV[4] = ttl_ms (int)
--
-- Returns:
--  1 if saved
--  0 if the stored version no longer matches the expected one
local current = tonumber(redis.call('GET', KEYS[2]) or '0')
if current ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('SET', KEYS[1], ARGV[3], 'PX', ARGV[4])
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[4])
return 1
`)

// Redis stores each call's state as JSON with the version in a sibling
// integer key, so the save script compares versions without decoding
// the payload.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Load(ctx context.Context, callID string) (*callflow.CallState, error) {
	if callID == "" {
		return nil, fmt.Errorf("statestore: call id is required")
	}
	raw, err := r.rdb.Get(ctx, stateKeyPrefix+callID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, callflow.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: load %s: %w", callID, err)
	}
	var state callflow.CallState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("statestore: decode %s: %w", callID, err)
	}
	return &state, nil
}

// Save writes the state only when the stored version still matches
// state.Version; on success state.Version is advanced by one and the
// TTL restarts. A mismatch returns callflow.ErrVersionConflict and
// leaves both the stored and in-memory state untouched.
func (r *Redis) Save(ctx context.Context, state *callflow.CallState) error {
	if state == nil || state.CallID == "" {
		return fmt.Errorf("statestore: state with call id is required")
	}
	expected := state.Version
	next := expected + 1

	state.Version = next
	payload, err := json.Marshal(state)
	if err != nil {
		state.Version = expected
		return fmt.Errorf("statestore: encode %s: %w", state.CallID, err)
	}

	keys := []string{stateKeyPrefix + state.CallID, stateKeyPrefix + state.CallID + versionKeySuffix}
	res, err := casSaveScript.Run(ctx, r.rdb, keys, expected, next, payload, r.ttl.Milliseconds()).Int()
	if err != nil {
		state.Version = expected
		return fmt.Errorf("statestore: save %s: %w", state.CallID, err)
	}
	if res != 1 {
		state.Version = expected
		return callflow.ErrVersionConflict
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, callID string) error {
	if callID == "" {
		return fmt.Errorf("statestore: call id is required")
	}
	keys := []string{stateKeyPrefix + callID, stateKeyPrefix + callID + versionKeySuffix}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("statestore: delete %s: %w", callID, err)
	}
	return nil
}
