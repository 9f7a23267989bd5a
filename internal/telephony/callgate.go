package telephony

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"careline/pkg/utils"
)

const callSlotsKey = "callslots:active"

// DefaultSlotMaxAge bounds how long a slot survives a missed status
// callback.
const DefaultSlotMaxAge = 4 * time.Hour

// CallGate caps how many calls the agent serves at once. Callers over
// the cap hear a busy message instead of tying up call state, hold
// slots and telephony minutes.
type CallGate struct {
	rdb    *redis.Client
	limit  int
	maxAge time.Duration
}

func NewCallGate(rdb *redis.Client, limit int, maxAge time.Duration) *CallGate {
	if maxAge <= 0 {
		maxAge = DefaultSlotMaxAge
	}
	return &CallGate{rdb: rdb, limit: limit, maxAge: maxAge}
}

// Admit claims a slot for callID. Admitting a call that already holds
// one succeeds, so a retried inbound webhook cannot double-count.
func (g *CallGate) Admit(ctx context.Context, callID string) (bool, error) {
	return utils.AcquireSlot(ctx, g.rdb, callSlotsKey, callID, g.limit, g.maxAge)
}

// Release frees callID's slot. Unknown ids are a no-op; a rejected
// call's status callback must not free someone else's slot.
func (g *CallGate) Release(ctx context.Context, callID string) error {
	return utils.ReleaseSlot(ctx, g.rdb, callSlotsKey, callID)
}
