package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Override forces every escalation to dial one target for a bounded time.
// Ops set one when the usual transfer desk cannot take calls (an outage,
// a holiday closure) and clear it when the desk comes back. While active
// it wins over per-call and provider targets.
//
// Callers are never told an override is in effect; the dial simply goes
// to the forced target.

type Override struct {
	Target string `json:"target"`

	// Reason is a short internal note shown to other dispatchers.
	Reason string `json:"reason,omitempty"`

	// SetBy and AgencyID come from the ops token that created the
	// override; audit records for applications reuse them.
	SetBy    string `json:"set_by,omitempty"`
	AgencyID string `json:"agency_id,omitempty"`

	SetAt     time.Time `json:"set_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the override should still be honored at now.
func (o Override) Active(now time.Time) bool {
	return o.Target != "" && o.ExpiresAt.After(now)
}

var ErrInvalidOverride = errors.New("transfer: invalid override")

// OverrideStore holds at most one override.
//
// Keep this surface reachable only from privileged internal services;
// whoever can set the target controls where escalations land.
type OverrideStore interface {
	// Get returns the active override, if any. An expired override is
	// reported as absent.
	Get(ctx context.Context) (Override, bool, error)
	// Set replaces the current override. ExpiresAt must be in the future.
	Set(ctx context.Context, o Override) error
	// Clear removes the override. Clearing when none is set is not an error.
	Clear(ctx context.Context) error
}

func checkOverride(o Override, now time.Time) error {
	if o.Target == "" {
		return fmt.Errorf("%w: target required", ErrInvalidOverride)
	}
	if !o.ExpiresAt.After(now) {
		return fmt.Errorf("%w: expiry must be in the future", ErrInvalidOverride)
	}
	return nil
}

// MemoryOverrideStore backs tests and single-node development.
type MemoryOverrideStore struct {
	mu    sync.Mutex
	cur   Override
	has   bool
	clock func() time.Time
}

func NewMemoryOverrideStore() *MemoryOverrideStore {
	return &MemoryOverrideStore{clock: time.Now}
}

func (s *MemoryOverrideStore) Get(ctx context.Context) (Override, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.has || !s.cur.Active(s.clock()) {
		return Override{}, false, nil
	}
	return s.cur, true, nil
}

func (s *MemoryOverrideStore) Set(ctx context.Context, o Override) error {
	if err := checkOverride(o, s.clock()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = o
	s.has = true
	return nil
}

func (s *MemoryOverrideStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = Override{}
	s.has = false
	return nil
}
