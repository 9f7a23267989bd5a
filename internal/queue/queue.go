// Package queue implements the hold queue callers land in when no
// representative picks up a transfer. Ordering is strict FIFO on
// (enqueued_at, seq); seq breaks ties between entries stamped in the
// same instant.
package queue

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("queue: entry not found")
	ErrInvalidArgument = errors.New("queue: invalid argument")
)

// Entry is one parked caller.
type Entry struct {
	ID           string    `json:"id"`
	CallID       string    `json:"call_id"`
	CallerNumber string    `json:"caller_number"`
	EmployeeID   string    `json:"employee_id,omitempty"`
	ProviderID   string    `json:"provider_id,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
	Seq          int64     `json:"seq"`
}

// QueuedCall pairs an entry with its live 1-based position.
type QueuedCall struct {
	Entry
	Position int `json:"position"`
}

// Summary describes the queue for the ops API.
type Summary struct {
	Depth                int   `json:"depth"`
	OldestWaitSeconds    int64 `json:"oldest_wait_seconds"`
	AverageHandleSeconds int   `json:"average_handle_seconds"`
}

// Repository stores queue entries. Insert is idempotent per call id:
// re-inserting an already queued call returns the existing entry and
// its current position instead of a duplicate.
type Repository interface {
	Insert(ctx context.Context, e Entry) (Entry, int, error)
	Find(ctx context.Context, callID string) (Entry, int, error)
	Remove(ctx context.Context, callID string) error
	List(ctx context.Context) ([]Entry, error)
	RemoveOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
