package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultAverageHandle is the per-caller handling estimate used when
// the deployment does not configure one.
const DefaultAverageHandle = 4 * time.Minute

// Service wraps the repository with position math and wait estimates.
type Service struct {
	repo      Repository
	avgHandle time.Duration
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, avgHandle time.Duration) *Service {
	if avgHandle <= 0 {
		avgHandle = DefaultAverageHandle
	}
	return &Service{repo: repo, avgHandle: avgHandle, clock: time.Now}
}

// EnqueueRequest parks a caller. CallID and CallerNumber are required;
// the rest is context for whoever works the queue.
type EnqueueRequest struct {
	CallID       string `json:"call_id"`
	CallerNumber string `json:"caller_number"`
	EmployeeID   string `json:"employee_id,omitempty"`
	ProviderID   string `json:"provider_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Enqueue adds the caller and returns their queued position. Calling it
// again for the same call id returns the existing position unchanged.
func (s *Service) Enqueue(ctx context.Context, req EnqueueRequest) (QueuedCall, error) {
	if req.CallID == "" || req.CallerNumber == "" {
		return QueuedCall{}, ErrInvalidArgument
	}
	entry := Entry{
		ID:           uuid.NewString(),
		CallID:       req.CallID,
		CallerNumber: req.CallerNumber,
		EmployeeID:   req.EmployeeID,
		ProviderID:   req.ProviderID,
		Reason:       req.Reason,
		EnqueuedAt:   s.clock().UTC(),
	}
	stored, pos, err := s.repo.Insert(ctx, entry)
	if err != nil {
		return QueuedCall{}, err
	}
	return QueuedCall{Entry: stored, Position: pos}, nil
}

// EstimatedWait converts a position into a wait estimate: the caller at
// position N waits roughly N average handling slots.
func (s *Service) EstimatedWait(position int) time.Duration {
	if position < 1 {
		return 0
	}
	return time.Duration(position) * s.avgHandle
}

// Lookup returns the caller's entry and current position.
func (s *Service) Lookup(ctx context.Context, callID string) (QueuedCall, error) {
	if callID == "" {
		return QueuedCall{}, ErrInvalidArgument
	}
	entry, pos, err := s.repo.Find(ctx, callID)
	if err != nil {
		return QueuedCall{}, err
	}
	return QueuedCall{Entry: entry, Position: pos}, nil
}

// Remove drops a caller from the queue; later callers move up.
func (s *Service) Remove(ctx context.Context, callID string) error {
	if callID == "" {
		return ErrInvalidArgument
	}
	return s.repo.Remove(ctx, callID)
}

// List returns the whole queue in service order with live positions.
func (s *Service) List(ctx context.Context) ([]QueuedCall, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]QueuedCall, len(entries))
	for i, e := range entries {
		out[i] = QueuedCall{Entry: e, Position: i + 1}
	}
	return out, nil
}

// Summarize reports depth and the oldest caller's wait so far.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{
		Depth:                len(entries),
		AverageHandleSeconds: int(s.avgHandle.Seconds()),
	}
	if len(entries) > 0 {
		sum.OldestWaitSeconds = int64(s.clock().UTC().Sub(entries[0].EnqueuedAt).Seconds())
		if sum.OldestWaitSeconds < 0 {
			sum.OldestWaitSeconds = 0
		}
	}
	return sum, nil
}

// Sweep removes entries older than maxAge and returns how many went.
func (s *Service) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, ErrInvalidArgument
	}
	cutoff := s.clock().UTC().Add(-maxAge)
	return s.repo.RemoveOlderThan(ctx, cutoff)
}
