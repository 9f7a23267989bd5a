package reporting

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps call records in memory. It backs tests and
// single-node development; durable deployments use Postgres.
type MemoryRepo struct {
	mu   sync.Mutex
	recs []CallRecord
	seen map[string]bool
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{seen: map[string]bool{}}
}

func (r *MemoryRepo) Insert(ctx context.Context, rec CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[rec.CallID] {
		return nil
	}
	r.seen[rec.CallID] = true
	r.recs = append(r.recs, rec)
	return nil
}

func (r *MemoryRepo) ListRange(ctx context.Context, from, to time.Time) ([]CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, 0)
	for _, rec := range r.recs {
		if rec.EndedAt.Before(from) || !rec.EndedAt.Before(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
