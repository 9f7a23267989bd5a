package queue

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory keeps the queue in process memory with the same ordering and
// idempotency rules as Postgres. Used by tests and local development.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	nextSeq int64
}

func NewMemory() *Memory {
	return &Memory{nextSeq: 1}
}

func (m *Memory) Insert(ctx context.Context, e Entry) (Entry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(e.CallID); i >= 0 {
		return m.entries[i], i + 1, nil
	}
	e.Seq = m.nextSeq
	m.nextSeq++
	m.entries = append(m.entries, e)
	m.sortLocked()
	return e, m.indexOf(e.CallID) + 1, nil
}

func (m *Memory) Find(ctx context.Context, callID string) (Entry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(callID)
	if i < 0 {
		return Entry{}, 0, ErrNotFound
	}
	return m.entries[i], i + 1, nil
}

func (m *Memory) Remove(ctx context.Context, callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(callID)
	if i < 0 {
		return ErrNotFound
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	return nil
}

func (m *Memory) List(ctx context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *Memory) RemoveOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	removed := 0
	for _, e := range m.entries {
		if e.EnqueuedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed, nil
}

func (m *Memory) indexOf(callID string) int {
	for i, e := range m.entries {
		if e.CallID == callID {
			return i
		}
	}
	return -1
}

func (m *Memory) sortLocked() {
	sort.SliceStable(m.entries, func(i, j int) bool {
		if m.entries[i].EnqueuedAt.Equal(m.entries[j].EnqueuedAt) {
			return m.entries[i].Seq < m.entries[j].Seq
		}
		return m.entries[i].EnqueuedAt.Before(m.entries[j].EnqueuedAt)
	})
}
