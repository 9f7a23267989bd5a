package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"careline/internal/callflow"
)

// Memory is an in-process store with the same compare-and-swap contract
// as Redis. States are kept serialized so callers never share memory
// with the stored copy.
type Memory struct {
	mu    sync.Mutex
	items map[string][]byte
	vers  map[string]int64
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string][]byte),
		vers:  make(map[string]int64),
	}
}

func (m *Memory) Load(ctx context.Context, callID string) (*callflow.CallState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[callID]
	if !ok {
		return nil, callflow.ErrStateNotFound
	}
	var state callflow.CallState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("statestore: decode %s: %w", callID, err)
	}
	return &state, nil
}

func (m *Memory) Save(ctx context.Context, state *callflow.CallState) error {
	if state == nil || state.CallID == "" {
		return fmt.Errorf("statestore: state with call id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.vers[state.CallID] != state.Version {
		return callflow.ErrVersionConflict
	}
	expected := state.Version
	state.Version = expected + 1
	raw, err := json.Marshal(state)
	if err != nil {
		state.Version = expected
		return fmt.Errorf("statestore: encode %s: %w", state.CallID, err)
	}
	m.items[state.CallID] = raw
	m.vers[state.CallID] = state.Version
	return nil
}

func (m *Memory) Delete(ctx context.Context, callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, callID)
	delete(m.vers, callID)
	return nil
}
