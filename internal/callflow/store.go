package callflow

import (
	"context"
	"errors"
)

var (
	// ErrStateNotFound means no conversation state exists for the call id.
	ErrStateNotFound = errors.New("callflow: call state not found")
	// ErrVersionConflict means another event committed a transition for
	// this call first; the caller lost the save race.
	ErrVersionConflict = errors.New("callflow: call state version conflict")
)

// Store persists CallState between webhook events. Save is
// compare-and-swap on CallState.Version: it writes only when the stored
// version still matches the loaded one, returning ErrVersionConflict
// otherwise. A successful Save leaves the state's Version incremented.
type Store interface {
	Load(ctx context.Context, callID string) (*CallState, error)
	Save(ctx context.Context, state *CallState) error
	Delete(ctx context.Context, callID string) error
}
