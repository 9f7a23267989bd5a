package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only. No Update/Delete methods are provided.

type Repository interface {
	Append(ctx context.Context, e Event) error
	// ListRecent returns up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Service records privileged activity: queue interventions and transfer
// override changes.
//
// IMPORTANT:
// - Audit is internal-only; records never reach callers.
// - Callers treat appends as best-effort. A failed append must never
//   abort the action it describes.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

const defaultListLimit = 50
const maxListLimit = 500

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.AgencyID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// ListRecent returns the newest events for admin review.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

// LogQueueRemoved records a dispatcher dropping a caller from the hold queue.
func (s *Service) LogQueueRemoved(ctx context.Context, agencyID, actorUserID, actorRole, ip, callID, reason string) error {
	return s.Append(ctx, Event{
		AgencyID:    agencyID,
		Type:        EventTypeQueueRemoved,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		CallID:      callID,
		Message:     "caller removed from hold queue",
		Metadata:    reason,
	})
}

// LogOverrideSet records an admin forcing the transfer target.
func (s *Service) LogOverrideSet(ctx context.Context, agencyID, actorUserID, actorRole, ip, target, metadata string) error {
	return s.Append(ctx, Event{
		AgencyID:    agencyID,
		Type:        EventTypeOverrideSet,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Target:      target,
		Message:     "transfer override set",
		Metadata:    metadata,
	})
}

// LogOverrideCleared records an admin removing the forced transfer target.
func (s *Service) LogOverrideCleared(ctx context.Context, agencyID, actorUserID, actorRole, ip string) error {
	return s.Append(ctx, Event{
		AgencyID:    agencyID,
		Type:        EventTypeOverrideCleared,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Message:     "transfer override cleared",
	})
}

// LogOverrideApplied records an escalation dialing the forced target.
// There is no actor; the override itself supplies the agency.
func (s *Service) LogOverrideApplied(ctx context.Context, agencyID, callID, target string) error {
	return s.Append(ctx, Event{
		AgencyID: agencyID,
		Type:     EventTypeOverrideApplied,
		CallID:   callID,
		Target:   target,
		Message:  "transfer override applied",
	})
}
