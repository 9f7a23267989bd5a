package audit

import "time"

// Event is an immutable, append-only record of privileged activity.
//
// Invariants:
// - Events are never updated or deleted.
// - agency_id is required; every event belongs to the agency whose
//   dispatchers (or whose override) caused it.
// - Actor and IP capture are best-effort; do not block critical flows on
//   audit failures.
//
// Storage (Postgres): table audit_events with an INSERT-only policy.

type Event struct {
	ID       string `json:"id" db:"id"`
	AgencyID string `json:"agency_id" db:"agency_id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID identifies the ops user behind the event, when there is
	// one. Override applications happen mid-call and carry no actor.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress is the resolved client IP of the ops request.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers (optional, depending on the event type).
	CallID string `json:"call_id,omitempty" db:"call_id"`
	Target string `json:"target,omitempty" db:"target"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	// EventTypeQueueRemoved records a dispatcher dropping a caller from
	// the hold queue.
	EventTypeQueueRemoved EventType = "queue_removed"

	// EventTypeOverrideSet and EventTypeOverrideCleared record an admin
	// changing the forced transfer target.
	EventTypeOverrideSet     EventType = "override_set"
	EventTypeOverrideCleared EventType = "override_cleared"

	// EventTypeOverrideApplied records an escalating call being dialed
	// at the forced target instead of its normal one.
	EventTypeOverrideApplied EventType = "override_applied"
)
