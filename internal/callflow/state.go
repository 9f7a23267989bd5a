package callflow

import (
	"fmt"
	"time"

	"careline/internal/catalog"
)

// Phase identifies one step of the call conversation. The persisted
// CallState carries the current phase; the engine dispatches each
// inbound event to the handler registered for it.
type Phase string

const (
	PhaseAuthPhone        Phase = "auth_phone"
	PhasePinCollect       Phase = "pin_collect"
	PhaseProviderSelect   Phase = "provider_select"
	PhaseMainMenu         Phase = "main_menu"
	PhaseJobSelect        Phase = "job_select"
	PhaseClientIDCollect  Phase = "client_id_collect"
	PhaseClientIDConfirm  Phase = "client_id_confirm"
	PhaseJobNumberCollect Phase = "job_number_collect"
	PhaseJobNumberConfirm Phase = "job_number_confirm"
	PhaseOccurrenceSelect Phase = "occurrence_select"
	PhaseDayCollect       Phase = "day_collect"
	PhaseMonthCollect     Phase = "month_collect"
	PhaseTimeCollect      Phase = "time_collect"
	PhaseDateTimeSpeak    Phase = "datetime_speak"
	PhaseDateTimeConfirm  Phase = "datetime_confirm"
	PhaseReasonCollect    Phase = "reason_collect"
	PhaseReleaseConfirm   Phase = "release_confirm"
	PhaseTransfer         Phase = "transfer"
	PhaseTransferResult   Phase = "transfer_dial_result"
	PhaseDone             Phase = "done"
	PhaseError            Phase = "error"
	PhaseComplete         Phase = "workflow_complete"
)

// IsTerminal reports whether the phase ends the conversation. Terminal
// phases delete the persisted state after their outcome is rendered.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseDone, PhaseError, PhaseComplete:
		return true
	}
	return false
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseAuthPhone, PhasePinCollect, PhaseProviderSelect, PhaseMainMenu,
		PhaseJobSelect, PhaseClientIDCollect, PhaseClientIDConfirm,
		PhaseJobNumberCollect, PhaseJobNumberConfirm, PhaseOccurrenceSelect,
		PhaseDayCollect, PhaseMonthCollect, PhaseTimeCollect,
		PhaseDateTimeSpeak, PhaseDateTimeConfirm, PhaseReasonCollect,
		PhaseReleaseConfirm, PhaseTransfer, PhaseTransferResult,
		PhaseDone, PhaseError, PhaseComplete:
		return true
	}
	return false
}

// Intent is the caller's selected workflow.
type Intent string

const (
	IntentReschedule Intent = "reschedule"
	IntentRelease    Intent = "release"
)

// AuthMethod records how the caller was identified.
type AuthMethod string

const (
	AuthByPhone AuthMethod = "phone"
	AuthByPin   AuthMethod = "pin"
)

// ScheduleDraft accumulates the pieces of a new visit time across
// collection phases. Date and clock halves fill independently; the
// draft is complete once both are present.
type ScheduleDraft struct {
	Year    int  `json:"year,omitempty"`
	Month   int  `json:"month,omitempty"`
	Day     int  `json:"day,omitempty"`
	Hour    int  `json:"hour,omitempty"`
	Minute  int  `json:"minute,omitempty"`
	HasDate bool `json:"has_date,omitempty"`
	HasTime bool `json:"has_time,omitempty"`
}

func (d *ScheduleDraft) SetDate(year int, month time.Month, day int) {
	d.Year, d.Month, d.Day = year, int(month), day
	d.HasDate = true
}

func (d *ScheduleDraft) SetClock(hour, minute int) {
	d.Hour, d.Minute = hour, minute
	d.HasTime = true
}

func (d ScheduleDraft) Complete() bool {
	return d.HasDate && d.HasTime
}

// Resolve materializes the draft in the given location. The draft must
// be complete.
func (d ScheduleDraft) Resolve(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, 0, 0, loc)
}

// Spoken renders the draft the way the agent reads it back.
func (d ScheduleDraft) Spoken(loc *time.Location) string {
	return d.Resolve(loc).Format("Monday, January 2 at 3:04 PM")
}

// CallState is the persisted conversation state for one active call,
// keyed by the provider's call id. Version is the optimistic
// concurrency stamp enforced by the store's compare-and-swap save.
type CallState struct {
	CallID       string `json:"call_id"`
	CallerNumber string `json:"caller_number"`
	Phase        Phase  `json:"phase"`

	Employee *catalog.Employee    `json:"employee,omitempty"`
	Provider *catalog.Provider    `json:"provider,omitempty"`
	Job      *catalog.JobTemplate `json:"job,omitempty"`
	Patient  *catalog.Patient     `json:"patient,omitempty"`

	Jobs        []catalog.JobTemplate `json:"jobs,omitempty"`
	Occurrences []catalog.Occurrence  `json:"occurrences,omitempty"`
	Occurrence  *catalog.Occurrence   `json:"occurrence,omitempty"`

	Sched            ScheduleDraft `json:"sched"`
	Attempts         map[Phase]int `json:"attempts,omitempty"`
	AuthMethod       AuthMethod    `json:"auth_method,omitempty"`
	Intent           Intent        `json:"intent,omitempty"`
	PendingDigits    string        `json:"pending_digits,omitempty"`
	ClientID         string        `json:"client_id,omitempty"`
	Reason           string        `json:"reason,omitempty"`
	TransferOverride string        `json:"transfer_override,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCallState starts a conversation at the phone auth phase.
func NewCallState(callID, callerNumber string, now time.Time) *CallState {
	return &CallState{
		CallID:       callID,
		CallerNumber: callerNumber,
		Phase:        PhaseAuthPhone,
		Attempts:     make(map[Phase]int),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Attempt returns the consecutive failed-input count for the phase.
func (s *CallState) Attempt(p Phase) int {
	if s.Attempts == nil {
		return 0
	}
	return s.Attempts[p]
}

// BumpAttempt increments and returns the phase's failed-input count.
func (s *CallState) BumpAttempt(p Phase) int {
	if s.Attempts == nil {
		s.Attempts = make(map[Phase]int)
	}
	s.Attempts[p]++
	return s.Attempts[p]
}

// ResetAttempt clears the phase's failed-input count after a valid
// input.
func (s *CallState) ResetAttempt(p Phase) {
	if s.Attempts != nil {
		delete(s.Attempts, p)
	}
}

// Enter moves the conversation to the next phase.
func (s *CallState) Enter(p Phase) {
	s.Phase = p
}

func (s *CallState) validate() error {
	if s.CallID == "" {
		return fmt.Errorf("callflow: state missing call id")
	}
	if !s.Phase.Valid() {
		return fmt.Errorf("callflow: unknown phase %q", s.Phase)
	}
	return nil
}
