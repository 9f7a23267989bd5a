package reporting

import "time"

// CallStatus is the provider's final disposition for a call leg, as
// delivered by the status callback.
type CallStatus string

const (
	CallStatusCompleted CallStatus = "completed"
	CallStatusFailed    CallStatus = "failed"
	CallStatusBusy      CallStatus = "busy"
	CallStatusNoAnswer  CallStatus = "no-answer"
	CallStatusCanceled  CallStatus = "canceled"
)

// KnownStatus reports whether s is a final status the summaries count.
func KnownStatus(s CallStatus) bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer, CallStatusCanceled:
		return true
	}
	return false
}

// CallRecord is one finished call.
//
// Records are append-only and keyed by the provider call id, so a
// retried status callback cannot double-count a call.
type CallRecord struct {
	CallID          string     `json:"call_id" db:"call_id"`
	Caller          string     `json:"caller,omitempty" db:"caller"`
	Status          CallStatus `json:"status" db:"status"`
	DurationSeconds int        `json:"duration_seconds" db:"duration_seconds"`
	EndedAt         time.Time  `json:"ended_at" db:"ended_at"`
}

// TimeRange bounds a summary query. From is inclusive, To exclusive.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Summary aggregates the calls that ended inside a range.
type Summary struct {
	Range TimeRange `json:"range"`

	TotalCalls     int `json:"total_calls"`
	CompletedCalls int `json:"completed_calls"`
	FailedCalls    int `json:"failed_calls"`
	BusyCalls      int `json:"busy_calls"`
	NoAnswerCalls  int `json:"no_answer_calls"`
	CanceledCalls  int `json:"canceled_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
}
