package catalog

import (
	"context"
	"errors"
	"time"
)

// Service is the narrow contract to the agency record store.
//
// Rules:
// - No record-store SDK or caching logic leaks past this interface; callers
//   see domain types and sentinel errors only.
// - Every call is blocking network I/O with a bounded timeout and a small
//   bounded retry budget. Exhausting retries surfaces as a plain error, never
//   an indefinite hang.
// - Implementations must be safe for concurrent use.
type Service interface {
	// AuthenticateByPhone resolves an employee by their registered calling
	// number. Returns ErrNotFound when no employee matches.
	AuthenticateByPhone(ctx context.Context, phone string) (*Employee, error)

	// AuthenticateByPin resolves an employee by their 4-digit PIN.
	// Returns ErrNotFound when the PIN matches nobody.
	AuthenticateByPin(ctx context.Context, pin string) (*Employee, error)

	// ListJobs returns the employee's job templates under one provider,
	// bounded by limit.
	ListJobs(ctx context.Context, employeeID, providerID string, limit int) ([]JobTemplate, error)

	// ValidateJobWithAuthorization checks a job code against the employee's
	// authorizations. Returns ErrNotFound when the code matches no job and
	// ErrDenied when the job exists but the employee is not authorized.
	ValidateJobWithAuthorization(ctx context.Context, employeeID, code string) (*JobValidation, error)

	// GetFutureOccurrences returns upcoming scheduled instances of a job for
	// the employee, soonest first, bounded by limit.
	GetFutureOccurrences(ctx context.Context, jobID, employeeID string, limit int) ([]Occurrence, error)

	// RescheduleOccurrence moves one occurrence to a new start time.
	RescheduleOccurrence(ctx context.Context, occurrenceID string, newStart time.Time) error

	// LeaveJobOpen releases the employee from an occurrence and records the
	// spoken reason. Redistribution to other workers happens out of band.
	LeaveJobOpen(ctx context.Context, occurrenceID, employeeID, reason string) error
}

var (
	// ErrNotFound means the looked-up entity does not exist.
	ErrNotFound = errors.New("catalog: not found")
	// ErrDenied means the entity exists but the caller lacks permission.
	ErrDenied = errors.New("catalog: authorization denied")
	// ErrInvalidArgument means the request itself was malformed.
	ErrInvalidArgument = errors.New("catalog: invalid argument")
)

// Employee is a shift worker known to the agency.
type Employee struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phone_number"`
	Providers   []Provider `json:"providers"`
}

// Provider is an agency office the employee works under. An employee with
// exactly one provider skips provider selection entirely.
type Provider struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// TransferNumber is the office line used as the provider-level escalation
	// target. May be empty; the global default applies then.
	TransferNumber string `json:"transfer_number,omitempty"`
}

// JobTemplate is the reusable definition of a recurring assignment.
type JobTemplate struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	ProviderID  string `json:"provider_id"`
	ServiceType string `json:"service_type"`
	PatientID   string `json:"patient_id,omitempty"`

	// CoordinatorNumber, when set, overrides the escalation target for calls
	// about this job.
	CoordinatorNumber string `json:"coordinator_number,omitempty"`
}

// Patient is the person the job serves. ClientID is the number callers key in
// on the manual identification path.
type Patient struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

// Occurrence is one scheduled instance of a job template.
type Occurrence struct {
	ID              string    `json:"id"`
	JobID           string    `json:"job_id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

// JobValidation is the result of a successful job-code check.
type JobValidation struct {
	Job     JobTemplate `json:"job"`
	Patient *Patient    `json:"patient,omitempty"`
}
