package reporting

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidRecord = errors.New("reporting: invalid record")
	ErrInvalidRange  = errors.New("reporting: invalid range")
)

// Repository stores finished-call records. Append-only; a second
// insert for the same call id must be a no-op.
type Repository interface {
	Insert(ctx context.Context, rec CallRecord) error
	ListRange(ctx context.Context, from, to time.Time) ([]CallRecord, error)
}

// Service ingests status-callback results and serves call summaries.
//
// Recording is best-effort from the caller's point of view; a failed
// insert must never interrupt call handling.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Record stores one finished call. EndedAt defaults to now.
func (s *Service) Record(ctx context.Context, rec CallRecord) error {
	if s.repo == nil {
		return errors.New("reporting: repository not configured")
	}
	if rec.CallID == "" || !KnownStatus(rec.Status) {
		return ErrInvalidRecord
	}
	if rec.DurationSeconds < 0 {
		return ErrInvalidRecord
	}
	if rec.EndedAt.IsZero() {
		rec.EndedAt = s.clock().UTC()
	}
	return s.repo.Insert(ctx, rec)
}

// Summarize aggregates the calls that ended inside the range.
func (s *Service) Summarize(ctx context.Context, r TimeRange) (Summary, error) {
	if s.repo == nil {
		return Summary{}, errors.New("reporting: repository not configured")
	}
	if r.From.IsZero() || r.To.IsZero() || !r.To.After(r.From) {
		return Summary{}, ErrInvalidRange
	}

	rows, err := s.repo.ListRange(ctx, r.From, r.To)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{Range: r}
	for _, rec := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += rec.DurationSeconds
		switch rec.Status {
		case CallStatusCompleted:
			out.CompletedCalls++
		case CallStatusFailed:
			out.FailedCalls++
		case CallStatusBusy:
			out.BusyCalls++
		case CallStatusNoAnswer:
			out.NoAnswerCalls++
		case CallStatusCanceled:
			out.CanceledCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}
