package callflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"careline/internal/catalog"
	"careline/internal/speech"
)

// Manual identification: the caller keys in the client id, then the
// job number, each read back before the pair is validated together.

func (e *Engine) handleClientIDCollect(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}

	id, ok := e.collectCode(ev)
	if !ok {
		return e.retry(ctx, s, e.text("input.clarify")), nil
	}
	if id == "" {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}
	s.PendingDigits = id
	s.Enter(PhaseClientIDConfirm)
	return e.promptFor(s), nil
}

func (e *Engine) handleClientIDConfirm(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	confirmed, ok := e.confirmChoice(ev)
	if !ok {
		return e.retryConfirm(ctx, s, ev), nil
	}
	if !confirmed {
		s.PendingDigits = ""
		s.Enter(PhaseClientIDCollect)
		return e.promptFor(s), nil
	}
	s.ClientID = s.PendingDigits
	s.PendingDigits = ""
	s.ResetAttempt(PhaseClientIDConfirm)
	s.Enter(PhaseJobNumberCollect)
	return e.promptFor(s), nil
}

func (e *Engine) handleJobNumberCollect(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}

	code, ok := e.collectCode(ev)
	if !ok {
		return e.retry(ctx, s, e.text("input.clarify")), nil
	}
	if code == "" {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}
	s.PendingDigits = strings.ToUpper(code)
	s.Enter(PhaseJobNumberConfirm)
	return e.promptFor(s), nil
}

func (e *Engine) handleJobNumberConfirm(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	confirmed, ok := e.confirmChoice(ev)
	if !ok {
		return e.retryConfirm(ctx, s, ev), nil
	}
	if !confirmed {
		s.PendingDigits = ""
		s.Enter(PhaseJobNumberCollect)
		return e.promptFor(s), nil
	}

	// A miss or a denial is final for this call: the entity either does
	// not exist or is off limits, so a representative takes over.
	v, err := e.catalog.ValidateJobWithAuthorization(ctx, s.Employee.ID, s.PendingDigits)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return e.escalate(ctx, s, e.text("job.not_found")), nil
	case errors.Is(err, catalog.ErrDenied):
		return e.escalate(ctx, s, e.text("job.denied")), nil
	case err != nil:
		return Outcome{}, fmt.Errorf("validate job: %w", err)
	}

	if s.ClientID != "" && v.Patient != nil && !strings.EqualFold(v.Patient.ClientID, s.ClientID) {
		s.ClientID = ""
		s.PendingDigits = ""
		s.Enter(PhaseClientIDCollect)
		return e.retry(ctx, s, e.text("client.job_mismatch")), nil
	}

	s.PendingDigits = ""
	s.ResetAttempt(PhaseJobNumberCollect)
	s.ResetAttempt(PhaseJobNumberConfirm)
	s.ResetAttempt(PhaseClientIDCollect)
	return e.jobChosen(ctx, s, v.Job, v.Patient)
}

// collectCode pulls an identifier out of the turn: the digit buffer on
// DTMF, a code extraction on speech. ok is false when speech was too
// unclear to use.
func (e *Engine) collectCode(ev Event) (string, bool) {
	switch ev.Source {
	case SourceDTMF:
		return speech.CleanDigits(ev.Raw), true
	case SourceSpeech:
		res := speech.ExtractJobCode(ev.Raw)
		if res.Value == "" || res.Confidence < e.cfg.MinConfidence {
			return "", false
		}
		return res.Value, true
	}
	return "", true
}

// retryConfirm handles an unusable turn on a yes/no phase.
func (e *Engine) retryConfirm(ctx context.Context, s *CallState, ev Event) Outcome {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none"))
	}
	return e.retry(ctx, s, e.text("input.invalid"))
}
