package callflow

import (
	"context"
	"fmt"
	"strings"

	"careline/internal/notify"
)

func (e *Engine) handleReasonCollect(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}
	if ev.Source != SourceSpeech {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}
	if ev.Confidence > 0 && ev.Confidence < e.cfg.MinConfidence {
		return e.retry(ctx, s, e.text("input.clarify")), nil
	}

	s.Reason = strings.TrimSpace(ev.Raw)
	s.ResetAttempt(PhaseReasonCollect)
	s.Enter(PhaseReleaseConfirm)
	return e.promptFor(s), nil
}

func (e *Engine) handleReleaseConfirm(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	confirmed, ok := e.confirmChoice(ev)
	if !ok {
		return e.retryConfirm(ctx, s, ev), nil
	}
	if !confirmed {
		s.Reason = ""
		s.Occurrence = nil
		s.ResetAttempt(PhaseReleaseConfirm)
		s.Enter(PhaseMainMenu)
		return e.promptFor(s).prepend(e.text("release.kept")), nil
	}

	if err := e.catalog.LeaveJobOpen(ctx, s.Occurrence.ID, s.Employee.ID, s.Reason); err != nil {
		return Outcome{}, fmt.Errorf("leave job open: %w", err)
	}

	e.notify.TriggerRedistribution(notify.Redistribution{
		OccurrenceID: s.Occurrence.ID,
		JobID:        s.Job.ID,
		ProviderID:   s.Provider.ID,
		Reason:       s.Reason,
	})
	e.notify.SendConfirmation(notify.Confirmation{
		EmployeeID: s.Employee.ID,
		Phone:      s.Employee.PhoneNumber,
		Message:    e.text("release.committed"),
	})

	s.Enter(PhaseComplete)
	out := say(e.text("release.committed"), e.text("goodbye"))
	out.Hangup = true
	return out, nil
}
