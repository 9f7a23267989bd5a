package callflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"careline/internal/catalog"
	"careline/internal/speech"
)

const manualEntryDigit = "9"

func (e *Engine) handleMainMenu(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}

	opts := menuOptionsFor(
		[]string{"reschedule", "move", "change", "different time"},
		[]string{"release", "open", "cancel", "give up", "leave open"},
		[]string{"representative", "agent", "person", "operator", "someone", "help"},
	)
	choice, ok := e.menuChoice(ev, opts)
	if !ok {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}
	s.ResetAttempt(PhaseMainMenu)

	switch choice {
	case "1":
		s.Intent = IntentReschedule
	case "2":
		s.Intent = IntentRelease
	case "3":
		return e.escalate(ctx, s), nil
	}
	return e.beginJobSelection(ctx, s)
}

// beginJobSelection lists the caller's jobs, or drops straight into
// manual identification when nothing is on file.
func (e *Engine) beginJobSelection(ctx context.Context, s *CallState) (Outcome, error) {
	jobs, err := e.catalog.ListJobs(ctx, s.Employee.ID, s.Provider.ID, e.cfg.MaxListedJobs)
	if err != nil {
		return Outcome{}, fmt.Errorf("list jobs: %w", err)
	}
	if len(jobs) == 0 {
		s.Jobs = nil
		s.Enter(PhaseClientIDCollect)
		return e.promptFor(s).prepend(e.text("job.none")), nil
	}
	s.Jobs = jobs
	s.Enter(PhaseJobSelect)
	return e.promptFor(s), nil
}

func (e *Engine) handleJobSelect(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}

	labels := make([][]string, len(s.Jobs))
	for i, j := range s.Jobs {
		labels[i] = []string{strings.ToLower(j.Code)}
	}
	opts := menuOptionsFor(labels...)
	opts = append(opts, manualEntryOption())

	choice, ok := e.menuChoice(ev, opts)
	if !ok {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}
	s.ResetAttempt(PhaseJobSelect)

	if choice == manualEntryDigit {
		s.Enter(PhaseClientIDCollect)
		return e.promptFor(s), nil
	}
	idx := int(choice[0] - '1')
	if idx < 0 || idx >= len(s.Jobs) {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}
	return e.jobChosen(ctx, s, s.Jobs[idx], nil)
}

// jobChosen records the selected job and moves on to its upcoming
// visits.
func (e *Engine) jobChosen(ctx context.Context, s *CallState, job catalog.JobTemplate, patient *catalog.Patient) (Outcome, error) {
	s.Job = &job
	s.Patient = patient
	if job.CoordinatorNumber != "" {
		s.TransferOverride = job.CoordinatorNumber
	}
	return e.beginOccurrences(ctx, s)
}

func (e *Engine) beginOccurrences(ctx context.Context, s *CallState) (Outcome, error) {
	occs, err := e.catalog.GetFutureOccurrences(ctx, s.Job.ID, s.Employee.ID, e.cfg.MaxListedOccurrences)
	switch {
	case errors.Is(err, catalog.ErrDenied):
		return e.escalate(ctx, s, e.text("job.denied")), nil
	case err != nil:
		return Outcome{}, fmt.Errorf("future occurrences: %w", err)
	}
	if len(occs) == 0 {
		// Nothing the caller could select; a representative sorts it out.
		return e.escalate(ctx, s, e.text("occurrence.none")), nil
	}
	s.Occurrences = occs
	s.Enter(PhaseOccurrenceSelect)
	return e.promptFor(s), nil
}

func (e *Engine) handleOccurrenceSelect(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}

	labels := make([][]string, len(s.Occurrences))
	for i, o := range s.Occurrences {
		local := o.ScheduledAt.In(e.cfg.Location)
		labels[i] = []string{
			strings.ToLower(local.Format("Monday")),
			strings.ToLower(local.Format("January 2")),
		}
	}
	choice, ok := e.menuChoice(ev, menuOptionsFor(labels...))
	if !ok {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}

	idx := int(choice[0] - '1')
	if idx < 0 || idx >= len(s.Occurrences) {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}
	s.ResetAttempt(PhaseOccurrenceSelect)
	s.Occurrence = &s.Occurrences[idx]

	if s.Intent == IntentRelease {
		s.Enter(PhaseReasonCollect)
		return e.promptFor(s), nil
	}
	if e.cfg.VoiceMode {
		s.Enter(PhaseDateTimeSpeak)
	} else {
		s.Enter(PhaseDayCollect)
	}
	return e.promptFor(s), nil
}

func manualEntryOption() speech.MenuOption {
	return speech.MenuOption{
		Value:    manualEntryDigit,
		Keywords: []string{"different", "another", "other", "not listed", "manual"},
	}
}
