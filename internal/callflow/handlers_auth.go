package callflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"careline/internal/catalog"
	"careline/internal/speech"
)

// handleAuthPhone runs on first contact: try to recognize the caller
// by their calling number, fall back to PIN entry.
func (e *Engine) handleAuthPhone(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	emp, err := e.catalog.AuthenticateByPhone(ctx, s.CallerNumber)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		s.Enter(PhasePinCollect)
		return e.promptFor(s).prepend(e.text("greeting")), nil
	case err != nil:
		return Outcome{}, fmt.Errorf("authenticate by phone: %w", err)
	}

	s.Employee = emp
	s.AuthMethod = AuthByPhone
	return e.afterAuth(ctx, s, e.text("greeting"), e.text("auth.recognized", emp.Name)), nil
}

func (e *Engine) handlePinCollect(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}

	var pin string
	switch ev.Source {
	case SourceDTMF:
		pin = speech.CleanDigits(ev.Raw)
	case SourceSpeech:
		res := speech.ExtractPIN(ev.Raw)
		if res.Value == "" || res.Confidence < e.cfg.MinConfidence {
			return e.retry(ctx, s, e.text("input.clarify")), nil
		}
		pin = res.Value
	}
	if len(pin) != 4 {
		return e.retry(ctx, s, e.text("auth.pin_bad_form")), nil
	}

	emp, err := e.catalog.AuthenticateByPin(ctx, pin)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return e.retry(ctx, s, e.text("auth.pin_invalid")), nil
	case err != nil:
		return Outcome{}, fmt.Errorf("authenticate by pin: %w", err)
	}

	s.ResetAttempt(PhasePinCollect)
	s.Employee = emp
	s.AuthMethod = AuthByPin
	return e.afterAuth(ctx, s, e.text("auth.recognized", emp.Name)), nil
}

// afterAuth routes an identified caller onward: straight to the menu
// with one provider, a choice with several, a representative with none.
func (e *Engine) afterAuth(ctx context.Context, s *CallState, lead ...string) Outcome {
	switch len(s.Employee.Providers) {
	case 0:
		return e.escalate(ctx, s, lead...)
	case 1:
		s.Provider = &s.Employee.Providers[0]
		s.Enter(PhaseMainMenu)
	default:
		s.Enter(PhaseProviderSelect)
	}
	return e.promptFor(s).prepend(lead...)
}

func (e *Engine) handleProviderSelect(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}

	labels := make([][]string, len(s.Employee.Providers))
	for i, p := range s.Employee.Providers {
		labels[i] = strings.Fields(strings.ToLower(p.Name))
	}
	choice, ok := e.menuChoice(ev, menuOptionsFor(labels...))
	if !ok {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}

	idx := int(choice[0] - '1')
	if idx < 0 || idx >= len(s.Employee.Providers) {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}
	s.ResetAttempt(PhaseProviderSelect)
	s.Provider = &s.Employee.Providers[idx]
	s.Enter(PhaseMainMenu)
	return e.promptFor(s), nil
}
