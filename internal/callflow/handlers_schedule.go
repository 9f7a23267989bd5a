package callflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"careline/internal/notify"
	"careline/internal/speech"
)

// Rescheduling collects a future date and time. Keypad callers give
// day, month, and a 24-hour time in three steps; voice callers say the
// whole thing and the two halves fill independently.

func (e *Engine) handleDayCollect(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}
	day, err := strconv.Atoi(speech.CleanDigits(ev.Raw))
	if err != nil || day < 1 || day > 31 {
		return e.retry(ctx, s, e.text("sched.invalid_date")), nil
	}
	s.Sched.Day = day
	s.Enter(PhaseMonthCollect)
	return e.promptFor(s), nil
}

// handleMonthCollect validates the full day/month pair. An impossible
// combination, February 31st say, is rejected here and the month is
// asked again.
func (e *Engine) handleMonthCollect(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}
	month, err := strconv.Atoi(speech.CleanDigits(ev.Raw))
	if err != nil || month < 1 || month > 12 {
		return e.retry(ctx, s, e.text("sched.invalid_date")), nil
	}
	year, ok := nextDateYear(e.now(), time.Month(month), s.Sched.Day)
	if !ok {
		return e.retry(ctx, s, e.text("sched.invalid_date")), nil
	}
	s.Sched.SetDate(year, time.Month(month), s.Sched.Day)
	s.Enter(PhaseTimeCollect)
	return e.promptFor(s), nil
}

func (e *Engine) handleTimeCollect(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}
	// Two digits name a whole hour, four digits an exact minute.
	digits := speech.CleanDigits(ev.Raw)
	var hour, minute int
	switch len(digits) {
	case 2:
		hour, _ = strconv.Atoi(digits)
	case 4:
		hour, _ = strconv.Atoi(digits[:2])
		minute, _ = strconv.Atoi(digits[2:])
	default:
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}
	if hour > 23 || minute > 59 {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}

	candidate := time.Date(s.Sched.Year, time.Month(s.Sched.Month), s.Sched.Day,
		hour, minute, 0, 0, e.cfg.Location)
	if !candidate.After(e.now()) {
		return e.retry(ctx, s, e.text("sched.past_time")), nil
	}

	s.Sched.SetClock(hour, minute)
	s.Enter(PhaseDateTimeConfirm)
	return e.promptFor(s), nil
}

func (e *Engine) handleDateTimeSpeak(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	if !ev.HasInput() {
		return e.retry(ctx, s, e.text("input.none")), nil
	}
	if ev.Source != SourceSpeech {
		return e.retry(ctx, s, e.text("input.invalid")), nil
	}

	w := speech.ParseWhen(ev.Raw, e.now())
	if (w.Date == nil && w.Time == nil) || w.Confidence < e.cfg.MinConfidence {
		return e.retry(ctx, s, e.text("input.clarify")), nil
	}
	if w.Date != nil {
		s.Sched.SetDate(w.Date.Year, w.Date.Month, w.Date.Day)
	}
	if w.Time != nil {
		s.Sched.SetClock(w.Time.Hour, w.Time.Minute)
	}
	s.ResetAttempt(PhaseDateTimeSpeak)

	if !s.Sched.Complete() {
		return e.promptFor(s), nil
	}
	if !s.Sched.Resolve(e.cfg.Location).After(e.now()) {
		s.Sched.HasTime = false
		return e.retry(ctx, s, e.text("sched.past_time")), nil
	}
	s.Enter(PhaseDateTimeConfirm)
	return e.promptFor(s), nil
}

func (e *Engine) handleDateTimeConfirm(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	confirmed, ok := e.confirmChoice(ev)
	if !ok {
		return e.retryConfirm(ctx, s, ev), nil
	}
	if !confirmed {
		s.Sched = ScheduleDraft{}
		s.ResetAttempt(PhaseDateTimeConfirm)
		if e.cfg.VoiceMode {
			s.Enter(PhaseDateTimeSpeak)
		} else {
			s.Enter(PhaseDayCollect)
		}
		return e.promptFor(s).prepend(e.text("sched.restart")), nil
	}

	when := s.Sched.Resolve(e.cfg.Location)
	if err := e.catalog.RescheduleOccurrence(ctx, s.Occurrence.ID, when.UTC()); err != nil {
		return Outcome{}, fmt.Errorf("reschedule occurrence: %w", err)
	}

	spoken := s.Sched.Spoken(e.cfg.Location)
	e.notify.SendConfirmation(notify.Confirmation{
		EmployeeID: s.Employee.ID,
		Phone:      s.Employee.PhoneNumber,
		Message:    e.text("sched.committed", spoken),
	})

	s.Enter(PhaseComplete)
	out := say(e.text("sched.committed", spoken), e.text("goodbye"))
	out.Hangup = true
	return out, nil
}

// nextDateYear finds the first year at or after now where month/day is
// a real calendar date that has not already passed.
func nextDateYear(now time.Time, month time.Month, day int) (int, bool) {
	if day < 1 || day > 31 {
		return 0, false
	}
	for year := now.Year(); year <= now.Year()+4; year++ {
		c := time.Date(year, month, day, 23, 59, 59, 0, now.Location())
		if c.Month() != month || c.Day() != day {
			continue
		}
		if c.Before(now) {
			continue
		}
		return year, true
	}
	return 0, false
}
