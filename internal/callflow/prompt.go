package callflow

import "careline/internal/speech"

// promptFor builds the standing prompt for the state's current phase.
// It never mutates state, so the engine can replay it verbatim after a
// reprompt or a lost save race.
func (e *Engine) promptFor(s *CallState) Outcome {
	switch s.Phase {
	case PhaseAuthPhone, PhasePinCollect:
		if e.cfg.VoiceMode {
			return say(e.text("auth.pin_say")).
				withGather(e.gather(GatherBoth, 4, "four digit pin"))
		}
		return say(e.text("auth.pin_prompt")).withGather(e.gather(GatherDigits, 4))

	case PhaseProviderSelect:
		texts := []string{e.text("provider.intro")}
		for i, p := range s.Employee.Providers {
			texts = append(texts, e.text("provider.option", p.Name, i+1))
		}
		texts = append(texts, e.text("provider.prompt"))
		return say(texts...).withGather(e.menuGather(providerNames(s)...))

	case PhaseMainMenu:
		return say(e.text("menu.main")).
			withGather(e.menuGather("reschedule", "release", "representative"))

	case PhaseJobSelect:
		texts := []string{e.text("job.list_intro")}
		for i, j := range s.Jobs {
			texts = append(texts, e.text("job.option", spell(j.Code), i+1))
		}
		texts = append(texts, e.text("job.manual_option"))
		return say(texts...).withGather(e.menuGather())

	case PhaseClientIDCollect:
		return say(e.text("client.id_prompt")).withGather(e.digitsGather(10))

	case PhaseClientIDConfirm:
		return say(e.text("client.id_confirm", spell(s.PendingDigits))).
			withGather(e.confirmGather())

	case PhaseJobNumberCollect:
		if e.cfg.VoiceMode {
			return say(e.text("job.number_say")).
				withGather(e.gather(GatherBoth, 10, "job number"))
		}
		return say(e.text("job.number_prompt")).withGather(e.digitsGather(10))

	case PhaseJobNumberConfirm:
		return say(e.text("job.number_confirm", spell(s.PendingDigits))).
			withGather(e.confirmGather())

	case PhaseOccurrenceSelect:
		texts := []string{e.text("occurrence.intro")}
		for i, o := range s.Occurrences {
			texts = append(texts, e.text("occurrence.option", e.spokenAt(o.ScheduledAt), i+1))
		}
		return say(texts...).withGather(e.menuGather())

	case PhaseDayCollect:
		return say(e.text("sched.day_prompt")).withGather(e.digitsGather(2))

	case PhaseMonthCollect:
		return say(e.text("sched.month_prompt")).withGather(e.digitsGather(2))

	case PhaseTimeCollect:
		return say(e.text("sched.time_prompt")).withGather(e.digitsGather(4))

	case PhaseDateTimeSpeak:
		key := "sched.speak_prompt"
		switch {
		case s.Sched.HasDate && !s.Sched.HasTime:
			key = "sched.need_time"
		case s.Sched.HasTime && !s.Sched.HasDate:
			key = "sched.need_date"
		}
		return say(e.text(key)).withGather(GatherSpec{
			Mode:    GatherSpeech,
			Timeout: e.cfg.GatherTimeout,
			Hints:   []string{"tomorrow", "next monday", "march fifth", "nine thirty am"},
		})

	case PhaseDateTimeConfirm:
		return say(e.text("sched.confirm", s.Sched.Spoken(e.cfg.Location))).
			withGather(e.confirmGather())

	case PhaseReasonCollect:
		return say(e.text("release.reason_prompt")).withGather(GatherSpec{
			Mode:    GatherSpeech,
			Timeout: e.cfg.GatherTimeout,
		})

	case PhaseReleaseConfirm:
		when := ""
		if s.Occurrence != nil {
			when = e.spokenAt(s.Occurrence.ScheduledAt)
		}
		return say(e.text("release.confirm", when)).withGather(e.confirmGather())

	case PhaseTransferResult:
		return say(e.text("transfer.hold_music"))

	default:
		out := say(e.text("goodbye"))
		out.Hangup = true
		return out
	}
}

func (e *Engine) gather(mode GatherMode, maxDigits int, hints ...string) GatherSpec {
	return GatherSpec{
		Mode:      mode,
		MaxDigits: maxDigits,
		Timeout:   e.cfg.GatherTimeout,
		Hints:     hints,
	}
}

// menuGather is a one-digit selection; voice mode also listens for the
// hinted phrases.
func (e *Engine) menuGather(hints ...string) GatherSpec {
	if e.cfg.VoiceMode {
		return e.gather(GatherBoth, 1, hints...)
	}
	return e.gather(GatherDigits, 1)
}

func (e *Engine) digitsGather(maxDigits int) GatherSpec {
	return e.gather(GatherDigits, maxDigits)
}

func (e *Engine) confirmGather() GatherSpec {
	g := e.menuGather("yes", "no")
	g.Confirm = true
	return g
}

func providerNames(s *CallState) []string {
	if s.Employee == nil {
		return nil
	}
	names := make([]string, 0, len(s.Employee.Providers))
	for _, p := range s.Employee.Providers {
		names = append(names, p.Name)
	}
	return names
}

// menuOptionsFor pairs press-digit values with spoken keywords so the
// same selection works over DTMF and speech.
func menuOptionsFor(labels ...[]string) []speech.MenuOption {
	opts := make([]speech.MenuOption, 0, len(labels))
	for i, kws := range labels {
		opts = append(opts, speech.MenuOption{
			Value:    digitString(i + 1),
			Keywords: kws,
		})
	}
	return opts
}

func digitString(n int) string {
	return string(rune('0' + n))
}
