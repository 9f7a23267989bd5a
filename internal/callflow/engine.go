// Package callflow drives the bot side of a scheduling call: one
// persisted state machine per call id, advanced one webhook event at a
// time. Handlers own the conversation logic; the engine owns loading,
// dispatch, optimistic saves, and the escalation path when anything
// breaks.
package callflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"careline/internal/catalog"
	"careline/internal/prompts"
	"careline/internal/speech"
	"careline/internal/transfer"
	"careline/pkg/logger"
)

type Config struct {
	// AttemptLimit is how many unusable turns a phase tolerates. Each
	// one gets a reprompt; the turn after the limit escalates to a
	// representative.
	AttemptLimit int
	// MinConfidence gates speech recognition results.
	MinConfidence float64
	// VoiceMode switches prompts and gathers to speech-first.
	VoiceMode            bool
	MaxListedJobs        int
	MaxListedOccurrences int
	// GatherTimeout is the seconds of silence before a gather gives up.
	GatherTimeout int
	// Location is the agency's local timezone; spoken dates and the
	// past-time check resolve in it.
	Location *time.Location
}

func (c Config) withDefaults() Config {
	if c.AttemptLimit <= 0 {
		c.AttemptLimit = 2
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = speech.DefaultMinConfidence
	}
	if c.MaxListedJobs <= 0 {
		c.MaxListedJobs = 5
	}
	if c.MaxListedOccurrences <= 0 {
		c.MaxListedOccurrences = 5
	}
	if c.GatherTimeout <= 0 {
		c.GatherTimeout = 5
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

type handlerFunc func(ctx context.Context, s *CallState, ev Event) (Outcome, error)

// Engine advances call conversations. Safe for concurrent use; state
// races between concurrent events for the same call resolve through
// the store's compare-and-swap save.
type Engine struct {
	store    Store
	catalog  catalog.Service
	transfer *transfer.Orchestrator
	notify   Notifier
	prompts  *prompts.Catalog
	cfg      Config
	clock    func() time.Time
	log      *slog.Logger

	handlers map[Phase]handlerFunc
}

func New(store Store, cat catalog.Service, tr *transfer.Orchestrator, notifier Notifier, texts *prompts.Catalog, cfg Config, log *slog.Logger) *Engine {
	if texts == nil {
		texts = prompts.Defaults()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		store:    store,
		catalog:  cat,
		transfer: tr,
		notify:   notifier,
		prompts:  texts,
		cfg:      cfg.withDefaults(),
		clock:    time.Now,
		log:      log,
	}
	e.handlers = map[Phase]handlerFunc{
		PhaseAuthPhone:        e.handleAuthPhone,
		PhasePinCollect:       e.handlePinCollect,
		PhaseProviderSelect:   e.handleProviderSelect,
		PhaseMainMenu:         e.handleMainMenu,
		PhaseJobSelect:        e.handleJobSelect,
		PhaseClientIDCollect:  e.handleClientIDCollect,
		PhaseClientIDConfirm:  e.handleClientIDConfirm,
		PhaseJobNumberCollect: e.handleJobNumberCollect,
		PhaseJobNumberConfirm: e.handleJobNumberConfirm,
		PhaseOccurrenceSelect: e.handleOccurrenceSelect,
		PhaseDayCollect:       e.handleDayCollect,
		PhaseMonthCollect:     e.handleMonthCollect,
		PhaseTimeCollect:      e.handleTimeCollect,
		PhaseDateTimeSpeak:    e.handleDateTimeSpeak,
		PhaseDateTimeConfirm:  e.handleDateTimeConfirm,
		PhaseReasonCollect:    e.handleReasonCollect,
		PhaseReleaseConfirm:   e.handleReleaseConfirm,
		PhaseTransfer:         e.handleTransfer,
		PhaseTransferResult:   e.handleTransferResult,
	}
	return e
}

// HandleEvent runs one webhook turn: load or create the call's state,
// dispatch to the current phase, then persist. At most one event
// commits a transition per version; a loser of the save race replays
// the winner's prompt instead of forking the conversation.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) (Outcome, error) {
	if ev.CallID == "" {
		return Outcome{}, fmt.Errorf("callflow: event missing call id")
	}
	log := logger.From(ctx, e.log)

	state, err := e.store.Load(ctx, ev.CallID)
	switch {
	case errors.Is(err, ErrStateNotFound):
		state = NewCallState(ev.CallID, ev.CallerNumber, e.clock().UTC())
		ev.Initial = true
	case err != nil:
		log.Error("load call state", "call_id", ev.CallID, "error", err)
		return e.systemFailure(ctx, NewCallState(ev.CallID, ev.CallerNumber, e.clock().UTC())), nil
	default:
		if verr := state.validate(); verr != nil {
			log.Error("corrupt call state", "call_id", ev.CallID, "error", verr)
			return e.systemFailure(ctx, state), nil
		}
	}

	out := e.dispatch(ctx, state, ev)

	if state.Phase.IsTerminal() {
		if derr := e.store.Delete(ctx, ev.CallID); derr != nil {
			log.Warn("delete call state", "call_id", ev.CallID, "error", derr)
		}
		return out, nil
	}

	state.UpdatedAt = e.clock().UTC()
	if serr := e.store.Save(ctx, state); serr != nil {
		if errors.Is(serr, ErrVersionConflict) {
			return e.afterLostRace(ctx, ev), nil
		}
		log.Error("save call state", "call_id", ev.CallID, "error", serr)
		return e.systemFailure(ctx, state), nil
	}
	return out, nil
}

func (e *Engine) dispatch(ctx context.Context, s *CallState, ev Event) Outcome {
	if s.Phase.IsTerminal() {
		out := say(e.text("goodbye"))
		out.Hangup = true
		return out
	}
	h, ok := e.handlers[s.Phase]
	if !ok {
		logger.From(ctx, e.log).Error("no handler for phase", "call_id", s.CallID, "phase", s.Phase)
		return e.escalate(ctx, s, e.text("error.transfer"))
	}
	out, err := h(ctx, s, ev)
	if err != nil {
		logger.From(ctx, e.log).Error("phase handler failed", "call_id", s.CallID, "phase", s.Phase, "error", err)
		return e.escalate(ctx, s, e.text("error.transfer"))
	}
	return out
}

// afterLostRace replays whatever the winning event left behind. A
// missing state means the winner ended the call.
func (e *Engine) afterLostRace(ctx context.Context, ev Event) Outcome {
	log := logger.From(ctx, e.log)
	winner, err := e.store.Load(ctx, ev.CallID)
	switch {
	case errors.Is(err, ErrStateNotFound):
		out := say(e.text("goodbye"))
		out.Hangup = true
		return out
	case err != nil:
		log.Error("reload after version conflict", "call_id", ev.CallID, "error", err)
		out := say(e.text("error.generic"))
		out.Hangup = true
		return out
	}
	log.Info("lost save race, replaying winner prompt",
		"call_id", ev.CallID,
		"phase", winner.Phase)
	return e.promptFor(winner)
}

// retry replays the current phase's prompt after an unusable turn, or
// escalates once the caller has used up the attempt budget.
func (e *Engine) retry(ctx context.Context, s *CallState, reason string) Outcome {
	if n := s.BumpAttempt(s.Phase); n > e.cfg.AttemptLimit {
		return e.escalate(ctx, s, e.text("escalate.limit"))
	}
	return e.promptFor(s).prepend(reason)
}

// escalate hands the caller to a human, speaking lead first. It never
// fails; the worst case is the terminal apology.
func (e *Engine) escalate(ctx context.Context, s *CallState, lead ...string) Outcome {
	plan := e.transfer.Begin(ctx, e.transferRequest(s))
	return e.applyPlan(s, plan, lead...)
}

func (e *Engine) transferRequest(s *CallState) transfer.Request {
	req := transfer.Request{
		CallID:       s.CallID,
		CallerNumber: s.CallerNumber,
		Override:     s.TransferOverride,
		Reason:       s.Reason,
	}
	if s.Employee != nil {
		req.EmployeeID = s.Employee.ID
	}
	if s.Provider != nil {
		req.ProviderID = s.Provider.ID
		req.ProviderNumber = s.Provider.TransferNumber
	}
	return req
}

// applyPlan turns a transfer plan into the next conversation step: a
// bridged dial awaiting its result, a parked caller, a clean goodbye,
// or the terminal apology.
func (e *Engine) applyPlan(s *CallState, plan transfer.Plan, lead ...string) Outcome {
	switch {
	case plan.DialNumber != "":
		s.Enter(PhaseTransferResult)
		out := say(append(lead, e.text("transfer.announce"))...)
		out.Dial = &DialSpec{Number: plan.DialNumber, Timeout: plan.DialTimeout}
		return out
	case plan.Enqueued:
		s.Enter(PhaseDone)
		texts := append(lead, e.text("transfer.announce"))
		if plan.Position <= 1 {
			texts = append(texts, e.text("transfer.first"))
		} else {
			texts = append(texts, e.text("transfer.position", plan.Position))
			if mins := int(plan.EstimatedWait.Minutes()); mins > 0 {
				texts = append(texts, e.text("transfer.wait", mins))
			}
		}
		out := say(texts...)
		out.Enqueue = &EnqueueSpec{Queue: plan.QueueName}
		return out
	case plan.Connected:
		s.Enter(PhaseDone)
		out := say(append(lead, e.text("goodbye"))...)
		out.Hangup = true
		return out
	default:
		s.Enter(PhaseError)
		out := say(e.text("error.generic"))
		out.Hangup = true
		return out
	}
}

// systemFailure ends the call with the standing apology. The message
// promises a follow-up, so no live transfer is attempted when even the
// state store is failing.
func (e *Engine) systemFailure(ctx context.Context, s *CallState) Outcome {
	s.Enter(PhaseError)
	if err := e.store.Delete(ctx, s.CallID); err != nil {
		logger.From(ctx, e.log).Warn("delete call state after failure", "call_id", s.CallID, "error", err)
	}
	out := say(e.text("error.generic"))
	out.Hangup = true
	return out
}

func (e *Engine) text(key string, args ...any) string {
	return e.prompts.Text(key, args...)
}

func (e *Engine) now() time.Time {
	return e.clock().In(e.cfg.Location)
}

// menuChoice resolves a one-digit menu selection from either channel.
func (e *Engine) menuChoice(ev Event, opts []speech.MenuOption) (string, bool) {
	switch ev.Source {
	case SourceDTMF:
		d := speech.CleanDigits(ev.Raw)
		for _, o := range opts {
			if o.Value == d && d != "" {
				return d, true
			}
		}
	case SourceSpeech:
		res := speech.ClassifyIntent(ev.Raw, opts)
		if res.Value != "" && res.Confidence >= e.cfg.MinConfidence {
			return res.Value, true
		}
	}
	return "", false
}

// confirmChoice reads a yes/no turn: press 1 or say yes confirms,
// press 2 or say no declines. ok is false on anything else.
func (e *Engine) confirmChoice(ev Event) (confirmed, ok bool) {
	opts := menuOptionsFor(
		[]string{"yes", "yeah", "yep", "correct", "right", "confirm"},
		[]string{"no", "nope", "wrong", "incorrect", "re enter", "start over"},
	)
	choice, matched := e.menuChoice(ev, opts)
	if !matched {
		return false, false
	}
	return choice == "1", true
}

// spell reads a code back one character at a time.
func spell(code string) string {
	parts := make([]string, 0, len(code))
	for _, r := range code {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " ")
}

func (e *Engine) spokenAt(t time.Time) string {
	return t.In(e.cfg.Location).Format("Monday, January 2 at 3:04 PM")
}
