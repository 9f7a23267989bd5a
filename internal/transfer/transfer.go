// Package transfer decides how an escalated caller reaches a human:
// a direct time-bounded dial first, the hold queue when the dial does
// not connect. The orchestrator never returns an error; every failure
// inside it degrades to the next fallback, ending at a plan flagged
// Failed that the call flow renders as a safe terminal message.
package transfer

import (
	"context"
	"log/slog"
	"time"

	"careline/internal/queue"
)

// DefaultDialTimeout bounds the direct-dial attempt.
const DefaultDialTimeout = 30

// Queue is the slice of the queue service the orchestrator needs.
type Queue interface {
	Enqueue(ctx context.Context, req queue.EnqueueRequest) (queue.QueuedCall, error)
	EstimatedWait(position int) time.Duration
}

// Request carries the escalating call's context. Override is a
// call-scoped target (a job's coordinator line), ProviderNumber the
// agency's transfer desk; the configured escalation number backs both.
type Request struct {
	CallID         string
	CallerNumber   string
	EmployeeID     string
	ProviderID     string
	Override       string
	ProviderNumber string
	Reason         string
}

// Plan tells the call flow what to do next. Exactly one of the shapes
// is set: a dial attempt, a connected hangup, a queue parking, or
// Failed.
type Plan struct {
	// DialNumber, when set, asks for a bridged dial with DialTimeout
	// seconds of ringing.
	DialNumber  string
	DialTimeout int

	// Connected means the dial bridged and finished; end cleanly.
	Connected bool

	// Enqueued parking details.
	Enqueued      bool
	QueueName     string
	Position      int
	EstimatedWait time.Duration

	// Failed means even the queue rejected the caller.
	Failed bool
}

type Config struct {
	// EscalationNumber is the global default transfer target.
	EscalationNumber string
	// DialTimeout in seconds; DefaultDialTimeout when unset.
	DialTimeout int
	// HoldQueue names the transport hold queue callers park in.
	HoldQueue string
}

type Orchestrator struct {
	queue     Queue
	overrides OverrideStore
	audit     AuditLogger
	cfg       Config
	log       *slog.Logger
}

func NewOrchestrator(q Queue, cfg Config, log *slog.Logger) *Orchestrator {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.HoldQueue == "" {
		cfg.HoldQueue = "careline-hold"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{queue: q, cfg: cfg, log: log}
}

// UseOverrides attaches the ops-set override store ahead of normal
// target resolution. aud may be nil; applications then go unrecorded.
func (o *Orchestrator) UseOverrides(store OverrideStore, aud AuditLogger) {
	o.overrides = store
	o.audit = aud
}

// Begin starts an escalation: dial the most specific reachable target,
// or park the caller immediately when no target is configured.
func (o *Orchestrator) Begin(ctx context.Context, req Request) Plan {
	target := o.resolveTarget(ctx, req)
	if target == "" {
		o.log.Warn("transfer has no dial target, parking caller",
			"call_id", req.CallID)
		return o.park(ctx, req)
	}
	return Plan{DialNumber: target, DialTimeout: o.cfg.DialTimeout}
}

// Complete consumes the transport's dial result. A bridged call ends
// cleanly; anything else parks the caller in the hold queue.
func (o *Orchestrator) Complete(ctx context.Context, req Request, dialStatus string) Plan {
	switch dialStatus {
	case "completed", "answered":
		return Plan{Connected: true}
	}
	o.log.Info("transfer dial did not connect, parking caller",
		"call_id", req.CallID,
		"dial_status", dialStatus)
	return o.park(ctx, req)
}

// resolveTarget picks the dial target, most specific first. An active
// ops override beats everything; a store failure just means no override.
func (o *Orchestrator) resolveTarget(ctx context.Context, req Request) string {
	if o.overrides != nil {
		forced, ok, err := o.overrides.Get(ctx)
		if err != nil {
			o.log.Warn("override lookup failed, using normal target",
				"call_id", req.CallID,
				"error", err)
		} else if ok {
			if o.audit != nil {
				_ = o.audit.LogOverrideApplied(ctx, forced.AgencyID, req.CallID, forced.Target)
			}
			return forced.Target
		}
	}
	if req.Override != "" {
		return req.Override
	}
	if req.ProviderNumber != "" {
		return req.ProviderNumber
	}
	return o.cfg.EscalationNumber
}

func (o *Orchestrator) park(ctx context.Context, req Request) Plan {
	queued, err := o.queue.Enqueue(ctx, queue.EnqueueRequest{
		CallID:       req.CallID,
		CallerNumber: req.CallerNumber,
		EmployeeID:   req.EmployeeID,
		ProviderID:   req.ProviderID,
		Reason:       req.Reason,
	})
	if err != nil {
		o.log.Error("hold queue rejected caller",
			"call_id", req.CallID,
			"error", err)
		return Plan{Failed: true}
	}
	return Plan{
		Enqueued:      true,
		QueueName:     o.cfg.HoldQueue,
		Position:      queued.Position,
		EstimatedWait: o.queue.EstimatedWait(queued.Position),
	}
}
