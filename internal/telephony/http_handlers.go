package telephony

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"careline/internal/callflow"
	"careline/internal/prompts"
	"careline/internal/queue"
	"careline/internal/reporting"
	"careline/pkg/logger"
)

// Handler converts voice webhooks to engine events, runs the flow, and
// writes TwiML.
//
// No business logic here.

type Handler struct {
	Engine  *callflow.Engine
	Builder *Builder

	// States and Queue are cleaned up best-effort when the status
	// callback reports the call ended.
	States callflow.Store
	Queue  *queue.Service

	// Reports, when set, receives a record for every finished call.
	Reports *reporting.Service

	// Texts speaks hold-loop updates to parked callers; nil uses the
	// built-in prompt catalog.
	Texts *prompts.Catalog

	// HoldMusic is an audio URL played in the hold loop; empty falls
	// back to a spoken pause.
	HoldMusic string

	// Gate, when set, caps concurrent calls. Slots free on the final
	// status callback.
	Gate *CallGate
}

// Inbound answers the first webhook of a new call. When a gate is
// configured and full, the caller hears a busy message and the call
// ends without creating any state.
func (h Handler) Inbound(c *gin.Context) {
	if h.Gate != nil {
		if form, err := ParseVoiceWebhook(c.Request); err == nil && form.CallSid != "" {
			admitted, gerr := h.Gate.Admit(c.Request.Context(), form.CallSid)
			switch {
			case gerr != nil:
				// Fail open; a gate outage must not take the line down.
				logger.FromGin(c).Warn("call gate check failed", "call_id", form.CallSid, "err", gerr)
			case !admitted:
				logger.FromGin(c).Info("call rejected at capacity", "call_id", form.CallSid)
				h.respondBusy(c)
				return
			}
		}
	}
	h.serve(c)
}

func (h Handler) respondBusy(c *gin.Context) {
	r := twimlResponse{Verbs: []any{
		twimlSay{Text: h.text("busy.lines")},
		twimlHangup{},
	}}
	twiml, err := encodeTwiML(r)
	if err != nil {
		logger.FromGin(c).Error("busy twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

// Collect continues a call after a gather posts input or times out.
func (h Handler) Collect(c *gin.Context) { h.serve(c) }

// DialResult resumes a call after a transfer dial leg finishes.
func (h Handler) DialResult(c *gin.Context) { h.serve(c) }

func (h Handler) serve(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Engine == nil || h.Builder == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call engine not configured"})
		return
	}

	form, err := ParseVoiceWebhook(c.Request)
	if err != nil {
		log.Warn("voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}

	ctx := logger.With(c.Request.Context(), log)
	out, err := h.Engine.HandleEvent(ctx, form.Event())
	if err != nil {
		log.Error("call event rejected", "call_id", form.CallSid, "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "event rejected"})
		return
	}

	twiml, err := h.Builder.Render(out)
	if err != nil {
		log.Error("twiml render failed", "call_id", form.CallSid, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}

	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

// Status receives call lifecycle updates. A final status releases the
// call's state and hold-queue slot and records the call; all of it
// best-effort, a webhook retry must see the same answer.
func (h Handler) Status(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseVoiceWebhook(c.Request)
	if err != nil {
		log.Warn("status webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}
	if !reporting.KnownStatus(reporting.CallStatus(form.CallStatus)) {
		c.Status(http.StatusNoContent)
		return
	}

	ctx := c.Request.Context()
	if h.States != nil {
		if err := h.States.Delete(ctx, form.CallSid); err != nil {
			log.Warn("state cleanup failed", "call_id", form.CallSid, "err", err)
		}
	}
	if h.Queue != nil {
		if err := h.Queue.Remove(ctx, form.CallSid); err != nil && !errors.Is(err, queue.ErrNotFound) {
			log.Warn("queue cleanup failed", "call_id", form.CallSid, "err", err)
		}
	}
	if h.Gate != nil {
		if err := h.Gate.Release(ctx, form.CallSid); err != nil {
			log.Warn("call slot release failed", "call_id", form.CallSid, "err", err)
		}
	}
	if h.Reports != nil {
		rec := reporting.CallRecord{
			CallID:          form.CallSid,
			Caller:          form.From,
			Status:          reporting.CallStatus(form.CallStatus),
			DurationSeconds: form.CallDuration,
		}
		if err := h.Reports.Record(ctx, rec); err != nil {
			log.Warn("call record failed", "call_id", form.CallSid, "err", err)
		}
	}

	c.Status(http.StatusNoContent)
}

// Wait serves the hold loop for queued callers. The provider requests
// it again each time the previous wait document finishes playing, so
// the position announcement refreshes as the line drains.
func (h Handler) Wait(c *gin.Context) {
	form, err := ParseVoiceWebhook(c.Request)
	if err != nil {
		logger.FromGin(c).Warn("wait webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	position := form.QueuePosition
	if h.Queue != nil && form.CallSid != "" {
		if queued, err := h.Queue.Lookup(c.Request.Context(), form.CallSid); err == nil {
			position = queued.Position
		}
	}

	var r twimlResponse
	switch {
	case position == 1:
		r.Verbs = append(r.Verbs, twimlSay{Text: h.text("transfer.first")})
	case position > 1:
		r.Verbs = append(r.Verbs, twimlSay{Text: h.text("transfer.position", position)})
	}
	if h.HoldMusic != "" {
		r.Verbs = append(r.Verbs, twimlPlay{URL: h.HoldMusic})
	} else {
		r.Verbs = append(r.Verbs, twimlSay{Text: h.text("transfer.hold_music")})
		r.Verbs = append(r.Verbs, twimlPause{Length: 10})
	}

	twiml, err := encodeTwiML(r)
	if err != nil {
		logger.FromGin(c).Error("wait twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

func (h Handler) text(key string, args ...any) string {
	if h.Texts != nil {
		return h.Texts.Text(key, args...)
	}
	return prompts.Defaults().Text(key, args...)
}
