package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"careline/internal/audit"
	"careline/internal/auth"
	"careline/internal/queue"
	"careline/internal/reporting"
	"careline/internal/transfer"
	"careline/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups the ops API endpoints for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Queue     *queue.Service
	Reports   *reporting.Service
	Overrides transfer.OverrideStore
	Audit     *audit.Service
}

// --- Auth ---

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a fresh pair. Pairs are minted
// out of band (see cmd/opstoken); there is no password login.
func (h Handlers) Refresh(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	pair, err := h.Auth.Refresh(req.RefreshToken, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Queue ---

func (h Handlers) ListQueue(c *gin.Context) {
	if h.Queue == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "queue not configured"})
		return
	}
	calls, err := h.Queue.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "queue list failed"})
		return
	}
	if calls == nil {
		calls = []queue.QueuedCall{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls, "count": len(calls)})
}

func (h Handlers) QueueSummary(c *gin.Context) {
	if h.Queue == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "queue not configured"})
		return
	}
	sum, err := h.Queue.Summarize(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "queue summary failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h Handlers) GetQueuedCall(c *gin.Context) {
	if h.Queue == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "queue not configured"})
		return
	}
	qc, err := h.Queue.Lookup(c.Request.Context(), c.Param("call_id"))
	switch {
	case errors.Is(err, queue.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not in queue"})
		return
	case errors.Is(err, queue.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "queue lookup failed"})
		return
	}
	c.JSON(http.StatusOK, qc)
}

// RemoveQueuedCall drops a caller from the hold queue, for example after
// handling them over a direct callback. The removal is audited.
func (h Handlers) RemoveQueuedCall(c *gin.Context) {
	if h.Queue == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "queue not configured"})
		return
	}
	callID := c.Param("call_id")
	err := h.Queue.Remove(c.Request.Context(), callID)
	switch {
	case errors.Is(err, queue.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not in queue"})
		return
	case errors.Is(err, queue.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "queue remove failed"})
		return
	}

	if h.Audit != nil {
		ctx := c.Request.Context()
		agencyID, _ := auth.AgencyID(ctx)
		userID, _ := auth.UserID(ctx)
		role, _ := auth.Role(ctx)
		if err := h.Audit.LogQueueRemoved(ctx, agencyID, userID, role, c.ClientIP(), callID, c.Query("reason")); err != nil {
			logger.FromGin(c).Warn("audit append failed", "error", err)
		}
	}
	c.Status(http.StatusNoContent)
}

// --- Reports ---

// CallReport summarizes finished calls over [from, to). Without query
// parameters it covers the trailing 24 hours.
func (h Handlers) CallReport(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	now := time.Now().UTC()
	r := reporting.TimeRange{From: now.Add(-24 * time.Hour), To: now}
	if v := c.Query("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		r.From = ts
	}
	if v := c.Query("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		r.To = ts
	}

	sum, err := h.Reports.Summarize(c.Request.Context(), r)
	switch {
	case errors.Is(err, reporting.ErrInvalidRange):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must precede to"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// --- Transfer override ---

type setOverrideRequest struct {
	Target     string `json:"target"`
	Reason     string `json:"reason"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// maxOverrideTTL keeps a forgotten override from outliving the outage it
// was set for by more than a week.
const maxOverrideTTL = 7 * 24 * time.Hour

func (h Handlers) GetOverride(c *gin.Context) {
	if h.Overrides == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "overrides not configured"})
		return
	}
	o, ok, err := h.Overrides.Get(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "override lookup failed"})
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no active override"})
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h Handlers) SetOverride(c *gin.Context) {
	if h.Overrides == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "overrides not configured"})
		return
	}
	var req setOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Target == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "target required"})
		return
	}
	if req.TTLSeconds <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "ttl_seconds must be positive"})
		return
	}
	ttl := time.Duration(req.TTLSeconds) * time.Second
	if ttl > maxOverrideTTL {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "ttl_seconds exceeds the 7 day maximum"})
		return
	}

	ctx := c.Request.Context()
	userID, _ := auth.UserID(ctx)
	agencyID, _ := auth.AgencyID(ctx)
	now := time.Now().UTC()
	o := transfer.Override{
		Target:    req.Target,
		Reason:    req.Reason,
		SetBy:     userID,
		AgencyID:  agencyID,
		SetAt:     now,
		ExpiresAt: now.Add(ttl),
	}
	if err := h.Overrides.Set(ctx, o); err != nil {
		if errors.Is(err, transfer.ErrInvalidOverride) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "override save failed"})
		return
	}

	if h.Audit != nil {
		role, _ := auth.Role(ctx)
		meta, _ := json.Marshal(gin.H{"reason": req.Reason, "expires_at": o.ExpiresAt})
		if err := h.Audit.LogOverrideSet(ctx, agencyID, userID, role, c.ClientIP(), o.Target, string(meta)); err != nil {
			logger.FromGin(c).Warn("audit append failed", "error", err)
		}
	}
	c.JSON(http.StatusOK, o)
}

func (h Handlers) ClearOverride(c *gin.Context) {
	if h.Overrides == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "overrides not configured"})
		return
	}
	ctx := c.Request.Context()
	if err := h.Overrides.Clear(ctx); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "override clear failed"})
		return
	}

	if h.Audit != nil {
		agencyID, _ := auth.AgencyID(ctx)
		userID, _ := auth.UserID(ctx)
		role, _ := auth.Role(ctx)
		if err := h.Audit.LogOverrideCleared(ctx, agencyID, userID, role, c.ClientIP()); err != nil {
			logger.FromGin(c).Warn("audit append failed", "error", err)
		}
	}
	c.Status(http.StatusNoContent)
}

// --- Audit ---

func (h Handlers) ListAuditEvents(c *gin.Context) {
	if h.Audit == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit not configured"})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	evs, err := h.Audit.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit list failed"})
		return
	}
	if evs == nil {
		evs = []audit.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": evs, "count": len(evs)})
}
