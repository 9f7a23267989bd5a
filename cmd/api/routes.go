package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careline/internal/auth"
	"careline/internal/config"
	"careline/internal/httpapi"
	"careline/internal/telephony"
)

type routeDeps struct {
	cfg    config.Config
	tokens *auth.Manager
	voice  telephony.Handler
	api    httpapi.Handlers
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Twilio posts here; nothing else should. Signature validation is
	// the only gate.
	voice := r.Group("/voice")
	voice.Use(telephony.RequireTwilioSignature(telephony.SignatureConfig{
		AuthToken:  d.cfg.Twilio.AuthToken,
		AccountSID: d.cfg.Twilio.AccountSID,
		PublicURL:  d.cfg.Twilio.PublicURL,
		Enforce:    d.cfg.Twilio.ValidateSignature,
	}))
	{
		voice.POST("/inbound", d.voice.Inbound)
		voice.POST("/collect", d.voice.Collect)
		voice.POST("/dial-result", d.voice.DialResult)
		voice.POST("/status", d.voice.Status)
		voice.POST("/wait", d.voice.Wait)
	}

	// The refresh token is the credential; pairs are first minted with
	// cmd/opstoken.
	r.POST("/auth/refresh", d.api.Refresh)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.tokens))
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			aid, _ := auth.AgencyID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"user_id": uid, "agency_id": aid, "role": role})
		})

		// Dispatcher console. Admins pass every role check.
		ops := v1.Group("")
		ops.Use(auth.RequireAnyRole(auth.RoleDispatcher))
		{
			ops.GET("/queue", d.api.ListQueue)
			ops.GET("/queue/summary", d.api.QueueSummary)
			ops.GET("/queue/:call_id", d.api.GetQueuedCall)
			ops.DELETE("/queue/:call_id", d.api.RemoveQueuedCall)
			ops.GET("/reports/calls", d.api.CallReport)
			ops.GET("/transfer/override", d.api.GetOverride)
		}

		// Changing where calls land is admin-only.
		admin := v1.Group("")
		admin.Use(auth.RequireAnyRole(auth.RoleAdmin))
		{
			admin.PUT("/transfer/override", d.api.SetOverride)
			admin.DELETE("/transfer/override", d.api.ClearOverride)
			admin.GET("/audit", d.api.ListAuditEvents)
		}
	}
}
