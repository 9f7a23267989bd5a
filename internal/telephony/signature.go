package telephony

import (
	"net/http"

	"github.com/gin-gonic/gin"
	twilioclient "github.com/twilio/twilio-go/client"

	"careline/pkg/logger"
)

const signatureHeader = "X-Twilio-Signature"

// SignatureConfig drives webhook origin validation.
type SignatureConfig struct {
	// AuthToken is the Twilio account auth token the signatures are
	// computed with.
	AuthToken string
	// AccountSID, when set, must match the AccountSid form field on
	// every webhook. A valid signature from the wrong account is still
	// the wrong account.
	AccountSID string
	// PublicURL is the externally visible origin Twilio signs against,
	// e.g. "https://careline.example.com". Proxies in front of the
	// service must preserve the request path.
	PublicURL string
	// Enforce disables the check when false (local development; the
	// simulator does not sign its requests).
	Enforce bool
}

// RequireTwilioSignature rejects webhook posts whose X-Twilio-Signature
// does not match the form payload.
func RequireTwilioSignature(cfg SignatureConfig) gin.HandlerFunc {
	validator := twilioclient.NewRequestValidator(cfg.AuthToken)
	return func(c *gin.Context) {
		if !cfg.Enforce {
			c.Next()
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for k, vs := range c.Request.PostForm {
			if len(vs) > 0 {
				params[k] = vs[0]
			}
		}

		url := cfg.PublicURL + c.Request.URL.RequestURI()
		sig := c.GetHeader(signatureHeader)
		if sig == "" || !validator.Validate(url, params, sig) {
			logger.FromGin(c).Warn("twilio signature rejected",
				"path", c.Request.URL.Path,
				"call_id", c.Request.PostFormValue("CallSid"))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "signature rejected"})
			return
		}
		if cfg.AccountSID != "" && params["AccountSid"] != cfg.AccountSID {
			logger.FromGin(c).Warn("webhook from unexpected account",
				"account_sid", params["AccountSid"],
				"call_id", params["CallSid"])
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unknown account"})
			return
		}
		c.Next()
	}
}
