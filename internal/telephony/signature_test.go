package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
)

const (
	testAuthToken = "12345abcdef"
	testPublicURL = "https://careline.example.com"
)

// twilioSign computes the signature scheme Twilio documents: HMAC-SHA1
// over the full URL followed by the sorted form keys and values.
func twilioSign(t *testing.T, fullURL string, form url.Values) string {
	t.Helper()
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	payload := fullURL
	for _, k := range keys {
		payload += k + form.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(testAuthToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signatureRouter(cfg SignatureConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/voice/inbound", RequireTwilioSignature(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "reached")
	})
	return r
}

func TestSignatureMiddlewareRejectsUnsigned(t *testing.T) {
	router := signatureRouter(SignatureConfig{AuthToken: testAuthToken, PublicURL: testPublicURL, Enforce: true})

	form := url.Values{"CallSid": {"CA1"}, "From": {"+15550001111"}}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, postForm(t, "/voice/inbound", form))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestSignatureMiddlewareAcceptsSigned(t *testing.T) {
	router := signatureRouter(SignatureConfig{AuthToken: testAuthToken, PublicURL: testPublicURL, Enforce: true})

	form := url.Values{"CallSid": {"CA1"}, "From": {"+15550001111"}, "Digits": {"1"}}
	req := postForm(t, "/voice/inbound", form)
	req.Header.Set(signatureHeader, twilioSign(t, testPublicURL+"/voice/inbound", form))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSignatureMiddlewareRejectsTamperedBody(t *testing.T) {
	router := signatureRouter(SignatureConfig{AuthToken: testAuthToken, PublicURL: testPublicURL, Enforce: true})

	signed := url.Values{"CallSid": {"CA1"}, "Digits": {"1"}}
	sent := url.Values{"CallSid": {"CA1"}, "Digits": {"2"}}
	req := postForm(t, "/voice/inbound", sent)
	req.Header.Set(signatureHeader, twilioSign(t, testPublicURL+"/voice/inbound", signed))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestSignatureMiddlewareChecksAccountSid(t *testing.T) {
	cfg := SignatureConfig{AuthToken: testAuthToken, AccountSID: "AC-ours", PublicURL: testPublicURL, Enforce: true}
	router := signatureRouter(cfg)

	// Correctly signed, but by a different account's webhook.
	form := url.Values{"CallSid": {"CA1"}, "AccountSid": {"AC-theirs"}}
	req := postForm(t, "/voice/inbound", form)
	req.Header.Set(signatureHeader, twilioSign(t, testPublicURL+"/voice/inbound", form))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	form.Set("AccountSid", "AC-ours")
	req = postForm(t, "/voice/inbound", form)
	req.Header.Set(signatureHeader, twilioSign(t, testPublicURL+"/voice/inbound", form))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSignatureMiddlewareSkippedWhenNotEnforced(t *testing.T) {
	router := signatureRouter(SignatureConfig{AuthToken: testAuthToken, PublicURL: testPublicURL, Enforce: false})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postForm(t, "/voice/inbound", url.Values{"CallSid": {"CA1"}}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
