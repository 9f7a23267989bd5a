package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"careline/internal/config"

	"github.com/gin-gonic/gin"
)

func identityInjector(userID, agencyID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithIdentity(c.Request.Context(), userID, agencyID, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", identityInjector("u", "a", RoleAdmin), RequireAnyRole(RoleDispatcher), func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequireAnyRole_DispatcherDeniedOnAdminRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", identityInjector("u", "a", RoleDispatcher), RequireAnyRole(RoleAdmin), func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	if w.Code != 403 {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireAnyRole_MissingRoleUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", RequireAnyRole(RoleDispatcher), func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAccessToken_RejectsMissingAndBadTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m, err := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	r := gin.New()
	r.GET("/x", RequireAccessToken(m), func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 401 {
		t.Fatalf("no header: expected 401, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Fatalf("garbage token: expected 401, got %d", w.Code)
	}
}

func TestRequireAccessToken_InjectsIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m, err := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	pair, err := m.IssuePair(time.Now(), "user-9", "agency-3", RoleDispatcher)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var gotUser, gotAgency, gotRole string
	r := gin.New()
	r.GET("/x", RequireAccessToken(m), func(c *gin.Context) {
		gotUser, _ = UserID(c.Request.Context())
		gotAgency, _ = AgencyID(c.Request.Context())
		gotRole, _ = Role(c.Request.Context())
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotUser != "user-9" || gotAgency != "agency-3" || gotRole != RoleDispatcher {
		t.Fatalf("identity not injected: %q %q %q", gotUser, gotAgency, gotRole)
	}
}
