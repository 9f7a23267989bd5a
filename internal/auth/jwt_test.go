package auth

import (
	"testing"
	"time"

	"careline/internal/config"
)

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		JWTIssuer:       "issuer",
		JWTAudience:     "aud",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, "user-1", "agency-1", RoleDispatcher)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token strings")
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.AgencyID != "agency-1" || claims.Role != RoleDispatcher {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestIssueRejectsUnknownRole(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	if _, err := m.IssuePair(time.Now(), "u", "a", "superuser"); err == nil {
		t.Fatalf("expected unknown role error")
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	p, err := m.IssuePair(time.Now(), "u", "a", RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.RefreshToken, TokenTypeAccess, time.Now()); err == nil {
		t.Fatalf("expected token_type mismatch")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})

	now := time.Unix(1700000000, 0).UTC()
	p, err := m.IssuePair(now, "u", "a", RoleDispatcher)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// Past TTL plus the 30s leeway.
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, now.Add(2*time.Minute)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	a, _ := NewManager(config.AuthConfig{JWTSecret: "secret-a", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	b, _ := NewManager(config.AuthConfig{JWTSecret: "secret-b", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})

	p, err := a.IssuePair(time.Now(), "u", "a", RoleDispatcher)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Verify(p.AccessToken, TokenTypeAccess, time.Now()); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestRefreshIssuesNewPair(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})

	now := time.Unix(1700000000, 0).UTC()
	p, err := m.IssuePair(now, "user-1", "agency-1", RoleDispatcher)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	next, err := m.Refresh(p.RefreshToken, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := m.Verify(next.AccessToken, TokenTypeAccess, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("verify refreshed: %v", err)
	}
	if claims.UserID != "user-1" || claims.AgencyID != "agency-1" || claims.Role != RoleDispatcher {
		t.Fatalf("identity not carried through refresh: %+v", claims)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	p, err := m.IssuePair(time.Now(), "u", "a", RoleDispatcher)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Refresh(p.AccessToken, time.Now()); err == nil {
		t.Fatalf("access token must not refresh")
	}
}
