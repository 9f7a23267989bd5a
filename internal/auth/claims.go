package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for ops-API tokens.
// AgencyID must be present on every token: dispatch consoles always act
// on behalf of exactly one staffing agency.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	AgencyID  string    `json:"agency_id"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
