// ABOUTME: Token freshness inspection via unverified JWT expiry claims.
// ABOUTME: Display-only hint; the backend is the authority on token validity.

package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expired reports whether a JWT access token's exp claim is in the past.
// The signature is NOT verified; the core has no signing secret and the
// backend validates every request anyway. Tokens that are not JWTs, or
// that carry no exp claim, are reported as not expired.
func Expired(accessToken string, now time.Time) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
