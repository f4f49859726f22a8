package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiresAt returns the expiry encoded in a JWT, if present.
//
// The signature is not verified. The result only drives proactive refresh;
// the server remains authoritative and rejects expired tokens.
func ExpiresAt(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ExpiringSoon reports whether a token is expired or expires within window
// of now. Tokens without a readable expiry never count as expiring.
func ExpiringSoon(token string, now time.Time, window time.Duration) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return true, ErrEmptyToken
	}
	exp, ok := ExpiresAt(token)
	if !ok {
		return false, nil
	}
	return exp.Sub(now) <= window, nil
}
