package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry peeks at the exp claim of a JWT-shaped token without verifying
// the signature. Tokens are otherwise opaque to this client; the expiry only
// short-circuits a refresh that is guaranteed to fail and feeds display.
// The second return is false for opaque or claimless tokens.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// tokenExpired reports whether the token carries an expiry that has passed.
// known is false when the token embeds no readable expiry, in which case the
// network decides.
func tokenExpired(token string) (expired, known bool) {
	exp, ok := TokenExpiry(token)
	if !ok {
		return false, false
	}
	return time.Now().After(exp), true
}
