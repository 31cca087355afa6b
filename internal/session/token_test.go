package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestTokenExpiryReadsExpClaim(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{"sub": "ana@example.com", "exp": exp.Unix()})

	got, ok := TokenExpiry(token)
	if !ok {
		t.Fatal("expected a readable expiry")
	}
	if !got.Equal(exp) {
		t.Fatalf("expiry = %v, want %v", got, exp)
	}
}

func TestTokenExpiryOpaqueToken(t *testing.T) {
	if _, ok := TokenExpiry("not-a-jwt"); ok {
		t.Fatal("opaque token must not report an expiry")
	}
}

func TestTokenExpiryMissingClaim(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "ana@example.com"})
	if _, ok := TokenExpiry(token); ok {
		t.Fatal("token without exp must not report an expiry")
	}
}

func TestTokenExpired(t *testing.T) {
	past := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	if expired, known := tokenExpired(past); !known || !expired {
		t.Fatalf("past token: expired=%v known=%v", expired, known)
	}

	future := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	if expired, known := tokenExpired(future); !known || expired {
		t.Fatalf("future token: expired=%v known=%v", expired, known)
	}

	if _, known := tokenExpired("opaque"); known {
		t.Fatal("opaque token must defer to the network")
	}
}
