package goLogin

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

/*
====== SESSION TOKENS ======
*/

// SessionToken defines a public type used by goLogin APIs.
// It holds a bearer token captured from an authenticated page,
// together with the expiry read from the token's claims.
type SessionToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CapturedAt   time.Time
}

// Valid reports whether the token is still usable at the given
// instant. slack shrinks the window so callers refresh before the
// server-side expiry.
func (t *SessionToken) Valid(now time.Time, slack time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(slack).Before(t.ExpiresAt)
}

// TokenFromJWT builds a SessionToken from a raw bearer token by
// reading the exp claim without verifying the signature. The token
// was issued by the remote service; we only need its lifetime, not
// its authenticity.
func TokenFromJWT(raw string, capturedAt time.Time) (*SessionToken, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return nil, ErrMalformedPayload
	}

	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, ErrMalformedPayload
	}

	var expiresAt time.Time
	if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return &SessionToken{
		AccessToken: raw,
		ExpiresAt:   expiresAt,
		CapturedAt:  capturedAt,
	}, nil
}

// TokenCapturer is implemented by probes that can read the bearer
// token from the authenticated page (local storage, cookie, or an
// intercepted request header).
type TokenCapturer interface {
	BearerToken(ctx context.Context) (string, error)
}
