// Package secrets persists the provisioned TOTP secret and captured
// session tokens across login runs.
//
// Three backends exist: a JSON config file and a dotenv file for the
// local bot, and redis for headless runners that have no durable
// filesystem. A Chain composes them for reads so an environment override
// wins over the config file.
package secrets

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConfigured means the store is reachable but holds no value.
	ErrNotConfigured = errors.New("secret not configured")
	// ErrBackend wraps store infrastructure failures.
	ErrBackend = errors.New("secret store backend unavailable")
)

// Store is the durable home of the provisioned TOTP secret.
type Store interface {
	GetSecret(ctx context.Context) (string, error)
	SetSecret(ctx context.Context, secret string) error
}

// TokenRecord is a captured post-login session token.
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CapturedAt   time.Time `json:"captured_at"`
}

// TokenStore persists captured session tokens. Implemented by the file and
// redis backends; the dotenv backend is secret-only.
type TokenStore interface {
	GetToken(ctx context.Context) (*TokenRecord, error)
	SetToken(ctx context.Context, record *TokenRecord) error
	ClearToken(ctx context.Context) error
}
