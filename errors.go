package goLogin

import (
	"errors"

	"github.com/MrEthical07/goLogin/probe"
)

var (
	// ErrMalformedPayload is returned by secret provisioning when the
	// enrollment payload carries no secret= token.
	ErrMalformedPayload = errors.New("malformed enrollment payload")
	// ErrInvalidSecretFormat is returned when an extracted secret fails
	// base32 validation or the minimum-length requirement.
	ErrInvalidSecretFormat = errors.New("invalid totp secret format")
	// ErrNoArtifactDetected is returned when the artifact decoder finds no
	// scannable code in the supplied image. Distinct from a malformed
	// payload: there was nothing to parse at all.
	ErrNoArtifactDetected = errors.New("no enrollment artifact detected")
	// ErrElementNotFound is the probe-level absence error, re-exported so
	// callers can match it without importing the probe package.
	ErrElementNotFound = probe.ErrElementNotFound
	// ErrSecretNotConfigured is returned when no TOTP secret is available
	// from any configured store.
	ErrSecretNotConfigured = errors.New("totp secret not configured")
	// ErrSecretStoreUnavailable is returned when the secret store backend
	// cannot be reached.
	ErrSecretStoreUnavailable = errors.New("secret store unavailable")
	// ErrExhaustedRetries is returned by AttemptLogin after MaxAttempts
	// non-success outcomes. The last outcome reason is attached in the
	// wrapped error text.
	ErrExhaustedRetries = errors.New("login attempts exhausted")
	// ErrCodeNotRefreshable is returned when a rejected code cannot be
	// regenerated for a retry because the time step has not advanced and
	// no skew tolerance is configured.
	ErrCodeNotRefreshable = errors.New("totp code not refreshable within current time step")
	// ErrEngineNotReady is returned when an Engine method is called on a
	// nil or incompletely built engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
