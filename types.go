package goLogin

import (
	"context"
	"io"
	"time"
)

// Secret is a base32-encoded TOTP shared secret, normalized to the
// uppercase alphabet A-Z2-7. Construct it through ExtractSecret (or
// ParseSecret for already-extracted values); a Secret in circulation is
// always validated.
type Secret string

// Masked renders the secret for logs and audit metadata: first and last
// four characters with the middle elided. The full value is never logged.
func (s Secret) Masked() string {
	return maskSecret(string(s))
}

// OutcomeState is the tagged state of one MFA completion attempt.
// Success, Failure, and TimedOut are terminal; Pending only exists inside
// the polling loop and is never returned to callers.
type OutcomeState uint8

const (
	// StatePending means no terminal signal has been observed yet.
	StatePending OutcomeState = iota
	// StateSuccess means authentication completed.
	StateSuccess
	// StateFailure means a definitive negative signal was observed.
	StateFailure
	// StateTimedOut means the detection deadline elapsed with no terminal
	// signal.
	StateTimedOut
)

func (s OutcomeState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state admits no further transition.
func (s OutcomeState) Terminal() bool {
	return s == StateSuccess || s == StateFailure || s == StateTimedOut
}

// Signal identifies which of the race-evaluated UI/URL conditions resolved
// an attempt. The detector evaluates them in fixed priority order:
// dashboard URL first, then error message, then the stay-signed-in prompt.
type Signal uint8

const (
	// SignalNone means no signal fired (pending ticks, timeouts, faults).
	SignalNone Signal = iota
	// SignalDashboardURL means the session URL matched the dashboard.
	SignalDashboardURL
	// SignalErrorMessage means an error banner was visible.
	SignalErrorMessage
	// SignalStaySignedIn means the post-auth interstitial was visible.
	SignalStaySignedIn
)

func (s Signal) String() string {
	switch s {
	case SignalDashboardURL:
		return "dashboard_url"
	case SignalErrorMessage:
		return "error_message"
	case SignalStaySignedIn:
		return "stay_signed_in"
	default:
		return "none"
	}
}

// Outcome is the immutable result of one MFA completion detection. It is
// produced exactly once per attempt and never mutated afterwards.
type Outcome struct {
	State   OutcomeState
	Signal  Signal
	Reason  string
	Elapsed time.Duration
	Ticks   int
}

// Retryable reports whether the orchestrator may spend another attempt on
// this outcome. Both Failure and TimedOut are retry-eligible; Failure from
// a rejected code additionally requires a fresh time step (the
// orchestrator enforces that separately).
func (o Outcome) Retryable() bool {
	return o.State == StateFailure || o.State == StateTimedOut
}

// Credentials identifies the account being logged in. The password never
// appears in logs, audit events, or error text.
type Credentials struct {
	Email    string
	Password string
}

// LoginAttempt is the ephemeral per-attempt record owned by the
// orchestrator. It exists only for the duration of one attempt and is
// discarded once the attempt resolves; no state leaks across attempts.
type LoginAttempt struct {
	ID        string
	Index     int
	StartedAt time.Time
	Outcome   Outcome
}

// LoginResult is returned by Engine.AttemptLogin on success.
type LoginResult struct {
	AttemptID string
	Attempts  int
	Outcome   Outcome
	// AlreadyAuthenticated is set when the dashboard was reached without
	// submitting anything (a persisted session).
	AlreadyAuthenticated bool
	// Token is the captured post-login session token, when the probe
	// backend exposes one and capture is enabled. Nil otherwise.
	Token *SessionToken
}

// ArtifactDecoder turns a scanned enrollment image into its text payload.
// Implementations report ErrNoArtifactDetected when no code is present in
// the image; payload syntax is not their concern.
type ArtifactDecoder interface {
	Decode(ctx context.Context, r io.Reader) (string, error)
}

func maskSecret(s string) string {
	if len(s) < 12 {
		return "****"
	}
	return s[:4] + "…" + s[len(s)-4:]
}
