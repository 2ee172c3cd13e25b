package goLogin

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goLogin/probe"
)

// Config defines a public type used by goLogin APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	TOTP         TOTPConfig
	Detector     DetectorConfig
	Orchestrator OrchestratorConfig
	Locators     LocatorConfig
	Session      SessionConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
TOTP CONFIG
====================================
*/

// TOTPConfig controls code generation. Defaults match the common
// authenticator profile: 6 digits, 30-second period, SHA1.
type TOTPConfig struct {
	Digits    int
	Period    int
	Algorithm string // "SHA1" (default), "SHA256", "SHA512"
	// SkewSteps widens retry eligibility: 0 accepts only the exact step,
	// 1 also generates candidates for the adjacent steps. The generator
	// itself always computes the current step; skew is applied by callers
	// through CandidateCodes.
	SkewSteps int
}

/*
====================================
DETECTOR CONFIG
====================================
*/

// DetectorConfig bounds the MFA completion polling loop.
type DetectorConfig struct {
	// Deadline is the hard bound on one detection; the loop returns
	// TimedOut once it elapses. It is also the sole cancellation
	// mechanism for a poll already in flight.
	Deadline time.Duration
	// PollInterval is the suspension between signal evaluations.
	PollInterval time.Duration
}

/*
====================================
ORCHESTRATOR CONFIG
====================================
*/

// OrchestratorConfig controls whole-attempt sequencing and retry policy.
type OrchestratorConfig struct {
	MaxAttempts int
	// StabilizationDelay is the fixed pause after a successful detection,
	// letting post-auth redirects settle before the caller proceeds. It is
	// deliberately much shorter than the detection deadline.
	StabilizationDelay time.Duration
	// RetryBackoff is the wait schedule between whole attempts. When the
	// attempt index exceeds the schedule, the last entry repeats.
	RetryBackoff []time.Duration
	// CodeFieldTimeout bounds the wait for the one-time-code input to
	// appear after credentials are submitted.
	CodeFieldTimeout time.Duration
	// CaptureToken enables post-success bearer-token capture when the
	// probe backend exposes one.
	CaptureToken bool
}

/*
====================================
LOCATOR CONFIG
====================================
*/

// LocatorConfig supplies the environment-specific descriptors the detector
// and orchestrator watch. Nothing is hard-coded: deployments differ in
// which interstitials exist and how error banners render.
type LocatorConfig struct {
	// DashboardURL is the substring of the post-auth URL that marks
	// authoritative success.
	DashboardURL string
	// ErrorMessages are checked in order; the first visible one resolves
	// the attempt as Failure with its extracted text as reason.
	ErrorMessages []probe.Locator
	// StaySignedIn marks the optional post-auth interstitial.
	StaySignedIn probe.Locator
	// StaySignedInConfirm is the control clicked to dismiss it.
	StaySignedInConfirm probe.Locator

	EmailField    probe.Locator
	PasswordField probe.Locator
	CodeField     probe.Locator
	SubmitButton  probe.Locator
	// LoginForm is the credential form; seeing it again after a success
	// signal indicates a redirect loop back to login.
	LoginForm probe.Locator
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls captured-token handling.
type SessionConfig struct {
	// ExpirySlack is subtracted from a token's exp claim when deciding
	// validity, so a token about to expire is treated as already expired.
	ExpirySlack time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by goLogin APIs.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goLogin APIs.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		TOTP: TOTPConfig{
			Digits:    6,
			Period:    30,
			Algorithm: "SHA1",
			SkewSteps: 1,
		},
		Detector: DetectorConfig{
			Deadline:     30 * time.Second,
			PollInterval: time.Second,
		},
		Orchestrator: OrchestratorConfig{
			MaxAttempts:        3,
			StabilizationDelay: 2 * time.Second,
			RetryBackoff: []time.Duration{
				5 * time.Second,
				10 * time.Second,
				15 * time.Second,
			},
			CodeFieldTimeout: 15 * time.Second,
		},
		Locators: LocatorConfig{
			DashboardURL: "/dashboard",
			ErrorMessages: []probe.Locator{
				probe.Text("Invalid code"),
				probe.Text("Code expired"),
				probe.Text("Authentication failed"),
				probe.CSS(".error-message"),
				probe.CSS("[role=\"alert\"]"),
			},
			StaySignedIn:        probe.Text("Stay signed in"),
			StaySignedInConfirm: probe.CSS("input[type=\"submit\"]"),
			EmailField:          probe.CSS("input[type=\"email\"]"),
			PasswordField:       probe.CSS("input[type=\"password\"]"),
			CodeField:           probe.CSS("input[name=\"otc\"]"),
			SubmitButton:        probe.CSS("input[type=\"submit\"]"),
			LoginForm:           probe.CSS("form[name=\"loginForm\"]"),
		},
		Session: SessionConfig{
			ExpirySlack: 5 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
func (c Config) Validate() error {
	switch {
	case c.TOTP.Digits < 6 || c.TOTP.Digits > 8:
		return errors.New("TOTP.Digits must be between 6 and 8")
	case c.TOTP.Period <= 0:
		return errors.New("TOTP.Period must be positive")
	case c.TOTP.SkewSteps < 0 || c.TOTP.SkewSteps > 1:
		return errors.New("TOTP.SkewSteps must be 0 or 1")
	}
	switch strings.ToUpper(c.TOTP.Algorithm) {
	case "", "SHA1", "SHA256", "SHA512":
	default:
		return errors.New("TOTP.Algorithm must be SHA1, SHA256, or SHA512")
	}

	if c.Detector.Deadline <= 0 {
		return errors.New("Detector.Deadline must be positive")
	}
	if c.Detector.PollInterval <= 0 {
		return errors.New("Detector.PollInterval must be positive")
	}
	if c.Detector.PollInterval >= c.Detector.Deadline {
		return errors.New("Detector.PollInterval must be shorter than Detector.Deadline")
	}

	if c.Orchestrator.MaxAttempts < 1 {
		return errors.New("Orchestrator.MaxAttempts must be at least 1")
	}
	if c.Orchestrator.StabilizationDelay < 0 {
		return errors.New("Orchestrator.StabilizationDelay must not be negative")
	}
	for _, d := range c.Orchestrator.RetryBackoff {
		if d < 0 {
			return errors.New("Orchestrator.RetryBackoff entries must not be negative")
		}
	}

	if c.Locators.DashboardURL == "" {
		return errors.New("Locators.DashboardURL is required")
	}

	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit.BufferSize must not be negative")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg

	if cfg.Orchestrator.RetryBackoff != nil {
		out.Orchestrator.RetryBackoff = make([]time.Duration, len(cfg.Orchestrator.RetryBackoff))
		copy(out.Orchestrator.RetryBackoff, cfg.Orchestrator.RetryBackoff)
	}
	if cfg.Locators.ErrorMessages != nil {
		out.Locators.ErrorMessages = make([]probe.Locator, len(cfg.Locators.ErrorMessages))
		copy(out.Locators.ErrorMessages, cfg.Locators.ErrorMessages)
	}

	return out
}
