package goLogin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goLogin/internal/flows"
	"github.com/MrEthical07/goLogin/internal/secrets"
	"github.com/MrEthical07/goLogin/probe"
)

// AttemptLogin drives the full login sequence against an exclusively owned
// probe: credentials, a fresh one-time code, then bounded completion
// detection, retrying up to MaxAttempts with the configured backoff. A
// persisted session short-circuits with AlreadyAuthenticated set.
//
// AttemptLogin may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) AttemptLogin(ctx context.Context, p probe.Probe, creds Credentials) (*LoginResult, error) {
	if e == nil || e.totp == nil {
		return nil, ErrEngineNotReady
	}

	secret, err := e.Secret(ctx)
	if err != nil {
		return nil, err
	}

	outcome, err := flows.RunLogin(ctx, p, flows.LoginCredentials{
		Email:    creds.Email,
		Password: creds.Password,
	}, e.loginDeps(secret))
	if err != nil {
		return nil, err
	}

	result := &LoginResult{
		AttemptID:            outcome.AttemptID,
		Attempts:             outcome.Attempts,
		Outcome:              outcomeFromFlow(outcome.Result),
		AlreadyAuthenticated: outcome.AlreadyAuthenticated,
	}

	if outcome.BearerToken != "" {
		token, terr := TokenFromJWT(outcome.BearerToken, outcome.TokenCapturedAt)
		if terr != nil {
			e.warn("goLogin: captured bearer token unreadable", "error", terr)
		} else {
			result.Token = token
			e.persistToken(ctx, token)
		}
	}

	return result, nil
}

// CachedToken returns the persisted session token when one exists and is
// still valid under the configured expiry slack. A missing or expired
// token is (nil, nil), not an error.
//
// CachedToken may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) CachedToken(ctx context.Context) (*SessionToken, error) {
	if e == nil || e.tokenStore == nil {
		return nil, nil
	}

	record, err := e.tokenStore.GetToken(ctx)
	if err != nil {
		if errors.Is(err, secrets.ErrNotConfigured) {
			return nil, nil
		}
		return nil, mapStoreError(err)
	}

	token := &SessionToken{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		ExpiresAt:    record.ExpiresAt,
		CapturedAt:   record.CapturedAt,
	}
	if !token.Valid(e.now(), e.config.Session.ExpirySlack) {
		return nil, nil
	}
	return token, nil
}

func (e *Engine) persistToken(ctx context.Context, token *SessionToken) {
	if e.tokenStore == nil || token == nil {
		return
	}
	err := e.tokenStore.SetToken(ctx, &secrets.TokenRecord{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
		CapturedAt:   token.CapturedAt,
	})
	if err != nil {
		e.warn("goLogin: session token persistence failed", "error", err)
	}
}

func (e *Engine) loginDeps(secret Secret) flows.LoginDeps {
	return flows.LoginDeps{
		MaxAttempts:        e.config.Orchestrator.MaxAttempts,
		StabilizationDelay: e.config.Orchestrator.StabilizationDelay,
		RetryBackoff:       e.config.Orchestrator.RetryBackoff,
		CodeFieldTimeout:   e.config.Orchestrator.CodeFieldTimeout,
		PollInterval:       e.config.Detector.PollInterval,
		CaptureToken:       e.config.Orchestrator.CaptureToken,
		SkewSteps:          e.config.TOTP.SkewSteps,

		DashboardURL:  e.config.Locators.DashboardURL,
		EmailField:    e.config.Locators.EmailField,
		PasswordField: e.config.Locators.PasswordField,
		CodeField:     e.config.Locators.CodeField,
		SubmitButton:  e.config.Locators.SubmitButton,
		LoginForm:     e.config.Locators.LoginForm,

		Now:          e.now,
		NewAttemptID: uuid.NewString,
		CurrentCode: func(at time.Time) (string, error) {
			return e.totp.CurrentCode(secret, at)
		},
		CodeStep: e.totp.Step,
		Detect: func(ctx context.Context, p probe.Probe) flows.DetectResult {
			result := flows.RunDetect(ctx, p, e.detectDeps())
			if e.metrics != nil {
				e.metrics.Observe(MetricDetectLatency, result.Elapsed)
			}
			return result
		},
		CaptureBearer: captureBearer,

		MetricInc: e.flowMetricInc,
		EmitAudit: func(ctx context.Context, event string, success bool, attemptID string, sig flows.DetectSignal, err error, metadata func() map[string]string) {
			e.emitAudit(ctx, event, success, attemptID, signalFromFlow(sig), err, metadata)
		},
		Warn: e.warn,

		Metrics: flows.LoginMetrics{
			AttemptStarted:       int(MetricAttemptStarted),
			AttemptSuccess:       int(MetricAttemptSuccess),
			AttemptFailure:       int(MetricAttemptFailure),
			AttemptTimedOut:      int(MetricAttemptTimedOut),
			AttemptsExhausted:    int(MetricAttemptsExhausted),
			AlreadyAuthenticated: int(MetricAlreadyAuthenticated),
			CodeGenerated:        int(MetricCodeGenerated),
			TokenCaptured:        int(MetricTokenCaptured),
		},
		Events: flows.LoginEvents{
			AttemptStarted:       auditEventAttemptStarted,
			AttemptSuccess:       auditEventAttemptSuccess,
			AttemptFailure:       auditEventAttemptFailure,
			AttemptTimedOut:      auditEventAttemptTimedOut,
			AttemptsExhausted:    auditEventAttemptsExhausted,
			AlreadyAuthenticated: auditEventAlreadyAuthenticated,
			CodeGenerated:        auditEventCodeGenerated,
			TokenCaptured:        auditEventTokenCaptured,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			ExhaustedRetries:   ErrExhaustedRetries,
			CodeNotRefreshable: ErrCodeNotRefreshable,
		},
	}
}

func captureBearer(ctx context.Context, p probe.Probe) (string, error) {
	capturer, ok := p.(TokenCapturer)
	if !ok {
		return "", nil
	}
	return capturer.BearerToken(ctx)
}
