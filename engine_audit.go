package goLogin

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventAttemptStarted       = "attempt_started"
	auditEventAttemptSuccess       = "attempt_success"
	auditEventAttemptFailure       = "attempt_failure"
	auditEventAttemptTimedOut      = "attempt_timed_out"
	auditEventAttemptsExhausted    = "attempts_exhausted"
	auditEventAlreadyAuthenticated = "already_authenticated"
	auditEventSignalObserved       = "signal_observed"
	auditEventCodeGenerated        = "code_generated"
	auditEventProvisionSuccess     = "provision_success"
	auditEventProvisionFailure     = "provision_failure"
	auditEventTokenCaptured        = "token_captured"
)

// AuditErrorCode defines a public type used by goLogin APIs.
type AuditErrorCode string

const (
	auditErrMalformedPayload    AuditErrorCode = "malformed_payload"
	auditErrInvalidSecret       AuditErrorCode = "invalid_secret_format"
	auditErrNoArtifact          AuditErrorCode = "no_artifact_detected"
	auditErrElementNotFound     AuditErrorCode = "element_not_found"
	auditErrSecretNotConfigured AuditErrorCode = "secret_not_configured"
	auditErrStoreUnavailable    AuditErrorCode = "secret_store_unavailable"
	auditErrExhaustedRetries    AuditErrorCode = "attempts_exhausted"
	auditErrCodeNotRefreshable  AuditErrorCode = "code_not_refreshable"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	attemptID string,
	signal Signal,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AttemptID: attemptID,
		Account:   accountFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if signal != SignalNone {
		event.Signal = signal.String()
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMalformedPayload):
		return auditErrMalformedPayload
	case errors.Is(err, ErrInvalidSecretFormat):
		return auditErrInvalidSecret
	case errors.Is(err, ErrNoArtifactDetected):
		return auditErrNoArtifact
	case errors.Is(err, ErrElementNotFound):
		return auditErrElementNotFound
	case errors.Is(err, ErrSecretNotConfigured):
		return auditErrSecretNotConfigured
	case errors.Is(err, ErrSecretStoreUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, ErrExhaustedRetries):
		return auditErrExhaustedRetries
	case errors.Is(err, ErrCodeNotRefreshable):
		return auditErrCodeNotRefreshable
	default:
		return auditErrInternal
	}
}
