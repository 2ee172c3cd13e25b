package goLogin

import (
	"context"
	"time"
)

// CodeAt computes the one-time code for an explicit secret at the time
// step containing at. It is deterministic: same secret and step, same
// zero-padded code.
//
// CodeAt may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) CodeAt(secret Secret, at time.Time) (string, error) {
	if e == nil || e.totp == nil {
		return "", ErrEngineNotReady
	}
	return e.totp.CurrentCode(secret, at)
}

// CandidateCodesAt computes the current step's code plus the adjacent
// steps' codes when skew tolerance is configured. The current step's code
// is always first.
//
// CandidateCodesAt may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) CandidateCodesAt(secret Secret, at time.Time) ([]string, error) {
	if e == nil || e.totp == nil {
		return nil, ErrEngineNotReady
	}
	return e.totp.CandidateCodes(secret, at)
}

// CurrentCode loads the provisioned secret and computes its code for the
// current time step.
//
// CurrentCode may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) CurrentCode(ctx context.Context) (string, error) {
	if e == nil || e.totp == nil {
		return "", ErrEngineNotReady
	}

	secret, err := e.Secret(ctx)
	if err != nil {
		return "", err
	}

	code, err := e.totp.CurrentCode(secret, e.now())
	if err != nil {
		return "", err
	}

	e.metricInc(MetricCodeGenerated)
	e.emitAudit(ctx, auditEventCodeGenerated, true, "", SignalNone, nil, nil)

	return code, nil
}

// Step reports the TOTP time-step counter for at.
func (e *Engine) Step(at time.Time) int64 {
	if e == nil || e.totp == nil {
		return 0
	}
	return e.totp.Step(at)
}
