package goLogin

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/MrEthical07/goLogin/internal/secrets"
)

// ProvisionSecret extracts the TOTP secret from an enrollment payload and
// persists it through the configured secret store. The operation is all or
// nothing: a malformed payload or an invalid secret leaves the store
// untouched.
//
// ProvisionSecret may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) ProvisionSecret(ctx context.Context, payload string) (Secret, error) {
	if e == nil || e.secretStore == nil {
		return "", ErrEngineNotReady
	}

	secret, err := ExtractSecret(payload)
	if err != nil {
		e.metricInc(MetricProvisionFailure)
		e.emitAudit(ctx, auditEventProvisionFailure, false, "", SignalNone, err, nil)
		return "", err
	}

	if err := e.secretStore.SetSecret(ctx, string(secret)); err != nil {
		mapped := mapStoreError(err)
		e.metricInc(MetricProvisionFailure)
		e.emitAudit(ctx, auditEventProvisionFailure, false, "", SignalNone, mapped, nil)
		return "", mapped
	}

	e.metricInc(MetricProvisionSuccess)
	e.emitAudit(ctx, auditEventProvisionSuccess, true, "", SignalNone, nil, func() map[string]string {
		return map[string]string{
			"secret": secret.Masked(),
		}
	})
	e.logger.Info("totp secret provisioned",
		zap.String("secret", secret.Masked()))

	return secret, nil
}

// ProvisionFromArtifact decodes a scanned enrollment image and provisions
// the secret it carries. An image with no detectable code fails with
// ErrNoArtifactDetected; a detectable code with a bad payload fails with
// the provisioning errors.
//
// ProvisionFromArtifact may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) ProvisionFromArtifact(ctx context.Context, r io.Reader) (Secret, error) {
	if e == nil || e.secretStore == nil {
		return "", ErrEngineNotReady
	}
	if e.decoder == nil {
		return "", fmt.Errorf("%w: no artifact decoder configured", ErrEngineNotReady)
	}

	payload, err := e.decoder.Decode(ctx, r)
	if err != nil {
		e.metricInc(MetricProvisionFailure)
		e.emitAudit(ctx, auditEventProvisionFailure, false, "", SignalNone, err, nil)
		return "", err
	}

	return e.ProvisionSecret(ctx, payload)
}

// Secret loads and validates the provisioned TOTP secret.
//
// Secret may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) Secret(ctx context.Context) (Secret, error) {
	if e == nil || e.secretStore == nil {
		return "", ErrEngineNotReady
	}

	value, err := e.secretStore.GetSecret(ctx)
	if err != nil {
		return "", mapStoreError(err)
	}
	return ParseSecret(value)
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, secrets.ErrNotConfigured):
		return ErrSecretNotConfigured
	case errors.Is(err, secrets.ErrBackend):
		return fmt.Errorf("%w: %v", ErrSecretStoreUnavailable, err)
	default:
		return err
	}
}
