package tenauth

import (
	"context"
	"errors"

	"github.com/hexlane/tenauth/vault"
)

// BiometricAvailability reports what the device's biometric hardware can
// do right now. Engines built without a vault report nothing usable.
func (e *Engine) BiometricAvailability(ctx context.Context) (BiometricAvailability, error) {
	if e == nil || e.vault == nil {
		return BiometricAvailability{}, ErrBiometricNotConfigured
	}
	return e.vault.Availability(ctx)
}

// HasBiometricCredential reports whether a sealed credential is stored
// for biometric login.
func (e *Engine) HasBiometricCredential(ctx context.Context) bool {
	if e == nil || e.vault == nil {
		return false
	}
	return e.vault.HasCredential(ctx)
}

// EnableBiometrics seals the given credentials into the vault so later
// logins can run behind a biometric prompt. The credentials should be
// the ones the user just signed in with.
func (e *Engine) EnableBiometrics(ctx context.Context, email, password string) error {
	if e == nil || e.vault == nil {
		return ErrBiometricNotConfigured
	}

	if err := e.vault.Save(ctx, email, password); err != nil {
		e.emitAudit(ctx, auditEventBiometricEnabled, false, "", "", "", err, nil)
		return err
	}

	e.metricInc(MetricBiometricEnabled)
	e.emitAudit(ctx, auditEventBiometricEnabled, true, "", "", "", nil, nil)
	return nil
}

// DisableBiometrics purges the sealed credential. Disabling always
// removes the stored secret; there is no disabled-but-retained state.
func (e *Engine) DisableBiometrics(ctx context.Context) error {
	if e == nil || e.vault == nil {
		return ErrBiometricNotConfigured
	}

	if err := e.vault.Purge(ctx); err != nil {
		e.emitAudit(ctx, auditEventBiometricDisabled, false, "", "", "", err, nil)
		return err
	}

	e.metricInc(MetricBiometricDisabled)
	e.emitAudit(ctx, auditEventBiometricDisabled, true, "", "", "", nil, nil)
	return nil
}

// LoginWithBiometrics retrieves the sealed credential behind a biometric
// prompt and runs it through the same flow as a typed login, tenant
// resolution included. The caller gets the flow in whatever state the
// probe left it.
func (e *Engine) LoginWithBiometrics(ctx context.Context) (*LoginFlow, error) {
	if e == nil || e.vault == nil {
		return nil, ErrBiometricNotConfigured
	}

	cred, err := e.vault.AuthenticateAndRetrieve(ctx, e.config.Biometric.PromptReason)
	if err != nil {
		mapped := mapBiometricError(err)
		e.metricInc(MetricBiometricLoginFailure)
		e.emitAudit(ctx, auditEventBiometricFailure, false, "", "", "", mapped, nil)
		return nil, mapped
	}

	flow, err := e.StartLogin(ctx, cred.Email, cred.Password)
	if err != nil {
		e.metricInc(MetricBiometricLoginFailure)
		return flow, err
	}

	e.metricInc(MetricBiometricLoginSuccess)
	e.emitAudit(ctx, auditEventBiometricLogin, true, "", "", flowID(flow), nil, nil)
	return flow, nil
}

// offerBiometricSave decides whether a freshly authenticated user should
// be offered credential saving: vault present, hardware usable, nothing
// stored yet.
func (e *Engine) offerBiometricSave(ctx context.Context) bool {
	if e == nil || e.vault == nil {
		return false
	}
	avail, err := e.vault.Availability(ctx)
	if err != nil || !avail.Usable() {
		return false
	}
	return !e.vault.HasCredential(ctx)
}

func mapBiometricError(err error) error {
	switch {
	case errors.Is(err, vault.ErrNoHardware):
		return ErrBiometricUnavailable
	case errors.Is(err, vault.ErrNotEnrolled):
		return ErrBiometricNotEnrolled
	case errors.Is(err, vault.ErrPromptCancelled):
		return ErrBiometricCancelled
	case errors.Is(err, vault.ErrPromptFailed):
		return ErrBiometricAuthFailed
	case errors.Is(err, vault.ErrNoCredential):
		return ErrBiometricNotConfigured
	case errors.Is(err, vault.ErrSealCorrupt):
		return ErrBiometricAuthFailed
	default:
		return err
	}
}

func flowID(f *LoginFlow) string {
	if f == nil {
		return ""
	}
	return f.id
}
