package tenauth

import (
	"context"
	"errors"
	"time"

	"github.com/hexlane/tenauth/session"
)

const (
	auditEventAuthProbe          = "auth_probe"
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventTenantAutoSelected = "tenant_auto_selected"
	auditEventTenantRequired     = "tenant_selection_required"
	auditEventTenantSelected     = "tenant_selected"
	auditEventTenantNone         = "tenant_none"
	auditEventSessionRestored    = "session_restored"
	auditEventSessionCorrupted   = "session_corrupted"
	auditEventLogout             = "logout"
	auditEventSwitchSuccess      = "switch_success"
	auditEventSwitchDegraded     = "switch_degraded"
	auditEventSwitchFailure      = "switch_failure"
	auditEventProfileUpdated     = "profile_updated"
	auditEventProfileImageSet    = "profile_image_set"
	auditEventBiometricEnabled   = "biometric_enabled"
	auditEventBiometricDisabled  = "biometric_disabled"
	auditEventBiometricLogin     = "biometric_login"
	auditEventBiometricFailure   = "biometric_failure"
)

// AuditErrorCode is the closed vocabulary of error identifiers carried in
// audit events. Raw error strings never reach the sink.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrServerError        AuditErrorCode = "server_error"
	auditErrNetworkError       AuditErrorCode = "network_error"
	auditErrValidation         AuditErrorCode = "validation_error"
	auditErrNoCompany          AuditErrorCode = "no_company"
	auditErrUnknownTenant      AuditErrorCode = "unknown_tenant"
	auditErrSessionCorrupted   AuditErrorCode = "session_corrupted"
	auditErrStoreUnavailable   AuditErrorCode = "store_unavailable"
	auditErrBiometric          AuditErrorCode = "biometric_error"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	tenantID string,
	flowID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}
	if flowID == "" {
		flowID = flowIDFromContext(ctx)
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		TenantID:  tenantID,
		FlowID:    flowID,
		DeviceID:  deviceIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
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
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrNoCompanyAssociated):
		return auditErrNoCompany
	case errors.Is(err, ErrUnknownTenant),
		errors.Is(err, ErrSelectionRequired),
		errors.Is(err, ErrFlowResolved):
		return auditErrUnknownTenant
	case errors.Is(err, ErrSessionCorrupted):
		return auditErrSessionCorrupted
	case errors.Is(err, session.ErrStoreUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, ErrBiometricNotConfigured),
		errors.Is(err, ErrBiometricUnavailable),
		errors.Is(err, ErrBiometricNotEnrolled),
		errors.Is(err, ErrBiometricCancelled),
		errors.Is(err, ErrBiometricAuthFailed):
		return auditErrBiometric
	}

	switch Classify(err).Category {
	case CategoryRateLimited:
		return auditErrRateLimited
	case CategoryInvalidCredentials:
		return auditErrInvalidCredentials
	case CategoryForbidden:
		return auditErrForbidden
	case CategoryServerError:
		return auditErrServerError
	case CategoryNetworkError:
		return auditErrNetworkError
	case CategoryValidation:
		return auditErrValidation
	default:
		return auditErrInternal
	}
}
