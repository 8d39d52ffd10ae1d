package tenauth

import "errors"

var (
	// ErrEngineNotReady is returned when the engine is used before Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidCredentials is returned for empty or rejected credential pairs.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated is returned when an operation requires an established session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionCorrupted marks partial stored state (token without user or vice versa).
	// It is inferred internally and never shown to the user as its own message.
	ErrSessionCorrupted = errors.New("stored session corrupted")

	// ErrNoCompanyAssociated is the terminal no-tenant condition: the account must
	// create a company before login can proceed. Never folded into a generic failure.
	ErrNoCompanyAssociated = errors.New("no company associated with account")
	// ErrSelectionRequired is returned when completion is attempted while the flow
	// still waits for an explicit tenant choice.
	ErrSelectionRequired = errors.New("tenant selection required")
	// ErrUnknownTenant is returned when a selected tenant id is not among the
	// tenants the identity is entitled to.
	ErrUnknownTenant = errors.New("tenant not in selection set")
	// ErrFlowResolved is returned when a login flow is driven after it already
	// completed or terminally failed.
	ErrFlowResolved = errors.New("login flow already resolved")

	// ErrBiometricNotConfigured is returned when biometric operations are invoked
	// on an engine built without a biometric provider.
	ErrBiometricNotConfigured = errors.New("biometric login not configured")
	// ErrBiometricUnavailable is returned when the device has no biometric hardware.
	ErrBiometricUnavailable = errors.New("biometric hardware unavailable")
	// ErrBiometricNotEnrolled directs the user to device settings: hardware exists
	// but no fingerprint/face is registered. A terminal, user-actionable state.
	ErrBiometricNotEnrolled = errors.New("no biometrics enrolled on device")
	// ErrBiometricCancelled is returned when the user dismisses the OS prompt.
	ErrBiometricCancelled = errors.New("biometric authentication cancelled")
	// ErrBiometricAuthFailed is returned when the biometric check rejects the user.
	ErrBiometricAuthFailed = errors.New("biometric authentication failed")
)
