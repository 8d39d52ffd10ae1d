package vault

import (
	"context"
	"errors"
)

var (
	// ErrNoHardware is returned when the device has no biometric sensor.
	ErrNoHardware = errors.New("no biometric hardware")
	// ErrNotEnrolled is returned when hardware exists but the device has no
	// registered fingerprint/face records. Distinct from ErrNoHardware so
	// callers can direct the user to device settings.
	ErrNotEnrolled = errors.New("no biometric records enrolled")
	// ErrPromptCancelled is returned when the user dismisses the OS prompt.
	ErrPromptCancelled = errors.New("biometric prompt cancelled")
	// ErrPromptFailed is returned when the biometric check rejects the user.
	ErrPromptFailed = errors.New("biometric authentication failed")
)

// Availability is the point-in-time biometric capability of the device.
// Biometric login is offered only when HasHardware and Enrolled both hold.
type Availability struct {
	HasHardware bool
	Enrolled    bool
	// Types names the supported biometric factors ("fingerprint", "face").
	Types []string
}

// Usable reports whether the device can run a biometric check right now.
func (a Availability) Usable() bool {
	return a.HasHardware && a.Enrolled
}

// Provider abstracts the platform biometric facility. Implementations wrap
// the OS keystore/biometric API of the target platform; tests use fakes.
type Provider interface {
	// Availability probes hardware presence and enrollment state.
	Availability(ctx context.Context) (Availability, error)

	// Authenticate triggers the OS-level biometric prompt and blocks until
	// the user responds. It returns nil on success, ErrPromptCancelled when
	// dismissed, and ErrPromptFailed when the check rejects the user. No
	// timeout is imposed here; the OS owns the prompt lifecycle.
	Authenticate(ctx context.Context, reason string) error
}
