package tenauth

import (
	"context"
	"io"
	"time"

	"github.com/hexlane/tenauth/backend"
	internalaudit "github.com/hexlane/tenauth/internal/audit"
	"github.com/hexlane/tenauth/vault"
)

// AuthenticatedUser is the backend's user record. CompanyID denotes the
// currently active tenant and is mutated only through login completion or
// [Engine.SwitchCompany].
type AuthenticatedUser = backend.User

// Tenant is a company the user may act on behalf of.
type Tenant = backend.Company

// AuthenticateResult is the identity probe outcome: who the credentials
// belong to and which tenants that identity may act as. Purely
// informational; no session state is touched producing it.
type AuthenticateResult = backend.AuthenticateResult

// BiometricAvailability reports the device's biometric capability. Returned
// by [Engine.BiometricAvailability] rather than written into any shared
// scope.
type BiometricAvailability = vault.Availability

// SessionToken is the issued token material. Opaque to this package beyond
// being attached to subsequent calls; JTI and ExpiresAt are filled from
// unverified claim inspection when the backend omits them.
type SessionToken struct {
	AccessToken  string
	RefreshToken string
	JTI          string
	ExpiresAt    time.Time
}

// Session is a point-in-time snapshot of the in-memory session state.
// Both fields are copies; mutating them does not touch engine state.
type Session struct {
	Token SessionToken
	User  AuthenticatedUser
}

// SwitchResult is returned by [Engine.SwitchCompany]. Degraded reports that
// the backend call failed and the tenant was rescoped by local mutation
// only; the embedder should reconcile against the server on the next sync.
type SwitchResult struct {
	User     AuthenticatedUser
	Degraded bool
}

// FlowState is the tenant-selection state machine position of a [LoginFlow].
type FlowState uint8

const (
	// FlowIdle is a flow that has not begun authenticating.
	FlowIdle FlowState = iota
	// FlowAuthenticating covers the identity probe and completion calls.
	FlowAuthenticating
	// FlowAwaitingSelection blocks until an explicit tenant id is chosen.
	FlowAwaitingSelection
	// FlowNoCompany is the terminal no-tenant state; login cannot proceed.
	FlowNoCompany
	// FlowResolved is a completed flow holding an established session.
	FlowResolved
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowAuthenticating:
		return "authenticating"
	case FlowAwaitingSelection:
		return "awaiting_selection"
	case FlowNoCompany:
		return "no_company"
	case FlowResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Backend is the remote authentication service consumed by the engine.
// [backend.Client] is the production implementation; tests supply mocks.
type Backend interface {
	Authenticate(ctx context.Context, email, password string) (*backend.AuthenticateResult, error)
	Login(ctx context.Context, req backend.LoginRequest) (*backend.LoginResult, error)
	SwitchCompany(ctx context.Context, accessToken, companyID string) (*backend.User, error)
	UpdateProfile(ctx context.Context, accessToken string, fields map[string]any) (*backend.User, error)
	UploadProfileImage(ctx context.Context, accessToken, filename string, content io.Reader) (*backend.User, error)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
