package tenauth

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hexlane/tenauth/backend"
)

// LoginFlow tracks one login attempt from the credential probe through
// tenant resolution. A flow holds the submitted credentials until it
// resolves or is abandoned; resolution zeroes them. Safe for concurrent
// use, though a flow is normally driven by a single goroutine.
type LoginFlow struct {
	engine *Engine
	id     string

	mu       sync.Mutex
	state    FlowState
	email    string
	password string
	user     *AuthenticatedUser
	tenants  []Tenant
	session  *Session

	offerSave bool
	started   time.Time
}

// ID returns the flow identifier carried in audit events.
func (f *LoginFlow) ID() string {
	return f.id
}

// State returns the flow's current state.
func (f *LoginFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// User returns a copy of the user identified by the credential probe,
// or nil before the probe succeeds.
func (f *LoginFlow) User() *AuthenticatedUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return nil
	}
	u := *f.user
	return &u
}

// Tenants returns a copy of the companies available for selection. Only
// populated while the flow is in FlowAwaitingSelection.
func (f *LoginFlow) Tenants() []Tenant {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tenants) == 0 {
		return nil
	}
	out := make([]Tenant, len(f.tenants))
	copy(out, f.tenants)
	return out
}

// BiometricSaveOffered reports whether the caller should offer to save
// these credentials for biometric login once the flow resolves. True
// only when a biometric vault is configured, the hardware is usable,
// and no credential is already stored.
func (f *LoginFlow) BiometricSaveOffered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offerSave
}

// Session returns the established session once the flow has resolved.
func (f *LoginFlow) Session() *Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil
	}
	s := *f.session
	return &s
}

// StartLogin probes the credentials and advances as far as the backend's
// answer allows. The returned flow is:
//
//   - FlowResolved when the user belongs to exactly one company, or to
//     none while the backend still accepts a tenantless session. The
//     session is established before StartLogin returns.
//   - FlowAwaitingSelection when the user must pick among several
//     companies. Call SelectTenant to finish.
//   - FlowNoCompany, together with ErrNoCompanyAssociated, when the
//     account has no tenant and the backend demands one. Terminal.
//
// Probe and completion failures return a nil flow.
func (e *Engine) StartLogin(ctx context.Context, email, password string) (*LoginFlow, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}

	flow := &LoginFlow{
		engine:   e,
		id:       uuid.NewString(),
		state:    FlowAuthenticating,
		email:    email,
		password: password,
		started:  time.Now(),
	}

	result, err := e.probeCredentials(ctx, flow, email, password)
	if err != nil {
		return nil, err
	}

	flow.mu.Lock()
	flow.user = result.User
	flow.offerSave = e.offerBiometricSave(ctx)
	flow.mu.Unlock()

	if result.NeedsCompanyCreation {
		flow.mu.Lock()
		flow.state = FlowNoCompany
		flow.email = ""
		flow.password = ""
		flow.mu.Unlock()

		e.metricInc(MetricNoCompany)
		e.emitAudit(ctx, auditEventTenantNone, false, userID(result.User), "", flow.id, ErrNoCompanyAssociated, nil)
		return flow, ErrNoCompanyAssociated
	}

	if result.RequiresCompanySelection && len(result.Companies) > 1 {
		flow.mu.Lock()
		flow.state = FlowAwaitingSelection
		flow.tenants = append([]Tenant(nil), result.Companies...)
		flow.mu.Unlock()

		e.metricInc(MetricTenantSelectionRequired)
		e.emitAudit(ctx, auditEventTenantRequired, true, userID(result.User), "", flow.id, nil, func() map[string]string {
			return map[string]string{"tenant_count": strconv.Itoa(len(result.Companies))}
		})
		return flow, nil
	}

	// One company, or none while the backend still accepts a tenantless
	// session, resolves without user input.
	tenantID := ""
	if len(result.Companies) == 1 {
		tenantID = result.Companies[0].ID
		e.metricInc(MetricTenantAutoSelected)
		e.emitAudit(ctx, auditEventTenantAutoSelected, true, userID(result.User), tenantID, flow.id, nil, nil)
	}

	if err := flow.complete(ctx, tenantID); err != nil {
		return nil, err
	}
	return flow, nil
}

// Login is the one-shot convenience for accounts with at most one
// company. Accounts that require tenant selection get
// ErrSelectionRequired; use StartLogin for those.
func (e *Engine) Login(ctx context.Context, email, password string) (*Session, error) {
	flow, err := e.StartLogin(ctx, email, password)
	if err != nil {
		return nil, err
	}
	switch flow.State() {
	case FlowResolved:
		return flow.Session(), nil
	case FlowAwaitingSelection:
		return nil, ErrSelectionRequired
	default:
		return nil, ErrNoCompanyAssociated
	}
}

// SelectTenant resolves a flow paused in FlowAwaitingSelection with the
// chosen company. The id must be one of Tenants(); anything else is
// ErrUnknownTenant and the flow stays open. A resolved or terminal flow
// answers ErrFlowResolved.
func (f *LoginFlow) SelectTenant(ctx context.Context, tenantID string) (*Session, error) {
	if f == nil || f.engine == nil {
		return nil, ErrEngineNotReady
	}

	f.mu.Lock()
	switch f.state {
	case FlowAwaitingSelection:
	case FlowResolved, FlowNoCompany:
		f.mu.Unlock()
		return nil, ErrFlowResolved
	default:
		f.mu.Unlock()
		return nil, ErrSelectionRequired
	}

	known := false
	for _, t := range f.tenants {
		if t.ID == tenantID {
			known = true
			break
		}
	}
	uid := userID(f.user)
	f.mu.Unlock()

	if !known {
		return nil, ErrUnknownTenant
	}

	f.engine.metricInc(MetricTenantSelected)
	f.engine.emitAudit(ctx, auditEventTenantSelected, true, uid, tenantID, f.id, nil, nil)

	if err := f.complete(ctx, tenantID); err != nil {
		return nil, err
	}
	return f.Session(), nil
}

// Authenticate runs the credential probe on its own: it verifies the
// pair and reports tenant membership without establishing a session or
// touching any stored state. StartLogin uses the same call internally.
func (e *Engine) Authenticate(ctx context.Context, email, password string) (*AuthenticateResult, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if err := e.paceWait(ctx); err != nil {
		return nil, err
	}

	result, err := e.backend.Authenticate(ctx, email, password)
	e.paceObserve(err)
	return result, err
}

// probeCredentials runs the first backend round trip for a flow and
// translates the outcome into flow metrics and audit events.
func (e *Engine) probeCredentials(ctx context.Context, flow *LoginFlow, email, password string) (*AuthenticateResult, error) {
	result, err := e.Authenticate(ctx, email, password)
	if err != nil {
		e.metricInc(MetricAuthProbeFailure)
		if Classify(err).Category == CategoryRateLimited {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", flow.id, err, nil)
		} else {
			e.emitAudit(ctx, auditEventLoginFailure, false, "", "", flow.id, err, nil)
		}
		return nil, err
	}
	if !result.Success {
		e.metricInc(MetricAuthProbeFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", flow.id, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	e.metricInc(MetricAuthProbeSuccess)
	e.emitAudit(ctx, auditEventAuthProbe, true, userID(result.User), "", flow.id, nil, nil)

	return result, nil
}

// complete runs the second round trip: it exchanges the held credentials
// and the chosen tenant for a session, persists it, and zeroes the
// credentials.
func (f *LoginFlow) complete(ctx context.Context, tenantID string) error {
	e := f.engine

	f.mu.Lock()
	req := backend.LoginRequest{
		Email:      f.email,
		Password:   f.password,
		PortalType: e.config.Backend.PortalType,
		CompanyID:  tenantID,
		UserID:     userID(f.user),
	}
	f.mu.Unlock()

	if err := e.paceWait(ctx); err != nil {
		return err
	}

	result, err := e.backend.Login(ctx, req)
	e.paceObserve(err)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		if Classify(err).Category == CategoryRateLimited {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, req.UserID, tenantID, f.id, err, nil)
		} else {
			e.emitAudit(ctx, auditEventLoginFailure, false, req.UserID, tenantID, f.id, err, nil)
		}
		return err
	}

	user := result.User
	if user == nil {
		f.mu.Lock()
		user = f.user
		f.mu.Unlock()
	}
	if user == nil {
		e.metricInc(MetricLoginFailure)
		return ErrInvalidCredentials
	}

	token := SessionToken{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		JTI:          result.JTI,
		ExpiresAt:    tokenExpiry(result.AccessToken),
	}

	if err := e.setSession(ctx, token, *user); err != nil {
		log.Print("tenauth: login session persist failed: ", err)
	}

	session := &Session{Token: token, User: *user}

	f.mu.Lock()
	f.state = FlowResolved
	f.email = ""
	f.password = ""
	f.session = session
	f.tenants = nil
	started := f.started
	f.mu.Unlock()

	e.metricInc(MetricLoginSuccess)
	if !started.IsZero() {
		e.metrics.Observe(MetricLoginLatency, time.Since(started))
	}
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, user.CompanyID, f.id, nil, nil)

	return nil
}

func userID(u *AuthenticatedUser) string {
	if u == nil {
		return ""
	}
	return u.ID
}
