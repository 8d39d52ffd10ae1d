package tenauth

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/hexlane/tenauth/internal/pacing"
	"github.com/hexlane/tenauth/session"
	"github.com/hexlane/tenauth/vault"
)

// Engine owns the client-side session: it drives authentication flows
// against the backend, persists the resulting session, and answers
// queries about the signed-in user. All exported methods are safe for
// concurrent use.
type Engine struct {
	config  Config
	store   session.Store
	backend Backend
	vault   *vault.Vault
	pacer   *pacing.Limiter
	audit   *auditDispatcher
	metrics *Metrics

	ownsStore bool

	mu    sync.Mutex
	token *SessionToken
	user  *AuthenticatedUser
}

// Close flushes the audit dispatcher and releases stores the engine
// created itself. Injected stores are left open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.ownsStore && e.store != nil {
		if err := e.store.Close(); err != nil {
			log.Print("tenauth: session store close failed: ", err)
		}
	}
}

// AuditDropped returns the number of audit events discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of all engine counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// IsAuthenticated reports whether the engine currently holds a session
// token and a user.
func (e *Engine) IsAuthenticated() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.token != nil && e.user != nil
}

// CurrentUser returns a copy of the signed-in user, or nil when no
// session is held.
func (e *Engine) CurrentUser() *AuthenticatedUser {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.user == nil {
		return nil
	}
	u := *e.user
	return &u
}

// Session returns a copy of the current session, or nil when no session
// is held.
func (e *Engine) Session() *Session {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token == nil || e.user == nil {
		return nil
	}
	return &Session{
		Token: *e.token,
		User:  *e.user,
	}
}

// Restore recovers a persisted session from the store, typically at
// process start. A store with no session yields (false, nil). A store
// holding a token without a user, or the reverse, is cleared and
// reported as ErrSessionCorrupted; the engine ends unauthenticated
// either way.
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	if e == nil || e.store == nil {
		return false, ErrEngineNotReady
	}

	accessToken, rawUser, err := e.store.LoadSession(ctx)
	if err != nil {
		return false, err
	}

	if accessToken == "" && len(rawUser) == 0 {
		return false, nil
	}

	if accessToken == "" || len(rawUser) == 0 {
		return false, e.clearCorrupted(ctx)
	}

	var user AuthenticatedUser
	if err := json.Unmarshal(rawUser, &user); err != nil {
		return false, e.clearCorrupted(ctx)
	}

	token := SessionToken{
		AccessToken: accessToken,
		ExpiresAt:   tokenExpiry(accessToken),
	}

	e.mu.Lock()
	e.token = &token
	e.user = &user
	e.mu.Unlock()

	e.metricInc(MetricSessionRestored)
	e.emitAudit(ctx, auditEventSessionRestored, true, user.ID, user.CompanyID, "", nil, nil)

	return true, nil
}

func (e *Engine) clearCorrupted(ctx context.Context) error {
	if err := e.store.Clear(ctx); err != nil {
		log.Print("tenauth: clearing corrupted session failed: ", err)
	}

	e.mu.Lock()
	e.token = nil
	e.user = nil
	e.mu.Unlock()

	e.metricInc(MetricSessionCorrupted)
	e.emitAudit(ctx, auditEventSessionCorrupted, false, "", "", "", ErrSessionCorrupted, nil)

	return ErrSessionCorrupted
}

// Logout drops the in-memory session and clears the persisted one.
// Stored biometric credentials survive a logout. The in-memory session
// is gone even when the store clear fails.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	var userID, tenantID string
	if e.user != nil {
		userID = e.user.ID
		tenantID = e.user.CompanyID
	}
	e.token = nil
	e.user = nil
	e.mu.Unlock()

	err := e.store.Clear(ctx)

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, err == nil, userID, tenantID, "", err, nil)

	return err
}

// setSession installs the session in memory and persists it. The
// in-memory copy is installed even when persistence fails so the caller
// stays signed in for the process lifetime.
func (e *Engine) setSession(ctx context.Context, token SessionToken, user AuthenticatedUser) error {
	e.mu.Lock()
	t := token
	u := user
	e.token = &t
	e.user = &u
	e.mu.Unlock()

	return e.persistSession(ctx, token, user)
}

func (e *Engine) persistSession(ctx context.Context, token SessionToken, user AuthenticatedUser) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := e.store.SaveSession(ctx, token.AccessToken, rawUser); err != nil {
		log.Print("tenauth: session persist failed: ", err)
		return err
	}
	e.metricInc(MetricSessionPersisted)
	return nil
}

// persistUser rewrites only the stored user payload, leaving the token
// untouched.
func (e *Engine) persistUser(ctx context.Context, user AuthenticatedUser) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := e.store.SaveUser(ctx, rawUser); err != nil {
		log.Print("tenauth: user persist failed: ", err)
		return err
	}
	return nil
}

// accessToken returns the current bearer token, or ErrNotAuthenticated.
func (e *Engine) accessToken() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token == nil || e.user == nil {
		return "", ErrNotAuthenticated
	}
	return e.token.AccessToken, nil
}

// paceWait blocks until the pacer admits another backend request.
func (e *Engine) paceWait(ctx context.Context) error {
	if e == nil || e.pacer == nil {
		return nil
	}
	return e.pacer.Wait(ctx)
}

// paceObserve feeds a backend call outcome to the pacer so rate limit
// responses escalate the backoff penalty.
func (e *Engine) paceObserve(err error) {
	if e == nil || e.pacer == nil {
		return
	}
	if err != nil && Classify(err).Category == CategoryRateLimited {
		e.pacer.ObserveRateLimited()
		return
	}
	if err == nil {
		e.pacer.ObserveSuccess()
	}
}
