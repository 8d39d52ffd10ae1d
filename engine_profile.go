package tenauth

import (
	"context"
	"io"
	"log"
)

// UpdateProfile sends a partial profile update and adopts the refreshed
// user the backend returns, in memory and in the store. Field names
// follow the backend's wire schema ("name", "email", "phone").
func (e *Engine) UpdateProfile(ctx context.Context, fields map[string]any) (*AuthenticatedUser, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}

	accessToken, err := e.accessToken()
	if err != nil {
		return nil, err
	}

	if err := e.paceWait(ctx); err != nil {
		return nil, err
	}

	user, err := e.backend.UpdateProfile(ctx, accessToken, fields)
	e.paceObserve(err)
	if err != nil {
		e.emitAudit(ctx, auditEventProfileUpdated, false, "", "", "", err, nil)
		return nil, err
	}

	return e.adoptUser(ctx, user, auditEventProfileUpdated)
}

// UploadProfileImage replaces the profile image and adopts the refreshed
// user the backend returns.
func (e *Engine) UploadProfileImage(ctx context.Context, filename string, content io.Reader) (*AuthenticatedUser, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}

	accessToken, err := e.accessToken()
	if err != nil {
		return nil, err
	}

	if err := e.paceWait(ctx); err != nil {
		return nil, err
	}

	user, err := e.backend.UploadProfileImage(ctx, accessToken, filename, content)
	e.paceObserve(err)
	if err != nil {
		e.emitAudit(ctx, auditEventProfileImageSet, false, "", "", "", err, nil)
		return nil, err
	}

	return e.adoptUser(ctx, user, auditEventProfileImageSet)
}

// adoptUser installs a backend-refreshed user in memory, persists it,
// and returns a copy to the caller.
func (e *Engine) adoptUser(ctx context.Context, user *AuthenticatedUser, event string) (*AuthenticatedUser, error) {
	e.mu.Lock()
	u := *user
	e.user = &u
	e.mu.Unlock()

	if err := e.persistUser(ctx, *user); err != nil {
		log.Print("tenauth: profile persist failed: ", err)
	}

	e.metricInc(MetricProfileRefreshed)
	e.emitAudit(ctx, event, true, user.ID, user.CompanyID, "", nil, nil)

	out := *user
	return &out, nil
}
