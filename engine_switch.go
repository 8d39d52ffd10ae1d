package tenauth

import (
	"context"
	"log"
)

// SwitchCompany rescopes the current session to tenantID. The backend's
// switch endpoint is the primary path; when it fails the engine falls
// back to mutating the stored user's company locally, marks the result
// Degraded, and records the degradation. The fallback keeps older
// backends usable at the cost of backend-side scoping.
//
// Switching to the tenant the session already holds is a no-op success.
func (e *Engine) SwitchCompany(ctx context.Context, tenantID string) (*SwitchResult, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}
	if tenantID == "" {
		return nil, ErrUnknownTenant
	}

	accessToken, err := e.accessToken()
	if err != nil {
		return nil, err
	}

	current := e.CurrentUser()
	if current == nil {
		return nil, ErrNotAuthenticated
	}
	if current.CompanyID == tenantID {
		u := *current
		return &SwitchResult{User: u}, nil
	}

	if err := e.paceWait(ctx); err != nil {
		return nil, err
	}

	user, err := e.backend.SwitchCompany(ctx, accessToken, tenantID)
	e.paceObserve(err)
	if err == nil {
		e.mu.Lock()
		u := *user
		e.user = &u
		e.mu.Unlock()

		if perr := e.persistUser(ctx, *user); perr != nil {
			log.Print("tenauth: switch persist failed: ", perr)
		}

		e.metricInc(MetricSwitchSuccess)
		e.emitAudit(ctx, auditEventSwitchSuccess, true, user.ID, tenantID, "", nil, nil)

		u = *user
		return &SwitchResult{User: u}, nil
	}

	// Credential and permission rejections are real failures; only
	// availability problems degrade to the local path.
	switch Classify(err).Category {
	case CategoryInvalidCredentials, CategoryForbidden, CategoryRateLimited:
		e.metricInc(MetricSwitchFailure)
		e.emitAudit(ctx, auditEventSwitchFailure, false, current.ID, tenantID, "", err, nil)
		return nil, err
	}

	log.Print("tenauth: switch endpoint unavailable, applying local company switch: ", err)

	local := *current
	local.CompanyID = tenantID

	e.mu.Lock()
	u := local
	e.user = &u
	e.mu.Unlock()

	if perr := e.persistUser(ctx, local); perr != nil {
		log.Print("tenauth: degraded switch persist failed: ", perr)
	}

	e.metricInc(MetricSwitchDegraded)
	e.emitAudit(ctx, auditEventSwitchDegraded, true, local.ID, tenantID, "", err, func() map[string]string {
		return map[string]string{"mode": "local"}
	})

	return &SwitchResult{User: local, Degraded: true}, nil
}
