package tenauth

import (
	"context"
	"errors"
	"testing"

	"github.com/hexlane/tenauth/session"
	"github.com/hexlane/tenauth/vault"
)

func newBiometricEngine(t *testing.T, be Backend, provider vault.Provider) (*Engine, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)

	cfg := testConfig()
	cfg.Biometric.Enabled = true
	cfg.Biometric.DeviceKey = []byte("0123456789abcdef0123456789abcdef")

	engine, err := New().
		WithConfig(cfg).
		WithStore(session.NewRedisStore(rdb, session.Keys{})).
		WithBackend(be).
		WithBiometricProvider(provider).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, func() {
		engine.Close()
		mr.Close()
	}
}

func usableBiometric() *fakeBiometric {
	return &fakeBiometric{
		avail: vault.Availability{
			HasHardware: true,
			Enrolled:    true,
			Types:       []string{"fingerprint"},
		},
	}
}

func TestBiometricLoginRoundTrip(t *testing.T) {
	be := singleCompanyBackend()
	provider := usableBiometric()
	engine, done := newBiometricEngine(t, be, provider)
	defer done()

	if err := engine.EnableBiometrics(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("EnableBiometrics failed: %v", err)
	}
	if !engine.HasBiometricCredential(context.Background()) {
		t.Fatal("expected stored credential")
	}

	flow, err := engine.LoginWithBiometrics(context.Background())
	if err != nil {
		t.Fatalf("LoginWithBiometrics failed: %v", err)
	}
	if flow.State() != FlowResolved {
		t.Fatalf("expected FlowResolved, got %s", flow.State())
	}
	if provider.prompts != 1 {
		t.Fatalf("expected exactly one biometric prompt, got %d", provider.prompts)
	}
	if !engine.IsAuthenticated() {
		t.Fatal("expected authenticated engine")
	}

	// The same tenant pipeline ran: credentials went through the probe.
	req := be.lastLogin(t)
	if req.Email != "ada@example.com" || req.Password != "pw" {
		t.Fatal("expected stored credentials on login")
	}
}

func TestBiometricLoginCancelled(t *testing.T) {
	be := singleCompanyBackend()
	provider := usableBiometric()
	engine, done := newBiometricEngine(t, be, provider)
	defer done()

	if err := engine.EnableBiometrics(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("EnableBiometrics failed: %v", err)
	}
	provider.authErr = vault.ErrPromptCancelled

	if _, err := engine.LoginWithBiometrics(context.Background()); !errors.Is(err, ErrBiometricCancelled) {
		t.Fatalf("expected ErrBiometricCancelled, got %v", err)
	}
	if be.authCalls != 0 {
		t.Fatal("expected no backend call after cancelled prompt")
	}
	if engine.IsAuthenticated() {
		t.Fatal("expected unauthenticated engine")
	}
}

func TestBiometricLoginWithoutStoredCredential(t *testing.T) {
	engine, done := newBiometricEngine(t, singleCompanyBackend(), usableBiometric())
	defer done()

	if _, err := engine.LoginWithBiometrics(context.Background()); !errors.Is(err, ErrBiometricNotConfigured) {
		t.Fatalf("expected ErrBiometricNotConfigured, got %v", err)
	}
}

func TestBiometricHardwareGates(t *testing.T) {
	provider := &fakeBiometric{avail: vault.Availability{}}
	engine, done := newBiometricEngine(t, singleCompanyBackend(), provider)
	defer done()

	if err := engine.EnableBiometrics(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("EnableBiometrics failed: %v", err)
	}

	if _, err := engine.LoginWithBiometrics(context.Background()); !errors.Is(err, ErrBiometricUnavailable) {
		t.Fatalf("expected ErrBiometricUnavailable, got %v", err)
	}
	// Availability gating happens before any prompt.
	if provider.prompts != 0 {
		t.Fatalf("expected no prompt without hardware, got %d", provider.prompts)
	}

	provider.avail = vault.Availability{HasHardware: true}
	if _, err := engine.LoginWithBiometrics(context.Background()); !errors.Is(err, ErrBiometricNotEnrolled) {
		t.Fatalf("expected ErrBiometricNotEnrolled, got %v", err)
	}
}

func TestDisableBiometricsPurgesCredential(t *testing.T) {
	engine, done := newBiometricEngine(t, singleCompanyBackend(), usableBiometric())
	defer done()

	if err := engine.EnableBiometrics(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("EnableBiometrics failed: %v", err)
	}
	if err := engine.DisableBiometrics(context.Background()); err != nil {
		t.Fatalf("DisableBiometrics failed: %v", err)
	}
	if engine.HasBiometricCredential(context.Background()) {
		t.Fatal("expected credential purged")
	}
	if _, err := engine.LoginWithBiometrics(context.Background()); !errors.Is(err, ErrBiometricNotConfigured) {
		t.Fatalf("expected ErrBiometricNotConfigured after disable, got %v", err)
	}
}

func TestBiometricSaveOfferedOnFreshDevice(t *testing.T) {
	engine, done := newBiometricEngine(t, singleCompanyBackend(), usableBiometric())
	defer done()

	flow, err := engine.StartLogin(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("StartLogin failed: %v", err)
	}
	if !flow.BiometricSaveOffered() {
		t.Fatal("expected save offer on fresh usable device")
	}

	if err := engine.EnableBiometrics(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("EnableBiometrics failed: %v", err)
	}

	flow, err = engine.StartLogin(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("StartLogin failed: %v", err)
	}
	if flow.BiometricSaveOffered() {
		t.Fatal("expected no save offer once a credential is stored")
	}
}

func TestBiometricOpsWithoutVault(t *testing.T) {
	engine, done := newTestEngine(t, testConfig(), singleCompanyBackend())
	defer done()

	if _, err := engine.BiometricAvailability(context.Background()); !errors.Is(err, ErrBiometricNotConfigured) {
		t.Fatalf("expected ErrBiometricNotConfigured, got %v", err)
	}
	if err := engine.EnableBiometrics(context.Background(), "e", "p"); !errors.Is(err, ErrBiometricNotConfigured) {
		t.Fatalf("expected ErrBiometricNotConfigured, got %v", err)
	}
	if engine.HasBiometricCredential(context.Background()) {
		t.Fatal("expected no credential without a vault")
	}
}
