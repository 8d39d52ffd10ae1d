package tenauth

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hexlane/tenauth/backend"
	"github.com/hexlane/tenauth/session"
	"github.com/hexlane/tenauth/vault"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

type mockBackend struct {
	mu sync.Mutex

	authResult *backend.AuthenticateResult
	authErr    error
	authCalls  int

	loginResult *backend.LoginResult
	loginErr    error
	loginReqs   []backend.LoginRequest

	switchUser  *backend.User
	switchErr   error
	switchCalls []string

	profileUser *backend.User
	profileErr  error
}

func (m *mockBackend) Authenticate(ctx context.Context, email, password string) (*backend.AuthenticateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authCalls++
	if m.authErr != nil {
		return nil, m.authErr
	}
	return m.authResult, nil
}

func (m *mockBackend) Login(ctx context.Context, req backend.LoginRequest) (*backend.LoginResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginReqs = append(m.loginReqs, req)
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginResult, nil
}

func (m *mockBackend) SwitchCompany(ctx context.Context, accessToken, companyID string) (*backend.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.switchCalls = append(m.switchCalls, companyID)
	if m.switchErr != nil {
		return nil, m.switchErr
	}
	return m.switchUser, nil
}

func (m *mockBackend) UpdateProfile(ctx context.Context, accessToken string, fields map[string]any) (*backend.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profileUser, nil
}

func (m *mockBackend) UploadProfileImage(ctx context.Context, accessToken, filename string, content io.Reader) (*backend.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profileUser, nil
}

func (m *mockBackend) loginCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loginReqs)
}

func (m *mockBackend) lastLogin(t *testing.T) backend.LoginRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.loginReqs) == 0 {
		t.Fatal("expected at least one login call")
	}
	return m.loginReqs[len(m.loginReqs)-1]
}

type fakeBiometric struct {
	avail    vault.Availability
	availErr error
	authErr  error
	prompts  int
}

func (f *fakeBiometric) Availability(ctx context.Context) (vault.Availability, error) {
	return f.avail, f.availErr
}

func (f *fakeBiometric) Authenticate(ctx context.Context, reason string) error {
	f.prompts++
	return f.authErr
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Backend.PortalType = "hub"
	cfg.Pacing.Enabled = false
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, be Backend) (*Engine, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)

	engine, err := New().
		WithConfig(cfg).
		WithStore(session.NewRedisStore(rdb, session.Keys{})).
		WithBackend(be).
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

func singleCompanyBackend() *mockBackend {
	user := &backend.User{
		ID:        "u-1",
		Name:      "Ada",
		Email:     "ada@example.com",
		CompanyID: "c-1",
	}
	return &mockBackend{
		authResult: &backend.AuthenticateResult{
			Success:   true,
			User:      user,
			Companies: []backend.Company{{ID: "c-1", Name: "Acme"}},
		},
		loginResult: &backend.LoginResult{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			JTI:          "jti-1",
			User:         user,
		},
	}
}

func TestRestoreEmptyStore(t *testing.T) {
	engine, done := newTestEngine(t, testConfig(), singleCompanyBackend())
	defer done()

	ok, err := engine.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if ok {
		t.Fatal("expected no session to restore")
	}
	if engine.IsAuthenticated() {
		t.Fatal("expected unauthenticated engine")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	be := singleCompanyBackend()
	engine, done := newTestEngine(t, testConfig(), be)
	defer done()

	sess, err := engine.Login(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// A second engine over the same store stands in for a process restart.
	second := &Engine{
		config:  engine.config,
		store:   engine.store,
		backend: be,
		metrics: NewMetrics(engine.config.Metrics),
	}

	ok, err := second.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !ok {
		t.Fatal("expected session to restore")
	}
	restored := second.Session()
	if restored == nil {
		t.Fatal("expected restored session")
	}
	if restored.Token.AccessToken != sess.Token.AccessToken {
		t.Fatalf("expected token %q, got %q", sess.Token.AccessToken, restored.Token.AccessToken)
	}
	if restored.User.ID != "u-1" || restored.User.CompanyID != "c-1" {
		t.Fatalf("unexpected restored user: %+v", restored.User)
	}
}

func TestRestorePartialStateClearsStore(t *testing.T) {
	be := singleCompanyBackend()
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	keys := session.Keys{}
	store := session.NewRedisStore(rdb, keys)

	engine, err := New().
		WithConfig(testConfig()).
		WithStore(store).
		WithBackend(be).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	// A token without a user payload models a crash between the two writes.
	mr.Set(keys.Token(), "orphan-token")

	ok, err := engine.Restore(context.Background())
	if !errors.Is(err, ErrSessionCorrupted) {
		t.Fatalf("expected ErrSessionCorrupted, got %v", err)
	}
	if ok {
		t.Fatal("expected restore to fail")
	}
	if engine.IsAuthenticated() {
		t.Fatal("expected unauthenticated engine after corruption")
	}

	tok, raw, err := store.LoadSession(context.Background())
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if tok != "" || len(raw) != 0 {
		t.Fatal("expected corrupted state to be cleared")
	}
	if got := engine.MetricsSnapshot().Counters[MetricSessionCorrupted]; got != 1 {
		t.Fatalf("expected 1 corruption counted, got %d", got)
	}
}

func TestRestoreUnparsableUserClearsStore(t *testing.T) {
	be := singleCompanyBackend()
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	keys := session.Keys{}
	store := session.NewRedisStore(rdb, keys)

	engine, err := New().
		WithConfig(testConfig()).
		WithStore(store).
		WithBackend(be).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	mr.Set(keys.Token(), "token")
	mr.Set(keys.User(), "{not-json")

	if _, err := engine.Restore(context.Background()); !errors.Is(err, ErrSessionCorrupted) {
		t.Fatalf("expected ErrSessionCorrupted, got %v", err)
	}
}

func TestLogoutClearsSessionAndStore(t *testing.T) {
	be := singleCompanyBackend()
	engine, done := newTestEngine(t, testConfig(), be)
	defer done()

	if _, err := engine.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !engine.IsAuthenticated() {
		t.Fatal("expected authenticated engine")
	}

	if err := engine.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if engine.IsAuthenticated() {
		t.Fatal("expected unauthenticated engine after logout")
	}
	if engine.Session() != nil {
		t.Fatal("expected nil session after logout")
	}

	tok, raw, err := engine.store.LoadSession(context.Background())
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if tok != "" || len(raw) != 0 {
		t.Fatal("expected store cleared after logout")
	}
}

func TestCurrentUserReturnsCopy(t *testing.T) {
	be := singleCompanyBackend()
	engine, done := newTestEngine(t, testConfig(), be)
	defer done()

	if _, err := engine.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	u := engine.CurrentUser()
	u.Name = "mutated"

	if engine.CurrentUser().Name != "Ada" {
		t.Fatal("expected engine state to be unaffected by caller mutation")
	}
}
