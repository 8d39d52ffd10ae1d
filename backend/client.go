package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx backend response. StatusCode drives classification;
// Message holds the backend's structured error text when the body carried one.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Config holds client construction parameters. BaseURL is required.
type Config struct {
	BaseURL    string
	PortalType string
	Timeout    time.Duration
	// HTTPClient overrides the default timeout-configured client when set.
	HTTPClient *http.Client
}

// Client calls the remote authentication service. It is safe for concurrent
// use; all state is set at construction.
type Client struct {
	http       *http.Client
	baseURL    string
	portalType string
}

// NewClient creates a backend [Client] from cfg, applying the default
// request timeout when none is configured.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		http:       httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		portalType: cfg.PortalType,
	}
}

// Authenticate probes the identity behind the credential pair and returns
// tenant membership. It establishes no session and sends no token.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*AuthenticateResult, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	if c.portalType != "" {
		body["portalType"] = c.portalType
	}

	var result AuthenticateResult
	if err := c.postJSON(ctx, "/auth/authenticate", "", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login performs the tenant-resolved login call and returns token material
// plus the scoped user object.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if req.PortalType == "" {
		req.PortalType = c.portalType
	}

	var result LoginResult
	if err := c.postJSON(ctx, "/auth/login", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SwitchCompany asks the backend to rescope the session to companyID. Older
// backend versions answer 404 here; callers fall back to local mutation.
func (c *Client) SwitchCompany(ctx context.Context, accessToken, companyID string) (*User, error) {
	body := map[string]string{"companyId": companyID}

	var envelope userEnvelope
	if err := c.postJSON(ctx, "/auth/switch-company", accessToken, body, &envelope); err != nil {
		return nil, err
	}
	if envelope.User == nil {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "switch response missing user"}
	}
	return envelope.User, nil
}

// UpdateProfile applies a partial profile update and returns the full
// refreshed user object.
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, fields map[string]any) (*User, error) {
	var envelope userEnvelope
	if err := c.doJSON(ctx, http.MethodPut, "/auth/profile", accessToken, fields, &envelope); err != nil {
		return nil, err
	}
	if envelope.User == nil {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "profile response missing user"}
	}
	return envelope.User, nil
}

// UploadProfileImage uploads a new profile image as multipart form data and
// returns the full refreshed user object.
func (c *Client) UploadProfileImage(ctx context.Context, accessToken, filename string, content io.Reader) (*User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/profile/image", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	setAuth(req, accessToken)

	var envelope userEnvelope
	if err := c.send(req, &envelope); err != nil {
		return nil, err
	}
	if envelope.User == nil {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "image response missing user"}
	}
	return envelope.User, nil
}

func (c *Client) postJSON(ctx context.Context, path, token string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, token, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	setAuth(req, token)

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

func setAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			apiErr.Message = envelope.Message
		} else if envelope.Error != "" {
			apiErr.Message = envelope.Error
		}
	}

	return apiErr
}
