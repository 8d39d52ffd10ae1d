package tenauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/hexlane/tenauth/backend"
)

func TestClassifyStatusTable(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		want   Category
		detail string
	}{
		{"rate limited", &backend.APIError{StatusCode: 429, Message: "slow down"}, CategoryRateLimited, ""},
		{"unauthorized", &backend.APIError{StatusCode: 401, Message: "bad credentials"}, CategoryInvalidCredentials, ""},
		{"forbidden", &backend.APIError{StatusCode: 403}, CategoryForbidden, ""},
		{"server error", &backend.APIError{StatusCode: 500}, CategoryServerError, ""},
		{"bad gateway", &backend.APIError{StatusCode: 502}, CategoryServerError, ""},
		{"unavailable", &backend.APIError{StatusCode: 503}, CategoryServerError, ""},
		{"validation", &backend.APIError{StatusCode: 422, Message: "email is malformed"}, CategoryValidation, "email is malformed"},
		{"opaque 4xx", &backend.APIError{StatusCode: 418}, CategoryUnknown, ""},
		{"wrapped api error", fmt.Errorf("login: %w", &backend.APIError{StatusCode: 429}), CategoryRateLimited, ""},
		{"plain error", errors.New("boom"), CategoryUnknown, ""},
		{"nil", nil, CategoryUnknown, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			if got.Category != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.Category)
			}
			if got.Message == "" {
				t.Fatal("expected a user-facing message")
			}
			if got.Detail != tc.detail {
				t.Fatalf("expected detail %q, got %q", tc.detail, got.Detail)
			}
		})
	}
}

func TestClassifyNetworkErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"url error", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}},
		{"deadline", context.DeadlineExceeded},
		{"wrapped deadline", fmt.Errorf("authenticate: %w", context.DeadlineExceeded)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err).Category; got != CategoryNetworkError {
				t.Fatalf("expected network error, got %s", got)
			}
		})
	}
}

func TestClassifyNeverLeaksBackendBodyOutsideValidation(t *testing.T) {
	c := Classify(&backend.APIError{
		StatusCode: 500,
		Message:    "panic: nil pointer at handler.go:42",
	})
	if c.Detail != "" {
		t.Fatalf("expected no detail on server errors, got %q", c.Detail)
	}
}
