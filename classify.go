package tenauth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/hexlane/tenauth/backend"
)

// Category is the closed set of user-facing failure classes a
// transport/HTTP outcome maps to.
type Category uint8

const (
	// CategoryUnknown covers outcomes no other category claims.
	CategoryUnknown Category = iota
	// CategoryRateLimited maps HTTP 429.
	CategoryRateLimited
	// CategoryInvalidCredentials maps HTTP 401.
	CategoryInvalidCredentials
	// CategoryForbidden maps HTTP 403.
	CategoryForbidden
	// CategoryServerError maps HTTP 5xx.
	CategoryServerError
	// CategoryNetworkError maps connection-level failures (refused, timeout,
	// no route).
	CategoryNetworkError
	// CategoryValidation maps other 4xx responses carrying a structured
	// message body. The only category whose detail surfaces backend text.
	CategoryValidation
)

func (c Category) String() string {
	switch c {
	case CategoryRateLimited:
		return "rate_limited"
	case CategoryInvalidCredentials:
		return "invalid_credentials"
	case CategoryForbidden:
		return "forbidden"
	case CategoryServerError:
		return "server_error"
	case CategoryNetworkError:
		return "network_error"
	case CategoryValidation:
		return "validation_error"
	default:
		return "unknown"
	}
}

// Classification is the classifier output: the category plus its fixed
// user-safe message. Detail carries raw backend text only for
// [CategoryValidation]; everything else keeps backend output away from
// users.
type Classification struct {
	Category Category
	Message  string
	Detail   string
}

var categoryMessages = map[Category]string{
	CategoryUnknown:            "Something went wrong. Please try again.",
	CategoryRateLimited:        "Too many attempts. Please wait a moment and try again.",
	CategoryInvalidCredentials: "Incorrect email or password.",
	CategoryForbidden:          "You don't have permission to do that.",
	CategoryServerError:        "The server had a problem. Please try again later.",
	CategoryNetworkError:       "Couldn't reach the server. Check your connection.",
	CategoryValidation:         "The request was rejected.",
}

// Classify maps a transport/HTTP failure into its category and message
// template. It is a pure function of the error value.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Category: CategoryUnknown, Message: categoryMessages[CategoryUnknown]}
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr)
	}

	if isNetworkError(err) {
		return Classification{Category: CategoryNetworkError, Message: categoryMessages[CategoryNetworkError]}
	}

	return Classification{Category: CategoryUnknown, Message: categoryMessages[CategoryUnknown]}
}

func classifyStatus(apiErr *backend.APIError) Classification {
	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return Classification{Category: CategoryRateLimited, Message: categoryMessages[CategoryRateLimited]}
	case apiErr.StatusCode == http.StatusUnauthorized:
		return Classification{Category: CategoryInvalidCredentials, Message: categoryMessages[CategoryInvalidCredentials]}
	case apiErr.StatusCode == http.StatusForbidden:
		return Classification{Category: CategoryForbidden, Message: categoryMessages[CategoryForbidden]}
	case apiErr.StatusCode >= 500:
		return Classification{Category: CategoryServerError, Message: categoryMessages[CategoryServerError]}
	case apiErr.StatusCode >= 400 && apiErr.Message != "":
		return Classification{
			Category: CategoryValidation,
			Message:  categoryMessages[CategoryValidation],
			Detail:   apiErr.Message,
		}
	default:
		return Classification{Category: CategoryUnknown, Message: categoryMessages[CategoryUnknown]}
	}
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
