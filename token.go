package tenauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry extracts the exp claim from an access token without
// verifying its signature. Tokens are issued and verified server-side;
// the client only needs the expiry for display and refresh scheduling.
// Returns the zero time when the token is opaque or carries no exp.
func tokenExpiry(accessToken string) time.Time {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// TokenSubject extracts the sub claim from an access token without
// verifying its signature. Best effort, empty when absent.
func TokenSubject(accessToken string) string {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return ""
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
