package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity claims the backend embeds in every access
// token. The backend adds email, user_role and first_name on top of the
// standard registered claims; user_id mirrors the subject.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"user_role"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	jwt.RegisteredClaims
}

// ExpiresIn returns the time remaining until the access token expires,
// relative to now. Returns zero when the token carries no expiry claim.
func (c *Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}

// DecodeError is returned when an access token is structurally invalid:
// not three dot-separated base64url segments, or a payload that is not
// valid JSON. Callers must treat it identically to "no session".
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "token: decode failed: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeClaims extracts the claims from an access token without
// verifying its signature. Signature verification is the backend's
// responsibility; the client only reads claims for display and routing.
func DecodeClaims(access string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(access, claims); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return claims, nil
}
