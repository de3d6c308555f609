package auth

import "github.com/servicebay-dev/servicebay/pkg/token"

// Session is the identity derived from the current access token. It is
// never stored: every time the access token changes the session is
// recomputed from its claims, and it clears to absent when the token
// clears or fails to decode.
type Session struct {
	UserID    int64
	Email     string
	FirstName string
	LastName  string
	Role      Role
}

// DisplayName returns a human-friendly name for the session, falling
// back to the email address when no name claims are present.
func (s *Session) DisplayName() string {
	switch {
	case s.FirstName != "" && s.LastName != "":
		return s.FirstName + " " + s.LastName
	case s.FirstName != "":
		return s.FirstName
	default:
		return s.Email
	}
}

func sessionFromClaims(claims *token.Claims) *Session {
	return &Session{
		UserID:    claims.UserID,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Role:      Role(claims.Role),
	}
}
