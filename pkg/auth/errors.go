package auth

import "fmt"

// AuthenticationError is returned by Login when the backend rejects the
// credentials. Detail carries the backend's rejection reason verbatim
// for display on the login form.
type AuthenticationError struct {
	StatusCode int
	Detail     string
}

func (e *AuthenticationError) Error() string {
	if e.Detail != "" {
		return "auth: login rejected: " + e.Detail
	}
	return fmt.Sprintf("auth: login failed with status %d", e.StatusCode)
}

// RefreshError is returned when a token refresh attempt fails. It is
// never surfaced to the end user directly: refresh failure triggers a
// silent logout and a redirect to the login view.
type RefreshError struct {
	StatusCode int
	Err        error
}

func (e *RefreshError) Error() string {
	if e.Err != nil {
		return "auth: token refresh failed: " + e.Err.Error()
	}
	return fmt.Sprintf("auth: token refresh rejected with status %d", e.StatusCode)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}
