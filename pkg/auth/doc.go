// Package auth owns the client-side session lifecycle for ServiceBay.
//
// The Controller is the single authoritative answer to "who is logged in
// right now". It loads persisted credentials on startup, exposes
// Login/Logout/Refresh, and schedules proactive token renewal so the
// access token is replaced before it expires.
//
// # State machine
//
// A controller is always in exactly one of four states:
//
//	Unauthenticated → Authenticating → Authenticated ⇄ Expiring
//
// Expiring means a token refresh is in flight; it resolves back to
// Authenticated on success or to Unauthenticated (via Logout) on
// failure. Every failure path lands in a well-defined state — no error
// in this package is fatal to the process.
//
// # No singletons
//
// Controllers are plain instances wired together explicitly. Tests
// construct isolated controllers against in-memory stores and stub
// backends; nothing in this package keeps process-wide session state.
//
// # Refresh de-duplication
//
// Two call sites trigger refreshes: the HTTP transport (reacting to a
// 401) and the proactive timer. Refresh collapses concurrent attempts
// into one network call; the second caller waits on the first's result.
// A refresh that completes after Logout is discarded rather than
// reviving the session.
package auth
