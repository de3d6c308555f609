// Package routes holds the application's view table and the
// authorization guard that gates navigation.
//
// Every view is registered with the set of roles allowed to see it. The
// Guard evaluates a requested path against the current session and
// yields exactly one decision: render, show the loading placeholder,
// redirect to login (remembering where the user was headed), or
// redirect the user to their own dashboard.
//
// The guard is advisory routing only. The backend enforces authorization
// on every request; a client that skips the guard gains nothing.
package routes
