// Package token manages the bearer credential pair issued by the
// ServiceBay backend.
//
// The package has three responsibilities:
//
//   - The Pair type: an opaque access/refresh token pair as returned by
//     POST /token/.
//   - The Store interface with file and memory backends: durable
//     persistence of the current pair across process restarts.
//   - Claim decoding: reading identity and role claims out of an access
//     token without contacting the server.
//
// # Persistence
//
// The FileStore is the default backend and keeps the pair as a single
// JSON file in the user's config directory:
//
//	store, err := token.NewFileStore(path)
//	// ...
//	pair, ok, err := store.Load()
//
// Missing or corrupt files are treated as "no session": Load returns
// ok=false and discards the corrupt entry rather than failing.
//
// # Claim decoding is unverified
//
// DecodeClaims reads claims without verifying the token signature. The
// backend re-verifies every request, so the client only uses claims for
// display and routing decisions. Do not treat a decoded Claims value as
// proof of anything.
package token
