package token

// Store defines the interface for token persistence backends.
// Implementations must be safe for concurrent use: the HTTP transport
// reads on every request while the session controller writes on
// login, refresh and logout.
type Store interface {
	// Save persists the pair, overwriting any existing value.
	Save(pair Pair) error

	// Load retrieves the persisted pair.
	// Returns (pair, true, nil) when a pair is present.
	// Returns (zero, false, nil) when no pair is stored or the stored
	// entry is malformed; malformed entries are discarded, not surfaced
	// as errors.
	// Returns (zero, false, err) only on backend I/O errors.
	Load() (Pair, bool, error)

	// Clear removes all persisted credentials. Clearing an empty store
	// is not an error.
	Clear() error
}
