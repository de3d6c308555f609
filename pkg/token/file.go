package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the token pair as a single JSON file. It is the
// default store for the CLI: the file survives process restarts the way
// browser storage survives a page reload.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed store at path. The parent
// directory is created on demand; the token file itself is written with
// mode 0600.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("token: file store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("token: create store dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the location of the token file.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the pair, replacing any existing file. The write goes
// through a temp file and rename so a crash mid-write never leaves a
// truncated token file behind.
func (s *FileStore) Save(pair Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("token: encode pair: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("token: write pair: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("token: write pair: %w", err)
	}
	return nil
}

// Load reads the persisted pair. A missing file means no session. A
// malformed file also means no session: the corrupt entry is deleted so
// the next Load starts clean.
func (s *FileStore) Load() (Pair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Pair{}, false, nil
	}
	if err != nil {
		return Pair{}, false, fmt.Errorf("token: read pair: %w", err)
	}

	var pair Pair
	if err := json.Unmarshal(data, &pair); err != nil || pair.Access == "" {
		// Corrupt or empty entry: discard and report no session.
		os.Remove(s.path)
		return Pair{}, false, nil
	}
	return pair, true, nil
}

// Clear removes the token file. Clearing a store that has no file is a
// no-op.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("token: clear: %w", err)
	}
	return nil
}
