package token_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/servicebay-dev/servicebay/pkg/token"
)

func newFileStore(t *testing.T) *token.FileStore {
	t.Helper()
	store, err := token.NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := newFileStore(t)
	access := mintAccess(t, "technician", time.Minute)
	saved := token.Pair{Access: access, Refresh: "refresh-token"}

	if err := store.Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected stored pair")
	}
	if loaded != saved {
		t.Errorf("loaded pair %+v does not match saved %+v", loaded, saved)
	}

	// The loaded access token decodes to the same session as the
	// original.
	want, err := token.DecodeClaims(saved.Access)
	if err != nil {
		t.Fatalf("decode saved: %v", err)
	}
	got, err := token.DecodeClaims(loaded.Access)
	if err != nil {
		t.Fatalf("decode loaded: %v", err)
	}
	if got.UserID != want.UserID || got.Email != want.Email || got.Role != want.Role {
		t.Errorf("loaded claims %+v do not match saved claims %+v", got, want)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := newFileStore(t)

	_, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected no pair in empty store")
	}
}

func TestFileStore_LoadMalformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "{{{"},
		{"wrong shape", `[1, 2, 3]`},
		{"missing access", `{"refresh": "only-refresh"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFileStore(t)
			if err := os.WriteFile(store.Path(), []byte(tc.data), 0o600); err != nil {
				t.Fatalf("seed file: %v", err)
			}

			_, ok, err := store.Load()
			if err != nil {
				t.Fatalf("Load must not fail on malformed data: %v", err)
			}
			if ok {
				t.Fatal("expected malformed entry to read as no session")
			}

			// The corrupt entry is discarded.
			if _, statErr := os.Stat(store.Path()); !os.IsNotExist(statErr) {
				t.Error("expected corrupt token file to be removed")
			}
		})
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	store := newFileStore(t)

	first := token.Pair{Access: mintAccess(t, "customer", time.Minute), Refresh: "r1"}
	second := token.Pair{Access: mintAccess(t, "admin", time.Minute), Refresh: "r2"}

	if err := store.Save(first); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	loaded, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if loaded != second {
		t.Errorf("expected second pair to win, got %+v", loaded)
	}
}

func TestFileStore_Clear(t *testing.T) {
	store := newFileStore(t)
	pair := token.Pair{Access: mintAccess(t, "customer", time.Minute), Refresh: "r"}
	if err := store.Save(pair); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatal("expected no pair after Clear")
	}

	// Clearing again is a no-op.
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := token.NewMemoryStore()

	if _, ok, _ := store.Load(); ok {
		t.Fatal("expected empty store")
	}

	pair := token.Pair{Access: mintAccess(t, "customer", time.Minute), Refresh: "r"}
	if err := store.Save(pair); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if loaded != pair {
		t.Errorf("loaded %+v, want %+v", loaded, pair)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatal("expected empty store after Clear")
	}
}
