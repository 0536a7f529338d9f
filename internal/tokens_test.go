package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())

	token, err := store.Get()
	if err != nil {
		t.Fatalf("Get() on empty store: %v", err)
	}
	if token != "" {
		t.Errorf("Get() on empty store = %q, want empty", token)
	}

	if err := store.Set("abc123"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	token, err = store.Get()
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if token != "abc123" {
		t.Errorf("Get() = %q, want %q", token, "abc123")
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	token, _ = store.Get()
	if token != "" {
		t.Errorf("Get() after Delete = %q, want empty", token)
	}
}

func TestFileTokenStoreDeleteAbsent(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())
	if err := store.Delete(); err != nil {
		t.Errorf("Delete() on empty store = %v, want nil", err)
	}
}

func TestFileTokenStorePermissions(t *testing.T) {
	dir := t.TempDir()
	store := NewFileTokenStore(dir)
	if err := store.Set("secret"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, TokenFile))
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file mode = %o, want 0600", perm)
	}
}

func TestFileTokenStoreMigratesLegacyFile(t *testing.T) {
	dir := t.TempDir()
	legacyPath := filepath.Join(dir, LegacyTokenFile)
	if err := os.WriteFile(legacyPath, []byte("legacy-token\n"), 0600); err != nil {
		t.Fatalf("seeding legacy file: %v", err)
	}

	store := NewFileTokenStore(dir)
	token, err := store.Get()
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if token != "legacy-token" {
		t.Errorf("Get() = %q, want %q", token, "legacy-token")
	}

	// The value must now live under the canonical name only.
	if _, err := os.Stat(legacyPath); !os.IsNotExist(err) {
		t.Error("legacy token file still present after migration")
	}
	data, err := os.ReadFile(filepath.Join(dir, TokenFile))
	if err != nil {
		t.Fatalf("reading canonical file: %v", err)
	}
	if string(data) != "legacy-token" {
		t.Errorf("canonical file = %q, want %q", data, "legacy-token")
	}

	// A second read must not depend on the legacy file.
	token, err = store.Get()
	if err != nil || token != "legacy-token" {
		t.Errorf("second Get() = %q, %v", token, err)
	}
}

func TestFileTokenStoreCanonicalWinsOverLegacy(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, TokenFile), []byte("canonical"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, LegacyTokenFile), []byte("legacy"), 0600); err != nil {
		t.Fatal(err)
	}

	store := NewFileTokenStore(dir)
	token, err := store.Get()
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if token != "canonical" {
		t.Errorf("Get() = %q, want canonical value", token)
	}
}

func TestMemTokenStoreMigratesLegacy(t *testing.T) {
	store := NewMemTokenStore()
	store.SetLegacy("old-token")

	token, err := store.Get()
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if token != "old-token" {
		t.Errorf("Get() = %q, want %q", token, "old-token")
	}
	if store.HasLegacy() {
		t.Error("legacy value still present after migration")
	}
}
