package internal

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// TokenFile is the canonical token filename.
	TokenFile = "access_token"

	// LegacyTokenFile is the deprecated token filename, migrated on first read.
	LegacyTokenFile = "token"
)

// TokenStore is the single persistence capability for the bearer token.
// Only the API client and the session manager consume it.
type TokenStore interface {
	// Get returns the stored token, or "" if none exists. A value found
	// under the legacy key is moved to the canonical key before returning.
	Get() (string, error)

	// Set stores the token under the canonical key.
	Set(token string) error

	// Delete removes the token. Deleting an absent token is not an error.
	Delete() error
}

// FileTokenStore persists the token as a file in the config directory.
type FileTokenStore struct {
	dir string
}

// NewFileTokenStore creates a token store rooted at dir.
func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{dir: dir}
}

func (s *FileTokenStore) path() string {
	return filepath.Join(s.dir, TokenFile)
}

func (s *FileTokenStore) legacyPath() string {
	return filepath.Join(s.dir, LegacyTokenFile)
}

// Get returns the stored token, migrating a legacy token file if present.
func (s *FileTokenStore) Get() (string, error) {
	data, err := os.ReadFile(s.path())
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	// No canonical token. Check the deprecated location and migrate it.
	legacy, err := os.ReadFile(s.legacyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	token := strings.TrimSpace(string(legacy))
	if err := s.Set(token); err != nil {
		return "", err
	}
	if err := os.Remove(s.legacyPath()); err != nil {
		LogWarn("Failed to remove legacy token file: %v", err)
	}
	return token, nil
}

// Set writes the token with mode 0600, creating the directory if needed.
func (s *FileTokenStore) Set(token string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path(), []byte(token), 0600)
}

// Delete removes the canonical token file.
func (s *FileTokenStore) Delete() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemTokenStore is an in-memory TokenStore for tests.
type MemTokenStore struct {
	mu     sync.Mutex
	token  string
	legacy string
}

// NewMemTokenStore creates an empty in-memory store.
func NewMemTokenStore() *MemTokenStore {
	return &MemTokenStore{}
}

// SetLegacy seeds a value under the deprecated key.
func (s *MemTokenStore) SetLegacy(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legacy = token
}

// HasLegacy reports whether a legacy value is still present.
func (s *MemTokenStore) HasLegacy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.legacy != ""
}

func (s *MemTokenStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" && s.legacy != "" {
		s.token = s.legacy
		s.legacy = ""
	}
	return s.token, nil
}

func (s *MemTokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemTokenStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
