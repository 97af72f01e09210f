package studio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrSessionMissing is returned by Load when no valid session artifact exists.
var ErrSessionMissing = errors.New("no valid studio session")

// defaultMinSessionBytes guards against empty or truncated session files: a
// real storage-state blob (cookies + local storage) is always larger.
const defaultMinSessionBytes = 100

// SessionStore persists the studio authentication artifact on disk. The
// artifact is an opaque blob produced by the login flow; the store only
// checks that it exists and is plausibly complete.
type SessionStore struct {
	path    string
	minSize int64
}

// NewSessionStore creates a SessionStore for the artifact at path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, minSize: defaultMinSessionBytes}
}

// Path returns the artifact location.
func (s *SessionStore) Path() string {
	return s.path
}

// Valid reports whether a plausible session artifact exists: the file is
// present and at least the minimum size. A partially written or empty
// artifact is never valid.
func (s *SessionStore) Valid() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}
	return info.Size() >= s.minSize
}

// Load returns the session artifact bytes, or ErrSessionMissing when no
// valid artifact exists.
func (s *SessionStore) Load() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrSessionMissing
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading session artifact: %w", err)
	}
	return data, nil
}

// Save atomically replaces the session artifact: the blob is written to a
// temporary file in the same directory and renamed over the target, so a
// concurrent reader never observes a half-written artifact.
func (s *SessionStore) Save(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing session artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp session file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing session artifact: %w", err)
	}
	return nil
}
