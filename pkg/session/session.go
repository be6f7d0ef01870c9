// Package session persists the single secret the client keeps on disk: the
// session token. The file holds the token as plain text; its absence means
// signed out.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/devnotes/devnotes.go/pkg/constants"
)

// Store reads and writes the token file under a data directory.
type Store struct {
	path string
}

// NewStore places the token file at <dataDir>/DevNotes/session.token.
func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, filepath.FromSlash(constants.SessionTokenFileName))}
}

// NewStoreAt uses path as the token file.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted token, or "" when there is none.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save persists token. Saving "" deletes the file.
func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Delete()
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, constants.SessionTokenDirMode); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	// Write then rename so a reader never sees a half written token.
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("write session token: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(token); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session token: %w", err)
	}
	if err := tmp.Chmod(constants.SessionTokenFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session token: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("write session token: %w", err)
	}
	return nil
}

// Delete removes the token file. A missing file is not an error.
func (s *Store) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}
