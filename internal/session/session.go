// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session persists the access/refresh credential pair in a directory
// of plain-text files. Each file holds one token: the filename is the key and
// the trimmed contents are the value.
//
// Files: access-token, refresh-token.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	accessTokenFile  = "access-token"
	refreshTokenFile = "refresh-token"
)

// Tokens is the credential pair issued by the backend.
type Tokens struct {
	Access  string
	Refresh string
}

// Store is the explicit credential holder passed to the HTTP client. It keeps
// an in-memory copy guarded by a mutex and writes through to dir on Save and
// Clear. A Store with an empty dir is memory-only.
type Store struct {
	mu     sync.Mutex
	dir    string
	tokens Tokens
}

// Open loads tokens from dir. A missing directory or missing files are not
// errors; Open returns an empty store.
func Open(dir string) (*Store, error) {
	s := &Store{dir: dir}
	if dir == "" {
		return s, nil
	}
	values, err := readDir(dir)
	if err != nil {
		return nil, err
	}
	s.tokens = Tokens{
		Access:  values[accessTokenFile],
		Refresh: values[refreshTokenFile],
	}
	return s, nil
}

// NewMemory returns a store that never touches disk, seeded with t.
func NewMemory(t Tokens) *Store {
	return &Store{tokens: t}
}

// Tokens returns the current credential pair.
func (s *Store) Tokens() Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// HasAccessToken reports whether an access token is present.
func (s *Store) HasAccessToken() bool {
	return s.Tokens().Access != ""
}

// Save replaces both tokens in memory and on disk.
func (s *Store) Save(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o700); err != nil {
			return fmt.Errorf("creating session directory %s: %w", s.dir, err)
		}
		if err := writeFile(s.dir, accessTokenFile, t.Access); err != nil {
			return err
		}
		if err := writeFile(s.dir, refreshTokenFile, t.Refresh); err != nil {
			return err
		}
	}
	s.tokens = t
	return nil
}

// Clear forgets both tokens and removes their files.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = Tokens{}
	if s.dir == "" {
		return nil
	}
	for _, name := range []string{accessTokenFile, refreshTokenFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", name, err)
		}
	}
	return nil
}

// readDir reads all files in dir and returns a map of filename to trimmed
// contents. Dotfiles, subdirectories and empty files are skipped. Unreadable
// files produce a warning on stderr but do not abort.
func readDir(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading session directory %s: %w", dir, err)
	}

	values := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			values[name] = value
		}
	}
	return values, nil
}

// writeFile replaces dir/name atomically with value, mode 0600. An empty
// value removes the file.
func writeFile(dir, name, value string) error {
	path := filepath.Join(dir, name)
	if value == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", name, err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.WriteString(value + "\n")
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", name, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
