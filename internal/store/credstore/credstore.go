// Package credstore keeps the destinai session cookie between runs.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	credFileName = "credentials.json"
	// EnvSession overrides the stored session when set.
	EnvSession = "DESTINAI_SESSION"

	SourceEnv  = "env"
	SourceFile = "file"
)

var ErrEmptyToken = errors.New("empty session token")

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when it was saved to file
	ExpiresAt *time.Time `json:"expires_at"` // cookie expiry, if the server sent one
}

// Expired reports whether the token carries an expiry that is in the past.
func (t *TokenInfo) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// Store reads and writes <dir>/credentials.json.
type Store struct {
	dir    string
	getenv func(string) string
	now    func() time.Time
}

func New(dir string) *Store {
	return &Store{dir: dir, getenv: os.Getenv, now: time.Now}
}

func (s *Store) Path() string { return filepath.Join(s.dir, credFileName) }

// Get returns the session, or nil when not logged in. The environment
// variable wins over the file.
func (s *Store) Get() (*TokenInfo, error) {
	if env := strings.TrimSpace(s.getenv(EnvSession)); env != "" {
		return &TokenInfo{Token: stripCookieName(env), Source: SourceEnv}, nil
	}

	b, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripCookieName(ti.Token)
	if ti.Token == "" {
		return nil, nil
	}
	return &ti, nil
}

func (s *Store) Set(token string, expires *time.Time) error {
	token = stripCookieName(strings.TrimSpace(token))
	if token == "" {
		return ErrEmptyToken
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	ti := TokenInfo{
		Token:     token,
		Source:    SourceFile,
		CreatedAt: s.now().UTC(),
		ExpiresAt: expires,
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	// owner-only
	if err := os.WriteFile(s.Path(), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (s *Store) Delete() error {
	if err := os.Remove(s.Path()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// stripCookieName accepts a pasted "destinai_session=<value>" pair.
func stripCookieName(s string) string {
	s = strings.TrimSpace(s)
	if name, value, ok := strings.Cut(s, "="); ok && strings.EqualFold(name, "destinai_session") {
		return strings.TrimSpace(value)
	}
	return s
}
