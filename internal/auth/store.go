// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{2,19}$`)

// Character is the saved character sheet for an account.
type Character struct {
	Name string `yaml:"name,omitempty"`
	Job  string `yaml:"job,omitempty"`
}

// Account is one entry of accounts.yaml, keyed by username.
type Account struct {
	Salt          string     `yaml:"salt"`
	PassHash      string     `yaml:"passhash"`
	Administrator bool       `yaml:"administrator"`
	Character     *Character `yaml:"character,omitempty"`
	Failures      int        `yaml:"failed_attempts,omitempty"`
	LastFailure   *time.Time `yaml:"last_failure,omitempty"`
	LockedUntil   *time.Time `yaml:"locked_until,omitempty"`
}

// Store is the accounts.yaml file held in memory. Every mutation is written
// back before it returns.
type Store struct {
	path     string
	hasher   PasswordHasher
	now      func() time.Time
	mu       sync.Mutex
	accounts map[string]*Account
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces time.Now for rate limiting.
func WithClock(now func() time.Time) StoreOption { return func(s *Store) { s.now = now } }

// WithHasher replaces the default SHA-256 hasher.
func WithHasher(h PasswordHasher) StoreOption { return func(s *Store) { s.hasher = h } }

// Open loads the accounts file at path. A missing file is an empty store.
func Open(path string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		path:     path,
		hasher:   NewSHA256Hasher(),
		now:      time.Now,
		accounts: make(map[string]*Account),
	}
	for _, o := range opts {
		o(s)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, oops.Code(CodeStoreIO).With("path", path).Wrap(err)
	}
	if err := yaml.Unmarshal(data, &s.accounts); err != nil {
		return nil, oops.Code(CodeStoreDecode).With("path", path).Wrap(err)
	}
	if s.accounts == nil {
		s.accounts = make(map[string]*Account)
	}
	return s, nil
}

// ValidateUsername checks the account name format.
func ValidateUsername(name string) error {
	if !usernamePattern.MatchString(name) {
		return oops.Code(CodeInvalidUsername).
			With("username", name).
			With("message", "Usernames are 3-20 letters, digits or underscores and start with a letter.").
			Errorf("invalid username %q", name)
	}
	return nil
}

// Create adds an account. It fails if the username is taken.
func (s *Store) Create(username, password string, admin bool) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	salt, hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[username]; ok {
		return oops.Code(CodeAccountExists).
			With("username", username).
			With("message", "That name is already taken.").
			Errorf("account %s exists", username)
	}
	s.accounts[username] = &Account{Salt: salt, PassHash: hash, Administrator: admin}
	if err := s.saveLocked(); err != nil {
		delete(s.accounts, username)
		return err
	}
	slog.Info("account created", "username", username, "admin", admin)
	return nil
}

// Authenticate verifies a password. Wrong passwords are throttled by
// Backoff and eventually lock the account; unknown users and wrong passwords look the same.
func (s *Store) Authenticate(username, password string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[username]
	if !ok {
		return Account{}, errInvalidCredentials(username)
	}

	now := s.now()
	if err := acct.admit(username, now); err != nil {
		return Account{}, err
	}

	if !s.hasher.Verify(password, acct.Salt, acct.PassHash) {
		acct.fail(now)
		if err := s.saveLocked(); err != nil {
			slog.Warn("failed to record login failure", "username", username, "error", err)
		}
		return Account{}, errInvalidCredentials(username)
	}

	if acct.clear() {
		if err := s.saveLocked(); err != nil {
			slog.Warn("failed to reset login failures", "username", username, "error", err)
		}
	}
	return *acct, nil
}

func errInvalidCredentials(username string) error {
	return oops.Code(CodeInvalidCredentials).
		With("username", username).
		With("message", "Invalid username or password.").
		Errorf("invalid credentials")
}

// Exists reports whether username has an account.
func (s *Store) Exists(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[username]
	return ok
}

// IsAdmin reports the account's administrator flag.
func (s *Store) IsAdmin(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[username]
	return ok && acct.Administrator
}

// SetAdmin sets the administrator flag.
func (s *Store) SetAdmin(username string, admin bool) error {
	return s.update(username, func(a *Account) { a.Administrator = admin })
}

// SetCharacter saves the character sheet for username.
func (s *Store) SetCharacter(username string, c Character) error {
	return s.update(username, func(a *Account) { a.Character = &c })
}

// Character returns the saved character sheet, if any.
func (s *Store) Character(username string) (Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[username]
	if !ok || acct.Character == nil {
		return Character{}, false
	}
	return *acct.Character, true
}

// Usernames returns every account name, sorted.
func (s *Store) Usernames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.accounts))
	for name := range s.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) update(username string, fn func(*Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[username]
	if !ok {
		return oops.Code(CodeAccountNotFound).
			With("username", username).
			With("message", "No account named '"+username+"'.").
			Errorf("account %s not found", username)
	}
	fn(acct)
	return s.saveLocked()
}

// saveLocked writes the file through a temp file and rename.
func (s *Store) saveLocked() error {
	data, err := yaml.Marshal(s.accounts)
	if err != nil {
		return oops.Code(CodeStoreIO).With("path", s.path).Wrap(err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return oops.Code(CodeStoreIO).With("path", dir).Wrap(err)
	}
	tmp, err := os.CreateTemp(dir, ".accounts-*.yaml")
	if err != nil {
		return oops.Code(CodeStoreIO).With("path", dir).Wrap(err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return oops.Code(CodeStoreIO).With("path", tmp.Name()).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return oops.Code(CodeStoreIO).With("path", tmp.Name()).Wrap(err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return oops.Code(CodeStoreIO).With("path", s.path).Wrap(err)
	}
	return nil
}
