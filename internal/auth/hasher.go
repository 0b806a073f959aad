// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth stores player accounts and verifies their passwords.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/samber/oops"
)

// saltLen is the number of random salt bytes, stored hex encoded.
const saltLen = 8

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code(CodeEmptyPassword).Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash returns a fresh salt and the hash of password under it.
	Hash(password string) (salt, hash string, err error)

	// Verify reports whether password hashes to hash under salt.
	Verify(password, salt, hash string) bool
}

// SHA256Hasher hashes hex(SHA-256(salt || password)). This is the format
// existing accounts.yaml files use.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// Hash produces a random salt and the salted hash of the password.
func (h *SHA256Hasher) Hash(password string) (string, string, error) {
	if password == "" {
		return "", "", ErrEmptyPassword
	}

	buf := make([]byte, saltLen)
	if _, err := rand.Read(buf); err != nil {
		return "", "", oops.Code(CodeSaltFailed).Wrap(err)
	}
	salt := hex.EncodeToString(buf)
	return salt, digest(salt, password), nil
}

// Verify compares in constant time.
func (h *SHA256Hasher) Verify(password, salt, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(digest(salt, password)), []byte(hash)) == 1
}

func digest(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}
