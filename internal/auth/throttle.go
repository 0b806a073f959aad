// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"time"

	"github.com/samber/oops"
)

// Login throttling. The first failure costs one second before the next try,
// each further failure doubles it up to maxBackoff, and LockoutThreshold
// failures in a row lock the account for LockoutDuration.
const (
	LockoutThreshold = 7
	LockoutDuration  = 15 * time.Minute
	maxBackoff       = 32 * time.Second
)

// Backoff is the wait imposed after the given number of consecutive failures.
func Backoff(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	d := time.Second
	for i := 1; i < failures && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

// Locked reports whether the account refuses logins at now.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// admit returns an error when a login attempt at now must be refused before
// the password is even looked at.
func (a *Account) admit(username string, now time.Time) error {
	if a.Locked(now) {
		return oops.Code(CodeLockedOut).
			With("username", username).
			With("remaining", a.LockedUntil.Sub(now).Round(time.Second)).
			With("message", "This account is locked. Try again later.").
			Errorf("account %s locked", username)
	}
	if a.LastFailure != nil && now.Before(a.LastFailure.Add(Backoff(a.Failures))) {
		return oops.Code(CodeTooFast).
			With("username", username).
			With("message", "Too many attempts. Wait a moment and try again.").
			Errorf("login attempt for %s inside backoff", username)
	}
	return nil
}

// fail records a wrong password at now.
func (a *Account) fail(now time.Time) {
	a.Failures++
	a.LastFailure = &now
	if a.Failures >= LockoutThreshold {
		until := now.Add(LockoutDuration)
		a.LockedUntil = &until
	}
}

// clear forgets past failures and reports whether there were any.
func (a *Account) clear() bool {
	dirty := a.Failures > 0 || a.LockedUntil != nil
	a.Failures, a.LastFailure, a.LockedUntil = 0, nil, nil
	return dirty
}
