// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

// Error codes returned by this package.
const (
	CodeEmptyPassword      = "AUTH_EMPTY_PASSWORD"
	CodeSaltFailed         = "AUTH_SALT_FAILED"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeAccountExists      = "AUTH_ACCOUNT_EXISTS"
	CodeAccountNotFound    = "AUTH_ACCOUNT_NOT_FOUND"
	CodeInvalidUsername    = "AUTH_INVALID_USERNAME"
	CodeLockedOut          = "AUTH_LOCKED_OUT"
	CodeTooFast            = "AUTH_TOO_FAST"
	CodeStoreIO            = "PERSIST_IO"
	CodeStoreDecode        = "PERSIST_DECODE"
)
