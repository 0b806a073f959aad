// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/samber/oops"
)

// Error codes raised by dispatch and handlers. Subsystems raise the
// resource and script codes themselves.
const (
	CodeUnknownCommand   = "UNKNOWN_COMMAND"
	CodeInvalidArgs      = "INVALID_ARGS"
	CodePrecondition     = "PRECONDITION"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeAccessDenied     = "ACCESS_DENIED"
	CodeInventoryFull    = "INVENTORY_FULL"
	CodeContainerFull    = "CONTAINER_FULL"
	CodeNotFound         = "NOT_FOUND"
	CodeLocked           = "LOCKED"
	CodeAlreadyPresent   = "ALREADY_PRESENT"
	CodeScriptCompile    = "SCRIPT_COMPILE"
	CodeScriptForbidden  = "SCRIPT_FORBIDDEN"
	CodeScriptRuntime    = "SCRIPT_RUNTIME"
	CodeScriptTimeout    = "SCRIPT_TIMEOUT"
	CodePersistIO        = "PERSIST_IO"
	CodePersistDecode    = "PERSIST_DECODE"
	CodeWorldError       = "WORLD_ERROR"
	CodeRateLimited      = "RATE_LIMITED"
	CodeNoCharacter      = "NO_CHARACTER"
	CodeInvalidName      = "INVALID_NAME"
	CodeHandlerPanic     = "HANDLER_PANIC"
)

// ErrSessionEnded is returned by handlers that closed the caller's session.
var ErrSessionEnded = errors.New("session ended")

// ErrUnknownCommand creates an error for an unknown verb with optional
// close-match suggestions.
func ErrUnknownCommand(cmd string, suggestions ...string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", cmd).
		With("suggestions", suggestions).
		Errorf("unknown command: %s", cmd)
}

// ErrPermissionDenied creates an error for an admin or debug verb used
// without the flag.
func ErrPermissionDenied(cmd string) error {
	return oops.Code(CodePermissionDenied).
		With("command", cmd).
		Errorf("permission denied for command %s", cmd)
}

// ErrInvalidArgs creates an error for invalid arguments.
func ErrInvalidArgs(cmd, usage string) error {
	return oops.Code(CodeInvalidArgs).
		With("command", cmd).
		With("usage", usage).
		Errorf("invalid arguments")
}

// ErrPrecondition creates an error whose message is shown to the player as is.
func ErrPrecondition(message string) error {
	return oops.Code(CodePrecondition).
		With("message", message).
		Errorf("%s", message)
}

// WorldError creates an error for world state issues with a player-facing message.
func WorldError(message string, cause error) error {
	builder := oops.Code(CodeWorldError).With("message", message)
	if cause != nil {
		return builder.Wrap(cause)
	}
	return builder.Errorf("%s", message)
}

// ErrRateLimited creates an error for rate limiting.
func ErrRateLimited(retryAfter time.Duration) error {
	return oops.Code(CodeRateLimited).
		With("retry_after", retryAfter.String()).
		Errorf("Too many commands. Please slow down.")
}

// ErrNoCharacter creates an error when a verb runs without an avatar.
func ErrNoCharacter() error {
	return oops.Code(CodeNoCharacter).
		Errorf("no character associated with session")
}

const genericFailure = "Something went wrong. Try again."

// PlayerMessage extracts a player-facing message from an error.
func PlayerMessage(err error) string {
	if err == nil {
		return genericFailure
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return genericFailure
	}
	ctx := oopsErr.Context()
	if msg, ok := ctx["message"].(string); ok && msg != "" {
		return msg
	}

	switch oopsErr.Code() {
	case CodeUnknownCommand:
		cmd, _ := ctx["command"].(string)
		if s, ok := ctx["suggestions"].([]string); ok && len(s) > 0 {
			return "Unknown command '" + cmd + "'. Did you mean: " + strings.Join(s, ", ") + "?"
		}
		return "Unknown command '" + cmd + "'. Type 'help' for a list of commands."
	case CodePermissionDenied:
		return "You don't have permission to do that."
	case CodeAccessDenied:
		return "Access denied."
	case CodeInvalidArgs:
		if usage, ok := ctx["usage"].(string); ok && usage != "" {
			return "Usage: " + usage
		}
		return sentence(oopsErr.Error())
	case CodePrecondition, CodeInventoryFull, CodeContainerFull, CodeNotFound, CodeLocked, CodeAlreadyPresent:
		return sentence(oopsErr.Error())
	case CodeScriptCompile, CodeScriptForbidden, CodeScriptRuntime:
		return "Script error: " + oopsErr.Error()
	case CodeScriptTimeout:
		return "Script timed out."
	case CodeRateLimited:
		return "Too many commands. Please slow down."
	case CodeNoCharacter:
		return "You have no body in this world yet."
	case CodePersistIO, CodePersistDecode, CodeHandlerPanic, "":
		return genericFailure
	default:
		return sentence(oopsErr.Error())
	}
}

// sentence capitalises msg and ends it with a full stop.
func sentence(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return genericFailure
	}
	r := []rune(msg)
	r[0] = unicode.ToUpper(r[0])
	msg = string(r)
	if !strings.ContainsAny(msg[len(msg)-1:], ".!?") {
		msg += "."
	}
	return msg
}
