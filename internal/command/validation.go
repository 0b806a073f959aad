// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"strings"

	"github.com/samber/oops"
)

// MaxNameLength bounds verb and alias names, not counting a leading '@'.
const MaxNameLength = 20

const nameSymbols = "_!?#$%^+-"

// nameRule describes which spellings a kind of name accepts.
type nameRule struct {
	kind      string
	adminMark bool // a single leading '@' is allowed
	upper     bool // capitals are allowed
}

var (
	verbRule  = nameRule{kind: "command", adminMark: true}
	aliasRule = nameRule{kind: "alias", upper: true}
)

// ValidateCommandName checks a verb name: lowercase, starting with a letter,
// optionally behind one '@' for builder and admin verbs.
func ValidateCommandName(name string) error { return verbRule.check(name) }

// ValidateAliasName checks a per-session alias. Aliases may use capitals but
// never the '@' mark.
func ValidateAliasName(name string) error { return aliasRule.check(name) }

func (r nameRule) check(raw string) error {
	name := strings.TrimSpace(raw)
	body := name
	if r.adminMark {
		body = strings.TrimPrefix(name, "@")
	}

	switch {
	case body == "":
		return r.reject(name, "%s name cannot be empty", r.kind)
	case len(body) > MaxNameLength:
		return oops.Code(CodeInvalidName).
			With("kind", r.kind).
			With("length", len(body)).
			With("max", MaxNameLength).
			Errorf("%s name is longer than %d characters", r.kind, MaxNameLength)
	}

	for i, c := range body {
		letter := c >= 'a' && c <= 'z' || r.upper && c >= 'A' && c <= 'Z'
		if i == 0 && !letter {
			return r.reject(name, "%s name must start with a letter", r.kind)
		}
		if !letter && !(c >= '0' && c <= '9') && !strings.ContainsRune(nameSymbols, c) {
			return r.reject(name, "%s name may only use letters, digits and %s", r.kind, nameSymbols)
		}
	}
	return nil
}

func (r nameRule) reject(name, format string, args ...any) error {
	return oops.Code(CodeInvalidName).
		With("kind", r.kind).
		With("name", name).
		Errorf(format, args...)
}
