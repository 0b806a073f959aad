// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Record limits.
const (
	MaxIDLength          = 64
	MaxNameLength        = 100
	MaxDescriptionLength = 4000

	MinCharacterNameLength = 2
	MaxCharacterNameLength = 32
)

// FieldError rejects one field of a record or name. Callers wrap it with
// their own error code.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Reason }

func invalid(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ValidateID checks that id is a lowercase slug: a letter or digit, then
// letters, digits and _ . : - only. Ids double as file names for players.
func ValidateID(id string) error {
	switch {
	case id == "":
		return invalid("id", "cannot be empty")
	case len(id) > MaxIDLength:
		return invalid("id", "longer than %d bytes", MaxIDLength)
	}
	for i, r := range id {
		slug := r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
		if !slug && (i == 0 || !strings.ContainsRune("_.:-", r)) {
			return invalid("id", "%q is not a lowercase slug", id)
		}
	}
	return nil
}

// CharacterID derives the entity id of a character name: "Jane Doe" is
// "jane_doe".
func CharacterID(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

// CleanCharacterName validates a crew member's name and returns it in
// Initial Caps. Names are letters in words separated by single spaces.
func CleanCharacterName(raw string) (string, error) {
	words := strings.Fields(raw)
	if len(words) == 0 {
		return "", invalid("name", "cannot be empty")
	}
	for i, w := range words {
		for _, r := range w {
			if !unicode.IsLetter(r) {
				return "", invalid("name", "only letters and spaces are allowed")
			}
		}
		rs := []rune(strings.ToLower(w))
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	name := strings.Join(words, " ")
	if n := utf8.RuneCountInString(name); n < MinCharacterNameLength || n > MaxCharacterNameLength {
		return "", invalid("name", "must be %d to %d characters", MinCharacterNameLength, MaxCharacterNameLength)
	}
	return name, nil
}

// validateText checks free text from a data file. Descriptions may span
// lines and use tabs; names may not.
func validateText(field, s string, limit int, multiline bool) error {
	if !utf8.ValidString(s) {
		return invalid(field, "not valid UTF-8")
	}
	if len(s) > limit {
		return invalid(field, "longer than %d bytes", limit)
	}
	for _, r := range s {
		if unicode.IsControl(r) && !(multiline && (r == '\n' || r == '\t')) {
			return invalid(field, "contains control character %U", r)
		}
	}
	return nil
}

// ValidateRecord checks the identity fields of an entity record before it
// is decoded.
func ValidateRecord(rec EntityRecord) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}
	if err := validateText("name", rec.Name, MaxNameLength, false); err != nil {
		return err
	}
	return validateText("description", rec.Description, MaxDescriptionLength, true)
}
