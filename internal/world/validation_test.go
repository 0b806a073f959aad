// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	for _, id := range []string{"bridge", "engineering_door", "npc.chef", "grid:main", "1st-aid", "a"} {
		assert.NoError(t, ValidateID(id), id)
	}
	for _, id := range []string{"", "Bridge", "_hidden", "-x", "a b", "../etc/passwd", "med/bay", strings.Repeat("a", MaxIDLength+1)} {
		var fe *FieldError
		require.ErrorAs(t, ValidateID(id), &fe, id)
		assert.Equal(t, "id", fe.Field)
	}
}

func TestCleanCharacterName(t *testing.T) {
	cases := map[string]string{
		"jOhN sMiTh":    "John Smith",
		"  ian   ":      "Ian",
		"zoë  o":        "Zoë O",
		"renée dubois":  "Renée Dubois",
	}
	for raw, want := range cases {
		got, err := CleanCharacterName(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "   ", "x", "R2D2", "o'neil", strings.Repeat("ab ", 12)} {
		_, err := CleanCharacterName(raw)
		assert.Error(t, err, raw)
	}
}

func TestCharacterID(t *testing.T) {
	assert.Equal(t, "jane_doe", CharacterID("Jane  Doe"))
	assert.Equal(t, "alice", CharacterID("alice"))
}

func TestValidateRecord(t *testing.T) {
	ok := EntityRecord{ID: "medbay", Name: "Medbay", Description: "Beds line the walls.\n\tIt smells of bleach."}
	require.NoError(t, ValidateRecord(ok))

	bad := []EntityRecord{
		{ID: "Medbay", Name: "Medbay"},
		{ID: "medbay", Name: "Med\nbay"},
		{ID: "medbay", Name: strings.Repeat("m", MaxNameLength+1)},
		{ID: "medbay", Name: "Medbay", Description: "bell\a"},
		{ID: "medbay", Name: "Medbay", Description: "\xff"},
	}
	for _, rec := range bad {
		assert.Error(t, ValidateRecord(rec), "%+v", rec)
	}
}
