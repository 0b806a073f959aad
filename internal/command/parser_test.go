// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	cases := map[string]Line{
		"look":                  {Verb: "look"},
		"   look   ":            {Verb: "look"},
		"LOOK North":            {Verb: "look", Args: "North"},
		"say   hello    world ": {Verb: "say", Args: "hello    world"},
		"say\tcafé":             {Verb: "say", Args: "café"},
		"@wall power is out":    {Verb: "@wall", Args: "power is out"},
	}
	for input, want := range cases {
		got, ok := ParseLine(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	for _, blank := range []string{"", " \t "} {
		_, ok := ParseLine(blank)
		assert.False(t, ok, "%q", blank)
	}
}

func TestSplitPrep(t *testing.T) {
	tests := []struct {
		args, left, right string
		ok                bool
	}{
		{"wrench in locker", "wrench", "locker", true},
		{"red  toolbox INTO the locker", "red toolbox", "the locker", true},
		{"syringe on bob", "syringe", "bob", true},
		{"in locker", "in locker", "", false},
		{"wrench", "wrench", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			left, right, ok := SplitPrep(tt.args, "in", "into", "on")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.left, left)
			assert.Equal(t, tt.right, right)
		})
	}
}
