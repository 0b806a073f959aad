// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

func TestValidateCommandName_Accepts(t *testing.T) {
	for _, name := range []string{"look", "l", "@wall", "power_status", "say?"} {
		assert.NoError(t, ValidateCommandName(name), name)
	}
	assert.NoError(t, ValidateCommandName(strings.Repeat("a", MaxNameLength)))
	assert.NoError(t, ValidateCommandName("@"+strings.Repeat("a", MaxNameLength)), "the @ mark is not counted")
}

func TestValidateCommandName_Rejects(t *testing.T) {
	for _, name := range []string{
		"", "   ", "@", "@@wall", "+who", "123go", "Look", "go north",
		strings.Repeat("a", MaxNameLength+1),
	} {
		errutil.AssertErrorCode(t, ValidateCommandName(name), CodeInvalidName)
	}

	err := ValidateCommandName(strings.Repeat("x", 30))
	errutil.AssertErrorContext(t, err, "max", MaxNameLength)
	errutil.AssertErrorContext(t, err, "length", 30)
}

func TestValidateAliasName(t *testing.T) {
	assert.NoError(t, ValidateAliasName("GoHome"))
	assert.NoError(t, ValidateAliasName("n2"))

	for _, name := range []string{"1look", "'", "@x", "gö"} {
		err := ValidateAliasName(name)
		errutil.AssertErrorCode(t, err, CodeInvalidName)
		errutil.AssertErrorContext(t, err, "kind", "alias")
	}
}
