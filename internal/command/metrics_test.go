// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTally_FoldsUnknownVerbs(t *testing.T) {
	unknown := CommandExecutions.WithLabelValues("unknown", "core", StatusNotFound)
	before := testutil.ToFloat64(unknown)

	s := newTally()
	s.name("xyzzy", "core")
	s.outcome(StatusNotFound)
	s.flush()

	assert.Equal(t, before+1, testutil.ToFloat64(unknown))
	assert.Zero(t, testutil.ToFloat64(CommandExecutions.WithLabelValues("xyzzy", "core", StatusNotFound)))
}

func TestTally_SkipsUnnamedDispatch(t *testing.T) {
	before := testutil.CollectAndCount(CommandExecutions)
	newTally().flush()
	assert.Equal(t, before, testutil.CollectAndCount(CommandExecutions))
}
