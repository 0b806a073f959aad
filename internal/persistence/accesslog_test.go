// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persistence_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/persistence"
	"github.com/yakuzadave/pymud-ss13/internal/systems/security"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

func TestAccessLog_RecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), persistence.AccessLogFile)
	log, err := persistence.OpenAccessLog(path)
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range []string{"open", "close", "lock"} {
		require.NoError(t, log.Record(ctx, security.AccessEntry{
			Time: base.Add(time.Duration(i) * time.Second), DoorID: "door_bridge",
			PlayerID: "alice", Action: action, RoomID: "bridge",
		}))
	}

	got, err := log.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "close", got[0].Action)
	assert.Equal(t, "lock", got[1].Action)
	assert.True(t, got[1].Time.Equal(base.Add(2*time.Second)))
	require.NoError(t, log.Close())

	errutil.AssertErrorCode(t, log.Record(ctx, security.AccessEntry{DoorID: "late"}), persistence.CodeIO)
	require.NoError(t, log.Close())

	reopened, err := persistence.OpenAccessLog(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	all, err := reopened.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAccessLog_FeedsSecuritySystem(t *testing.T) {
	var _ security.AccessLog = (*persistence.AccessLog)(nil)
}
