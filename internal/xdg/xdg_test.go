// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

func TestConfigCandidates(t *testing.T) {
	t.Setenv("HOME", "/home/crew")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_DIRS", "")
	assert.Equal(t, []string{
		"/home/crew/.config/mudss13/config.yaml",
		"/etc/xdg/mudss13/config.yaml",
	}, ConfigCandidates())

	t.Setenv("XDG_CONFIG_HOME", "/custom")
	t.Setenv("XDG_CONFIG_DIRS", "/opt/station"+string(os.PathListSeparator)+"relative/ignored")
	assert.Equal(t, []string{
		"/custom/mudss13/config.yaml",
		"/opt/station/mudss13/config.yaml",
	}, ConfigCandidates())
}

func TestFindConfig(t *testing.T) {
	user, system := t.TempDir(), t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", user)
	t.Setenv("XDG_CONFIG_DIRS", system)

	path, ok := FindConfig()
	assert.False(t, ok)
	assert.Equal(t, filepath.Join(user, "mudss13", "config.yaml"), path, "falls back to the user path")

	sysFile := filepath.Join(system, "mudss13", "config.yaml")
	require.NoError(t, EnsureDir(filepath.Dir(sysFile)))
	require.NoError(t, os.WriteFile(sysFile, []byte("port: 4000\n"), 0o600))
	path, ok = FindConfig()
	assert.True(t, ok)
	assert.Equal(t, sysFile, path)

	userFile := filepath.Join(user, "mudss13", "config.yaml")
	require.NoError(t, EnsureDir(filepath.Dir(userFile)))
	require.NoError(t, os.WriteFile(userFile, []byte("port: 5000\n"), 0o600))
	path, _ = FindConfig()
	assert.Equal(t, userFile, path, "the user file wins")
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas", "v1")
	require.NoError(t, EnsureDir(path))
	require.NoError(t, EnsureDir(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	errutil.AssertErrorCode(t, EnsureDir(filepath.Join(blocker, "sub")), "PERSIST_IO")
}
