// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg finds the server's config file when --config is not given,
// following the XDG Base Directory layout.
package xdg

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
)

const (
	appName    = "mudss13"
	configName = "config.yaml"
)

// ConfigCandidates lists where a config file may live, most specific first:
// the user's XDG_CONFIG_HOME (or ~/.config), then each XDG_CONFIG_DIRS entry
// (or /etc/xdg).
func ConfigCandidates() []string {
	home := os.Getenv("XDG_CONFIG_HOME")
	if home == "" {
		home = filepath.Join(os.Getenv("HOME"), ".config")
	}
	dirs := []string{home}

	system := os.Getenv("XDG_CONFIG_DIRS")
	if system == "" {
		system = "/etc/xdg"
	}
	for _, d := range strings.Split(system, string(os.PathListSeparator)) {
		if filepath.IsAbs(d) {
			dirs = append(dirs, d)
		}
	}

	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = filepath.Join(d, appName, configName)
	}
	return out
}

// FindConfig returns the first candidate that exists. When none does it
// returns the user-level path and false.
func FindConfig() (string, bool) {
	candidates := ConfigCandidates()
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, true
		}
	}
	return candidates[0], false
}

// EnsureDir creates path and its parents, private to the server user.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("PERSIST_IO").With("path", path).Wrapf(err, "create directory")
	}
	return nil
}
