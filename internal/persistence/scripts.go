// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persistence

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/script"
)

// ScriptsFile holds scripted verbs between restarts.
const ScriptsFile = "scripts.yaml"

// LoadScripts restores scripts.yaml into reg.
func (s *Store) LoadScripts(reg *script.Registry) (int, error) {
	path := s.Path(ScriptsFile)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, oops.Code(CodeIO).With("path", path).Wrap(err)
	}
	defer func() { _ = f.Close() }()
	n, err := reg.Load(f)
	if err != nil {
		return 0, oops.With("path", path).Wrap(err)
	}
	return n, nil
}

// SaveScripts writes every registered script to scripts.yaml.
func (s *Store) SaveScripts(ctx context.Context, reg *script.Registry) error {
	return s.writeFile(ctx, s.Path(ScriptsFile), func(w io.Writer) error {
		return reg.Save(w)
	})
}
