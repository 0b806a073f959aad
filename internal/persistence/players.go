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
	"gopkg.in/yaml.v3"

	"github.com/yakuzadave/pymud-ss13/internal/world"
)

const playerDir = "players"

func (s *Store) playerPath(id string) (string, error) {
	if err := world.ValidateID(id); err != nil {
		return "", oops.Code(CodeDecode).With("player_id", id).Wrap(err)
	}
	return s.Path(playerDir, id+".yaml"), nil
}

// SavePlayer writes e to players/<id>.yaml.
func (s *Store) SavePlayer(e *world.Entity) error {
	path, err := s.playerPath(e.ID)
	if err != nil {
		return err
	}
	rec, err := world.EncodeEntity(e)
	if err != nil {
		return err
	}
	return s.writeFile(context.Background(), path, func(w io.Writer) error {
		return encodeYAML(w, rec)
	})
}

// LoadPlayer reads a saved player. The entity is not registered.
func (s *Store) LoadPlayer(id string) (*world.Entity, bool, error) {
	path, err := s.playerPath(id)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, oops.Code(CodeIO).With("path", path).Wrap(err)
	}
	var rec world.EntityRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, false, oops.Code(CodeDecode).With("path", path).Wrap(err)
	}
	e, err := s.reg.DecodeEntity(rec)
	if err != nil {
		return nil, false, oops.With("path", path).Wrap(err)
	}
	return e, true, nil
}
