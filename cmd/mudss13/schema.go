// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/yakuzadave/pymud-ss13/internal/persistence"
	"github.com/yakuzadave/pymud-ss13/internal/xdg"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <dir>",
		Short: "Write JSON Schemas for the data files",
		Long: `Write one <file>.schema.json per data table (random events, recipes,
power grids and so on) into dir. Editors can use them to validate data files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := xdg.EnsureDir(args[0]); err != nil {
				return err
			}
			paths, err := persistence.WriteSchemas(args[0])
			if err != nil {
				return err
			}
			for _, p := range paths {
				cmd.Printf("Generated %s\n", p)
			}
			return nil
		},
	}
}
