// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yakuzadave/pymud-ss13/internal/auth"
	"github.com/yakuzadave/pymud-ss13/internal/station"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// NewAccountCmd creates the account subcommand group.
func NewAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage player accounts",
		Long:  `Create accounts and grant or revoke admin rights in the data directory's accounts.yaml.`,
	}
	cmd.AddCommand(newAccountCreateCmd())
	cmd.AddCommand(newAccountAdminCmd())
	cmd.AddCommand(newAccountListCmd())
	cmd.AddCommand(newAccountCharacterCmd())
	return cmd
}

func openAccounts(cmd *cobra.Command) (*auth.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return auth.Open(filepath.Join(cfg.DataDir, station.AccountsFile))
}

func newAccountCreateCmd() *cobra.Command {
	var admin bool
	cmd := &cobra.Command{
		Use:   "create <username> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openAccounts(cmd)
			if err != nil {
				return err
			}
			if err := store.Create(args[0], args[1], admin); err != nil {
				return err
			}
			cmd.Printf("Created account %s", args[0])
			if admin {
				cmd.Print(" (admin)")
			}
			cmd.Println()
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "grant admin rights")
	return cmd
}

func newAccountAdminCmd() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "admin <username>",
		Short: "Grant admin rights to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openAccounts(cmd)
			if err != nil {
				return err
			}
			if err := store.SetAdmin(args[0], !revoke); err != nil {
				return err
			}
			if revoke {
				cmd.Printf("Revoked admin from %s\n", args[0])
			} else {
				cmd.Printf("Granted admin to %s\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "remove admin rights instead")
	return cmd
}

func newAccountListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openAccounts(cmd)
			if err != nil {
				return err
			}
			for _, name := range store.Usernames() {
				role := "crew"
				if store.IsAdmin(name) {
					role = "admin"
				}
				cmd.Printf("%-20s %s\n", name, role)
			}
			return nil
		},
	}
}

func newAccountCharacterCmd() *cobra.Command {
	var job string
	cmd := &cobra.Command{
		Use:   "character <username> <name...>",
		Short: "Set the crew name and job an account plays as",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := world.CleanCharacterName(strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			store, err := openAccounts(cmd)
			if err != nil {
				return err
			}
			if err := store.SetCharacter(args[0], auth.Character{Name: name, Job: job}); err != nil {
				return err
			}
			cmd.Printf("%s now plays %s", args[0], name)
			if job != "" {
				cmd.Printf(", %s", job)
			}
			cmd.Println()
			return nil
		},
	}
	cmd.Flags().StringVar(&job, "job", "", "job title, e.g. engineer")
	return cmd
}
