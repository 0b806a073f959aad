// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/yakuzadave/pymud-ss13/internal/config"
	"github.com/yakuzadave/pymud-ss13/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command. Without a subcommand it runs serve.
func NewRootCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "mudss13",
		Short: "Multi-user space station roleplay server",
		Long: `mudss13 runs a text-driven space station simulation. Crew connect
over telnet or websocket and share one world whose power, air, disease,
plants, plumbing and supply economy advance on a tick scheduler.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: first mudss13/config.yaml under the XDG config dirs)")
	config.BindFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().BoolVar(&opts.noConsole, "no-console", false, "do not attach a session to stdin")

	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewAccountCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// loadConfig reads the file named by --config, or the first XDG config file
// found, and applies the flags changed on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile, true, cmd.Flags())
	}
	path, _ := xdg.FindConfig()
	return config.Load(path, false, cmd.Flags())
}
