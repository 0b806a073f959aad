// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yakuzadave/pymud-ss13/internal/logging"
	"github.com/yakuzadave/pymud-ss13/internal/observability"
	"github.com/yakuzadave/pymud-ss13/internal/station"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

const serviceName = "mudss13"

type serveOptions struct {
	noConsole bool
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd(opts *serveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the station server (default)",
		Long: `Run the station server: telnet and websocket listeners, the tick
scheduler, autosave and, unless --no-console is given, a session on stdin.
Typing quit on the console shuts the server down.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(logging.Setup(serviceName, version, cfg.Log.Format, level, cmd.ErrOrStderr()))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		ready      atomic.Bool
		live       atomic.Pointer[station.Station]
		obsServer  *observability.Server
		stationOpt []station.Option
	)
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr,
			observability.WithReadiness(ready.Load),
			observability.WithStatus(func() any {
				if st := live.Load(); st != nil {
					return st.Status()
				}
				return station.Status{}
			}),
		)
		station.RegisterMetrics(obsServer.Registry())
		stationOpt = append(stationOpt,
			station.WithMetrics(obsServer.Metrics()),
			station.WithRegistry(obsServer.Registry()),
		)
	}

	slog.Info("starting station",
		"host", cfg.Host,
		"port", cfg.Port,
		"ws_port", cfg.WSPort,
		"data_dir", cfg.DataDir,
	)

	st, err := station.New(ctx, cfg, stationOpt...)
	if err != nil {
		errutil.LogError(slog.Default(), "station failed to start", err)
		return err
	}
	live.Store(st)
	if err := st.Listen(); err != nil {
		errutil.LogError(slog.Default(), "failed to bind", err)
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(closeCtx)
		return err
	}

	if obsServer != nil {
		errCh, err := obsServer.Start()
		if err != nil {
			errutil.LogError(slog.Default(), "failed to start observability server", err)
		} else {
			go monitorServerErrors(ctx, st, errCh, "observability")
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := obsServer.Stop(shutdownCtx); err != nil {
					slog.Warn("error stopping observability server", "error", err)
				}
			}()
		}
	}

	if !opts.noConsole {
		go func() {
			if err := st.Console(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				slog.Debug("console ended", "error", err)
			}
		}()
	}

	ready.Store(true)
	err = st.Run(ctx)
	ready.Store(false)
	if err != nil {
		errutil.LogError(slog.Default(), "station stopped with error", err)
	}
	return err
}

// monitorServerErrors shuts the station down when a helper server fails.
func monitorServerErrors(ctx context.Context, st *station.Station, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok || err == nil {
			return
		}
		slog.Error("server error, triggering shutdown", "server", serverName, "error", err)
		st.Shutdown(serverName + " failed")
	case <-ctx.Done():
	}
}
