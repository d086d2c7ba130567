// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/mediabutton/internal/hooks"
	"github.com/holomush/mediabutton/internal/host"
	"github.com/holomush/mediabutton/internal/mediabutton"
	"github.com/holomush/mediabutton/internal/observability"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 5 * time.Second

var errNotStarted = errors.New("ingress not started")

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the click ingress server",
		Long: `Run the click ingress HTTP server with the media button component and
any binary plugins found in the plugins directory. Metrics and health
checks are served on the metrics address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cmd, cfg)

	slog.InfoContext(ctx, "starting mediabutton",
		"http_addr", cfg.HTTPAddr,
		"metrics_addr", cfg.MetricsAddr,
		"plugins_dir", cfg.PluginsDir,
	)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		readiness := func(ctx context.Context) error {
			if !ready.Load() {
				return errNotStarted
			}
			return a.checkStore(ctx)
		}
		obsServer = observability.NewServer(cfg.MetricsAddr, readiness,
			hooks.RegisterMetrics,
			host.RegisterMetrics,
			mediabutton.RegisterMetrics,
		)
		metrics = obsServer.Metrics()
		metrics.PluginsLoaded.Set(float64(a.pluginCount()))

		obsErr, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErr, "observability")
	}

	ingress := host.NewServer(cfg.HTTPAddr, host.NewHandler(a.host, metrics))
	ingressErr, err := ingress.Start()
	if err != nil {
		stopServer(obsServer)
		return oops.With("operation", "start ingress server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, ingressErr, "ingress")

	ready.Store(true)
	cmd.Println("mediabutton started")
	slog.InfoContext(ctx, "mediabutton ready",
		"ingress_addr", ingress.Addr(),
		"plugins", a.pluginCount(),
	)

	<-ctx.Done()
	ready.Store(false)
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := ingress.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping ingress server", "error", err)
	}
	stopServer(obsServer)

	slog.Info("shutdown complete")
	return nil
}

func stopServer(s *observability.Server) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels the context when a server reports an error.
// It exits when an error is received, the channel is closed, or the
// context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
