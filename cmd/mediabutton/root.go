// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/mediabutton/internal/config"
	"github.com/holomush/mediabutton/internal/logging"
	"github.com/holomush/mediabutton/internal/xdg"
)

// serviceName identifies this process in logs.
const serviceName = "mediabutton"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the mediabutton CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mediabutton",
		Short: "Media button component host",
		Long: `mediabutton hosts clickable media buttons: clicking a button object
switches the nearest (or a named) media player to the button's video.
Components run in process or as go-plugin binary plugins.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/mediabutton/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewClickCmd())
	cmd.AddCommand(NewSettingsCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSchemaCmd())
	cmd.AddCommand(NewPluginsCmd())

	return cmd
}

// loadConfig reads configuration for cmd. An explicit --config file must
// exist; the XDG default is optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, optional := configFile, false
	if path == "" {
		optional = true
		if p, err := xdg.ConfigFile(); err == nil {
			path = p
		}
	}

	cfg, err := config.Load(path, optional, cmd.Flags())
	if err != nil {
		return nil, err //nolint:wrapcheck // carries CONFIG_INVALID
	}
	if err := cfg.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // carries CONFIG_INVALID
	}
	return cfg, nil
}

// setupLogging installs the default logger for cfg. Validate has already
// checked the level.
func setupLogging(cmd *cobra.Command, cfg *config.Config) {
	level, _ := logging.ParseLevel(cfg.LogLevel) //nolint:errcheck // validated
	logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.LogFormat,
		Level:   level,
		Writer:  cmd.ErrOrStderr(),
	})
}
