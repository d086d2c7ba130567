// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/holomush/mediabutton/internal/plugin"
	"github.com/holomush/mediabutton/internal/xdg"
)

// pluginInfo is one row of the plugins listing.
type pluginInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description,omitempty"`
	Components   []string `json:"components"`
	Capabilities []string `json:"capabilities,omitempty"`
	Dir          string   `json:"dir"`
	Compatible   bool     `json:"compatible"`
	Reason       string   `json:"reason,omitempty"`
}

// NewPluginsCmd creates the plugins subcommand.
func NewPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the binary plugins serve would load",
		Long: `Scan the plugins directory and print every plugin with a valid
manifest as JSON, without starting any of them. Uses plugins_dir when set
and XDG_DATA_HOME/mediabutton/plugins otherwise. Plugins whose requires
constraint rejects this build are listed as incompatible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlugins(cmd.Context(), cmd)
		},
	}
}

func runPlugins(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cmd, cfg)

	dir := cfg.PluginsDir
	if dir == "" {
		if dir, err = xdg.PluginsDir(); err != nil {
			return err //nolint:wrapcheck // carries XDG_NO_HOME
		}
	}

	discovered, err := plugin.NewManager(dir).Discover(ctx)
	if err != nil {
		return err //nolint:wrapcheck // manager errors carry context
	}

	infos := make([]pluginInfo, 0, len(discovered))
	for _, dp := range discovered {
		m := dp.Manifest
		info := pluginInfo{
			Name:         m.Name,
			Version:      m.Version,
			Description:  m.Description,
			Components:   m.Components,
			Capabilities: m.Capabilities,
			Dir:          dp.Dir,
			Compatible:   true,
		}
		if err := m.CheckCompatible(version); err != nil {
			info.Compatible = false
			info.Reason = err.Error()
		}
		infos = append(infos, info)
	}
	return printJSON(cmd.OutOrStdout(), infos)
}
