// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/mediabutton/internal/access"
	"github.com/holomush/mediabutton/pkg/plugin"
)

// NewClickCmd creates the click subcommand.
func NewClickCmd() *cobra.Command {
	var (
		userID  string
		asAdmin bool
	)
	cmd := &cobra.Command{
		Use:   "click <object-id>",
		Short: "Click an object once and print the result",
		Long: `Load the configured world, click one object as the given user and print
the components that ran and the alerts they raised as JSON. With --as-admin
the click passes admin-only checks whatever the admins setting says.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if asAdmin {
				ctx = access.WithOperator(ctx)
			}
			return runClick(ctx, cmd, args[0], userID)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "ID of the clicking user (required)")
	cmd.Flags().BoolVar(&asAdmin, "as-admin", false, "treat the user as an administrator")
	return cmd
}

func runClick(ctx context.Context, cmd *cobra.Command, objectID, userID string) error {
	if userID == "" {
		return oops.Code("MISSING_USER").Errorf("--user is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cmd, cfg)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	result, err := a.host.Click(ctx, objectID, userID)
	if err != nil {
		return err //nolint:wrapcheck // carries click codes
	}
	return printJSON(cmd.OutOrStdout(), result)
}

// NewSettingsCmd creates the settings subcommand.
func NewSettingsCmd() *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "settings <component-id>",
		Short: "Print the settings panel a component shows",
		Long: `Print the settings fields a component shows for the given field values,
as the editor would render them. Values are given as --field id=value;
"true" and "false" become booleans.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettings(cmd.Context(), cmd, args[0], fields)
		},
	}
	cmd.Flags().StringArrayVar(&fields, "field", nil, "field value as id=value (repeatable)")
	return cmd
}

func runSettings(ctx context.Context, cmd *cobra.Command, componentID string, raw []string) error {
	current, err := parseFields(raw)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cmd, cfg)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	settings, err := a.registry.Settings(componentID, current)
	if err != nil {
		return err //nolint:wrapcheck // carries UNKNOWN_COMPONENT
	}
	if settings == nil {
		settings = []plugin.SettingField{}
	}
	return printJSON(cmd.OutOrStdout(), settings)
}

// parseFields turns id=value pairs into component fields.
func parseFields(raw []string) (plugin.Fields, error) {
	fields := plugin.Fields{}
	for _, kv := range raw {
		id, value, ok := strings.Cut(kv, "=")
		if !ok || id == "" {
			return nil, oops.Code("INVALID_FIELD").With("field", kv).Errorf("field must be id=value, got %q", kv)
		}
		switch value {
		case "true":
			fields[id] = true
		case "false":
			fields[id] = false
		default:
			fields[id] = value
		}
	}
	return fields, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return oops.Wrapf(err, "encode output")
	}
	return nil
}
