// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/mediabutton/internal/plugin"
	"github.com/holomush/mediabutton/internal/xdg"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Generate the plugin manifest JSON Schema",
		Long: `Generate the JSON Schema that plugin.yaml manifests are validated
against. Writes to stdout unless --output is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the schema to this file")
	return cmd
}

func runSchema(cmd *cobra.Command, output string) error {
	schema, err := plugin.GenerateSchema()
	if err != nil {
		return err //nolint:wrapcheck // already wrapped
	}
	if output == "" {
		_, err := cmd.OutOrStdout().Write(append(schema, '\n'))
		return oops.Wrapf(err, "write schema")
	}

	if err := xdg.EnsureDir(filepath.Dir(output)); err != nil {
		return err //nolint:wrapcheck // carries path
	}
	if err := os.WriteFile(output, schema, 0o600); err != nil {
		return oops.With("path", output).Wrapf(err, "write schema")
	}
	cmd.Printf("Generated %s\n", output)
	return nil
}
