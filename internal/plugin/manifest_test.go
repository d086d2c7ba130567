// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/mediabutton/internal/plugin"
	"github.com/holomush/mediabutton/pkg/errutil"
)

const validManifest = `
name: media-button
version: 1.0.0
description: Buttons that change the media playing nearby
requires: ">= 0.1.0"
components:
  - media-button
capabilities:
  - objects.read
  - users.read
  - menus.alert
  - hooks.trigger.**
binary-plugin:
  executable: media-button
`

func TestParseManifest_Valid(t *testing.T) {
	m, err := plugin.ParseManifest([]byte(validManifest))
	require.NoError(t, err)

	assert.Equal(t, "media-button", m.Name)
	assert.Equal(t, "1.0.0", m.Version)
	assert.Equal(t, ">= 0.1.0", m.Requires)
	assert.Equal(t, []string{"media-button"}, m.Components)
	assert.Equal(t, []string{"objects.read", "users.read", "menus.alert", "hooks.trigger.**"}, m.Capabilities)
	require.NotNil(t, m.BinaryPlugin)
	assert.Equal(t, "media-button", m.BinaryPlugin.Executable)
	assert.True(t, m.DeclaresComponent("media-button"))
	assert.False(t, m.DeclaresComponent("media-player"))
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty", "", "empty"},
		{"bad yaml", "name: [", "invalid YAML"},
		{"missing name", "version: 1.0.0\ncomponents: [a]\nbinary-plugin: {executable: a}", "name"},
		{"uppercase name", "name: Media\nversion: 1.0.0\ncomponents: [a]\nbinary-plugin: {executable: a}", "name"},
		{"trailing hyphen", "name: media-\nversion: 1.0.0\ncomponents: [a]\nbinary-plugin: {executable: a}", "name"},
		{"long name", "name: " + strings.Repeat("a", 65) + "\nversion: 1.0.0\ncomponents: [a]\nbinary-plugin: {executable: a}", "64 characters"},
		{"missing version", "name: p\ncomponents: [a]\nbinary-plugin: {executable: a}", "version is required"},
		{"loose version", "name: p\nversion: v1\ncomponents: [a]\nbinary-plugin: {executable: a}", "semantic version"},
		{"bad requires", "name: p\nversion: 1.0.0\nrequires: '>>>'\ncomponents: [a]\nbinary-plugin: {executable: a}", "constraint"},
		{"no components", "name: p\nversion: 1.0.0\nbinary-plugin: {executable: a}", "at least one component"},
		{"empty component", "name: p\nversion: 1.0.0\ncomponents: ['']\nbinary-plugin: {executable: a}", "cannot be empty"},
		{"duplicate component", "name: p\nversion: 1.0.0\ncomponents: [a, a]\nbinary-plugin: {executable: a}", "listed twice"},
		{"no binary", "name: p\nversion: 1.0.0\ncomponents: [a]", "binary-plugin is required"},
		{"no executable", "name: p\nversion: 1.0.0\ncomponents: [a]\nbinary-plugin: {}", "executable is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plugin.ParseManifest([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			errutil.AssertErrorCode(t, err, plugin.CodeInvalidManifest)
		})
	}
}

func TestManifest_CheckCompatible(t *testing.T) {
	tests := []struct {
		name     string
		requires string
		host     string
		wantCode string
	}{
		{"no constraint", "", "0.0.1", ""},
		{"satisfied", ">= 0.1.0", "0.2.0", ""},
		{"unsatisfied", ">= 2.0.0", "1.4.0", plugin.CodeIncompatible},
		{"development host", ">= 2.0.0", "dev", ""},
		{"caret", "^1.2", "1.9.3", ""},
		{"caret major bump", "^1.2", "2.0.0", plugin.CodeIncompatible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &plugin.Manifest{Name: "p", Requires: tt.requires}
			err := m.CheckCompatible(tt.host)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantCode)
			errutil.AssertErrorContext(t, err, "host_version", tt.host)
		})
	}
}
