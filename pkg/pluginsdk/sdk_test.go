// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package pluginsdk_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holomush/mediabutton/pkg/plugin"
	"github.com/holomush/mediabutton/pkg/pluginsdk"
)

var noop = plugin.ComponentFunc(func(context.Context, plugin.Host, plugin.Click) error { return nil })

func TestServe_Panics(t *testing.T) {
	tests := []struct {
		name   string
		config *pluginsdk.ServeConfig
	}{
		{"nil config", nil},
		{"no components", &pluginsdk.ServeConfig{}},
		{"empty id", &pluginsdk.ServeConfig{Components: []pluginsdk.Registration{{Component: noop}}}},
		{"nil component", &pluginsdk.ServeConfig{Components: []pluginsdk.Registration{{
			Descriptor: plugin.ComponentDescriptor{ID: "a"},
		}}}},
		{"duplicate", &pluginsdk.ServeConfig{Components: []pluginsdk.Registration{
			{Descriptor: plugin.ComponentDescriptor{ID: "a"}, Component: noop},
			{Descriptor: plugin.ComponentDescriptor{ID: "a"}, Component: noop},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { pluginsdk.Serve(tt.config) })
		})
	}
}

func TestHandshakeConfig(t *testing.T) {
	assert.Equal(t, uint(1), pluginsdk.HandshakeConfig.ProtocolVersion)
	assert.Equal(t, "MEDIABUTTON_PLUGIN", pluginsdk.HandshakeConfig.MagicCookieKey)
	assert.Equal(t, "mediabutton-v1", pluginsdk.HandshakeConfig.MagicCookieValue)
}
