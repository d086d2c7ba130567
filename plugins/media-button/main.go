// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package main serves the media button component as a binary plugin.
//
// Build it next to its manifest:
//
//	go build -o plugins/media-button/media-button ./plugins/media-button
//
// The host runs the same component in process; this binary exists so a
// host can load an updated button without a rebuild.
package main

import (
	"log/slog"
	"os"

	"github.com/holomush/mediabutton/internal/logging"
	"github.com/holomush/mediabutton/internal/mediabutton"
	"github.com/holomush/mediabutton/pkg/pluginsdk"
)

func main() {
	// go-plugin forwards plugin stderr to the host log.
	logging.SetDefault(logging.Options{
		Service: "media-button-plugin",
		Format:  "json",
		Level:   slog.LevelInfo,
		Writer:  os.Stderr,
	})

	pluginsdk.Serve(&pluginsdk.ServeConfig{
		Components: []pluginsdk.Registration{{
			Descriptor: mediabutton.Descriptor(),
			Component:  mediabutton.NewComponent(nil),
		}},
	})
}
