// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"context"
)

// Loader runs plugins of one runtime type.
type Loader interface {
	// Load starts a plugin from its manifest and registers its components.
	Load(ctx context.Context, manifest *Manifest, dir string) error

	// Unload stops a plugin and unregisters its components.
	Unload(ctx context.Context, name string) error

	// Plugins returns names of all loaded plugins.
	Plugins() []string

	// Close stops every plugin.
	Close(ctx context.Context) error
}
