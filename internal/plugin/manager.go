// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/mediabutton/pkg/errutil"
)

// ManifestFile is the manifest file name inside a plugin directory.
const ManifestFile = "plugin.yaml"

// CodeDirUnreadable marks a plugins directory that exists but cannot be listed.
const CodeDirUnreadable = "PLUGIN_DIR_UNREADABLE"

// Manager discovers plugins on disk and hands them to a Loader.
type Manager struct {
	pluginsDir  string
	loader      Loader
	hostVersion string
	loaded      map[string]*DiscoveredPlugin
	mu          sync.RWMutex
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLoader sets the loader plugins are started with.
func WithLoader(l Loader) ManagerOption {
	return func(m *Manager) {
		m.loader = l
	}
}

// WithHostVersion sets the version manifests' requires constraints are
// checked against.
func WithHostVersion(v string) ManagerOption {
	return func(m *Manager) {
		m.hostVersion = v
	}
}

// NewManager creates a plugin manager.
func NewManager(pluginsDir string, opts ...ManagerOption) *Manager {
	m := &Manager{
		pluginsDir: pluginsDir,
		loaded:     make(map[string]*DiscoveredPlugin),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DiscoveredPlugin contains a manifest and its directory.
type DiscoveredPlugin struct {
	Manifest *Manifest
	Dir      string
}

// Discover finds all valid plugins in the plugins directory, sorted by
// directory name. Invalid plugins are logged and skipped.
func (m *Manager) Discover(ctx context.Context) ([]*DiscoveredPlugin, error) {
	entries, err := os.ReadDir(m.pluginsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, oops.Code(CodeDirUnreadable).With("dir", m.pluginsDir).Wrapf(err, "read plugins directory")
	}

	var plugins []*DiscoveredPlugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(m.pluginsDir, entry.Name())
		data, err := os.ReadFile(filepath.Join(dir, ManifestFile)) //nolint:gosec // path built from ReadDir entries
		if err != nil {
			slog.WarnContext(ctx, "skipping plugin without manifest", "dir", entry.Name(), "error", err)
			continue
		}

		if err := ValidateSchema(data); err != nil {
			errutil.LogErrorContext(ctx, slog.Default(), "skipping plugin with invalid manifest", err)
			continue
		}
		manifest, err := ParseManifest(data)
		if err != nil {
			errutil.LogErrorContext(ctx, slog.Default(), "skipping plugin with invalid manifest", err)
			continue
		}

		plugins = append(plugins, &DiscoveredPlugin{Manifest: manifest, Dir: dir})
	}
	return plugins, nil
}

// LoadAll discovers and loads every plugin. A plugin that fails to load
// is logged and skipped; only a failure to read the directory is
// returned.
func (m *Manager) LoadAll(ctx context.Context) error {
	discovered, err := m.Discover(ctx)
	if err != nil {
		return err
	}

	for _, dp := range discovered {
		if err := m.load(ctx, dp); err != nil {
			errutil.LogErrorContext(ctx, slog.Default(), "failed to load plugin", err)
		}
	}
	return nil
}

func (m *Manager) load(ctx context.Context, dp *DiscoveredPlugin) error {
	if m.loader == nil {
		slog.WarnContext(ctx, "no plugin loader configured, skipping plugin", "plugin", dp.Manifest.Name)
		return nil
	}
	if err := dp.Manifest.CheckCompatible(m.hostVersion); err != nil {
		return err
	}

	m.mu.Lock()
	_, dup := m.loaded[dp.Manifest.Name]
	m.mu.Unlock()
	if dup {
		return oops.Code("PLUGIN_ALREADY_LOADED").With("plugin", dp.Manifest.Name).
			Errorf("plugin %s is already loaded", dp.Manifest.Name)
	}

	if err := m.loader.Load(ctx, dp.Manifest, dp.Dir); err != nil {
		return oops.With("plugin", dp.Manifest.Name).Wrap(err)
	}

	m.mu.Lock()
	m.loaded[dp.Manifest.Name] = dp
	m.mu.Unlock()

	slog.InfoContext(ctx, "loaded plugin",
		"plugin", dp.Manifest.Name,
		"version", dp.Manifest.Version,
		"components", dp.Manifest.Components)
	return nil
}

// ListPlugins returns the sorted names of loaded plugins.
func (m *Manager) ListPlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close forgets all plugins and closes the loader.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loaded = make(map[string]*DiscoveredPlugin)
	if m.loader != nil {
		if err := m.loader.Close(ctx); err != nil {
			return oops.Wrapf(err, "close plugin loader")
		}
	}
	return nil
}
