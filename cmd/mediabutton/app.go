// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/samber/oops"

	"github.com/holomush/mediabutton/internal/access"
	"github.com/holomush/mediabutton/internal/config"
	"github.com/holomush/mediabutton/internal/hooks"
	"github.com/holomush/mediabutton/internal/host"
	"github.com/holomush/mediabutton/internal/mediabutton"
	"github.com/holomush/mediabutton/internal/plugin"
	"github.com/holomush/mediabutton/internal/plugin/capability"
	"github.com/holomush/mediabutton/internal/plugin/goplugin"
	"github.com/holomush/mediabutton/internal/presenter"
	"github.com/holomush/mediabutton/internal/store"
	"github.com/holomush/mediabutton/internal/world"
	"github.com/holomush/mediabutton/internal/world/postgres"
	"github.com/holomush/mediabutton/pkg/errutil"
)

// builtinSource marks components compiled into this binary.
const builtinSource = "builtin"

// app holds the wired runtime shared by serve, click and settings.
type app struct {
	store    world.ObjectStore
	bus      *hooks.Bus
	registry *host.Registry
	host     *host.Host
	plugins  *plugin.Manager
	ping     func(context.Context) error
	closers  []func(context.Context) error
}

// newApp wires a store, hook bus, component registry and click host from
// cfg, then loads binary plugins when a plugins directory is configured.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	var objects world.ObjectStore
	if objects, err = a.openStore(ctx, cfg); err != nil {
		return nil, err
	}
	a.store = objects

	admins, err := access.NewAdminPolicy(cfg.Admins)
	if err != nil {
		return nil, oops.Code(config.CodeInvalid).With("admins", cfg.Admins).Wrap(err)
	}

	a.bus = hooks.NewBus(
		hooks.WithMaxRetries(cfg.Hooks.MaxRetries),
		hooks.WithBaseDelay(cfg.Hooks.BaseDelay),
	)
	if err := presenter.New(a.store).Register(a.bus); err != nil {
		return nil, err //nolint:wrapcheck // carries INVALID_HOOK_PATTERN
	}

	a.registry = host.NewRegistry()
	if cfg.PluginsDir != "" {
		loader := goplugin.NewHost(capability.NewEnforcer(), a.registry)
		a.plugins = plugin.NewManager(cfg.PluginsDir,
			plugin.WithLoader(loader),
			plugin.WithHostVersion(version),
		)
		a.closers = append(a.closers, a.plugins.Close)
		if err := a.plugins.LoadAll(ctx); err != nil {
			return nil, err //nolint:wrapcheck // manager errors carry context
		}
	}

	// A plugin serving the media button replaces the builtin one.
	if _, ok := a.registry.Get(mediabutton.ComponentID); ok {
		slog.InfoContext(ctx, "media button provided by plugin, builtin disabled")
	} else {
		resolver := mediabutton.NewResolver(mediabutton.WithSearchRadius(cfg.SearchRadius))
		if err := a.registry.Register(mediabutton.Descriptor(), mediabutton.NewComponent(resolver), builtinSource); err != nil {
			return nil, err //nolint:wrapcheck // carries registry codes
		}
	}

	a.host = host.New(a.store, admins, a.bus, a.registry, host.WithClickTimeout(cfg.ClickTimeout))
	return a, nil
}

// openStore returns the PostgreSQL repository when a database URL is set
// and an in-memory store otherwise. A configured world file seeds either.
func (a *app) openStore(ctx context.Context, cfg *config.Config) (world.ObjectStore, error) {
	var objects world.ObjectStore
	if cfg.DatabaseURL != "" {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err //nolint:wrapcheck // carries DB_CONNECT_FAILED
		}
		a.closers = append(a.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		a.ping = pool.Ping
		objects = postgres.NewObjectRepository(pool)
		slog.InfoContext(ctx, "using postgres object store")
	} else {
		objects = world.NewMemoryStore()
		slog.InfoContext(ctx, "using in-memory object store")
	}

	if cfg.WorldFile != "" {
		data, err := os.ReadFile(cfg.WorldFile)
		if err != nil {
			return nil, oops.Code(config.CodeInvalid).With("world_file", cfg.WorldFile).Wrap(err)
		}
		created, err := world.Seed(ctx, objects, data)
		if err != nil {
			return nil, oops.With("world_file", cfg.WorldFile).Wrap(err)
		}
		slog.InfoContext(ctx, "seeded world", "world_file", cfg.WorldFile, "created", created)
	}
	return objects, nil
}

// checkStore pings the database when one is configured.
func (a *app) checkStore(ctx context.Context) error {
	if a.ping == nil {
		return nil
	}
	if err := a.ping(ctx); err != nil {
		return oops.Code("DB_CONNECT_FAILED").Wrapf(err, "object store unreachable")
	}
	return nil
}

// pluginCount returns the number of loaded binary plugins.
func (a *app) pluginCount() int {
	if a.plugins == nil {
		return 0
	}
	return len(a.plugins.ListPlugins())
}

// Close releases resources in reverse order of acquisition. It is safe to
// call on a nil or partially built app.
func (a *app) Close(ctx context.Context) {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errutil.LogErrorContext(ctx, slog.Default(), "shutdown step failed", err)
		}
	}
	a.closers = nil
}
