// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package goplugin loads binary component plugins via HashiCorp's
// go-plugin system over gRPC and registers their components with the
// click host.
package goplugin

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	hashiplug "github.com/hashicorp/go-plugin"
	"github.com/samber/oops"

	"github.com/holomush/mediabutton/internal/host"
	pluginmgr "github.com/holomush/mediabutton/internal/plugin"
	"github.com/holomush/mediabutton/internal/plugin/capability"
	"github.com/holomush/mediabutton/pkg/errutil"
	"github.com/holomush/mediabutton/pkg/plugin"
	"github.com/holomush/mediabutton/pkg/pluginsdk"
)

// DefaultSettingsTimeout bounds a settings panel request to a plugin.
const DefaultSettingsTimeout = 2 * time.Second

// Error codes.
const (
	CodeLoadFailed          = "PLUGIN_LOAD_FAILED"
	CodeUndeclaredComponent = "UNDECLARED_COMPONENT"
	CodeClickFailed         = "PLUGIN_CLICK_FAILED"
)

// Sentinel errors for programmatic error checking.
var (
	// ErrHostClosed is returned when operations are attempted on a closed host.
	ErrHostClosed = errors.New("host is closed")
	// ErrPluginNotLoaded is returned when operating on a plugin that isn't loaded.
	ErrPluginNotLoaded = errors.New("plugin not loaded")
	// ErrPluginAlreadyLoaded is returned when loading a plugin that's already loaded.
	ErrPluginAlreadyLoaded = errors.New("plugin already loaded")
)

// Compile-time interface check.
var _ pluginmgr.Loader = (*Host)(nil)

// PluginClient wraps go-plugin client for testability.
type PluginClient interface {
	// Client returns the gRPC client protocol.
	Client() (hashiplug.ClientProtocol, error)
	// Kill terminates the plugin process.
	Kill()
}

// ClientFactory creates plugin clients.
type ClientFactory interface {
	// NewClient creates a client for the given executable path.
	NewClient(execPath string) PluginClient
}

// DefaultClientFactory creates real go-plugin clients.
type DefaultClientFactory struct{}

// NewClient creates a real go-plugin client.
func (f *DefaultClientFactory) NewClient(execPath string) PluginClient {
	return hashiplug.NewClient(&hashiplug.ClientConfig{
		HandshakeConfig:  HandshakeConfig,
		Plugins:          PluginMap,
		Cmd:              exec.Command(execPath), // #nosec G204 -- execPath resolved from plugin manifest; manifests validated during discovery
		AllowedProtocols: []hashiplug.Protocol{hashiplug.ProtocolGRPC},
	})
}

// Host manages binary plugins and the components they provide.
type Host struct {
	enforcer      *capability.Enforcer
	registry      *host.Registry
	clientFactory ClientFactory
	sessions      *sessions
	plugins       map[string]*loadedPlugin
	mu            sync.RWMutex
	closed        bool
}

// loadedPlugin holds state for a single loaded binary plugin.
type loadedPlugin struct {
	manifest   *pluginmgr.Manifest
	client     PluginClient
	components []string
}

// Option configures a Host.
type Option func(*Host)

// WithClientFactory replaces how plugin processes are started.
func WithClientFactory(f ClientFactory) Option {
	return func(h *Host) {
		h.clientFactory = f
	}
}

// NewHost creates a new binary plugin host that registers plugin
// components with registry. Panics if enforcer or registry is nil.
func NewHost(enforcer *capability.Enforcer, registry *host.Registry, opts ...Option) *Host {
	if enforcer == nil {
		panic("goplugin: enforcer cannot be nil")
	}
	if registry == nil {
		panic("goplugin: registry cannot be nil")
	}
	h := &Host{
		enforcer:      enforcer,
		registry:      registry,
		clientFactory: &DefaultClientFactory{},
		sessions:      newSessions(),
		plugins:       make(map[string]*loadedPlugin),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.clientFactory == nil {
		panic("goplugin: factory cannot be nil")
	}
	return h
}

// Load starts a plugin process, grants its manifest capabilities and
// registers the components it serves.
func (h *Host) Load(ctx context.Context, manifest *pluginmgr.Manifest, dir string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return oops.Wrap(ErrHostClosed)
	}
	if _, ok := h.plugins[manifest.Name]; ok {
		return oops.With("plugin", manifest.Name).Wrap(ErrPluginAlreadyLoaded)
	}

	failed := oops.Code(CodeLoadFailed).With("plugin", manifest.Name)
	if manifest.BinaryPlugin == nil {
		return failed.Errorf("plugin %s is not a binary plugin", manifest.Name)
	}

	execPath := filepath.Join(dir, manifest.BinaryPlugin.Executable)
	if _, err := os.Stat(execPath); err != nil {
		return failed.With("path", execPath).Wrapf(err, "plugin executable not accessible")
	}

	client := h.clientFactory.NewClient(execPath)
	lp, err := h.start(ctx, manifest, client)
	if err != nil {
		client.Kill()
		h.enforcer.RemoveGrants(manifest.Name)
		return failed.Wrap(err)
	}
	h.plugins[manifest.Name] = lp
	return nil
}

func (h *Host) start(ctx context.Context, manifest *pluginmgr.Manifest, client PluginClient) (*loadedPlugin, error) {
	rpcClient, err := client.Client()
	if err != nil {
		return nil, oops.Wrapf(err, "connect to plugin")
	}
	raw, err := rpcClient.Dispense(pluginsdk.PluginName)
	if err != nil {
		return nil, oops.Wrapf(err, "dispense plugin")
	}
	remote, ok := raw.(Remote)
	if !ok {
		return nil, oops.Errorf("plugin does not serve components")
	}

	desc, err := remote.Describe(ctx)
	if err != nil {
		return nil, oops.Wrapf(err, "describe components")
	}
	for _, info := range desc.Components {
		if !manifest.DeclaresComponent(info.ID) {
			return nil, oops.Code(CodeUndeclaredComponent).With("component", info.ID).
				Errorf("plugin serves component %q not listed in its manifest", info.ID)
		}
	}

	if err := h.enforcer.SetGrants(manifest.Name, manifest.Capabilities); err != nil {
		return nil, err //nolint:wrapcheck // carries INVALID_CAPABILITY
	}

	brokerID := remote.ServeHost(&hostAPI{plugin: manifest.Name, enforcer: h.enforcer, sessions: h.sessions})

	lp := &loadedPlugin{manifest: manifest, client: client}
	for _, info := range desc.Components {
		proxy := &proxyComponent{
			plugin:   manifest.Name,
			id:       info.ID,
			remote:   remote,
			brokerID: brokerID,
			sessions: h.sessions,
		}
		d := plugin.ComponentDescriptor{ID: info.ID, Name: info.Name, Description: info.Description}
		if info.HasSettings {
			d.Settings = proxy.settings
		}
		if err := h.registry.Register(d, proxy, manifest.Name); err != nil {
			h.unregister(lp)
			return nil, err //nolint:wrapcheck // carries DUPLICATE_COMPONENT
		}
		lp.components = append(lp.components, info.ID)
	}
	for _, id := range manifest.Components {
		if !slices.Contains(lp.components, id) {
			slog.WarnContext(ctx, "plugin does not serve a declared component", "plugin", manifest.Name, "component", id)
		}
	}
	return lp, nil
}

func (h *Host) unregister(lp *loadedPlugin) {
	for _, id := range lp.components {
		h.registry.Unregister(id)
	}
}

// Unload stops a plugin and removes its components.
func (h *Host) Unload(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return oops.Wrap(ErrHostClosed)
	}
	lp, ok := h.plugins[name]
	if !ok {
		return oops.With("plugin", name).Wrap(ErrPluginNotLoaded)
	}
	h.stop(name, lp)
	delete(h.plugins, name)
	return nil
}

func (h *Host) stop(name string, lp *loadedPlugin) {
	h.unregister(lp)
	if lp.client != nil {
		lp.client.Kill()
	}
	h.enforcer.RemoveGrants(name)
}

// Plugins returns the sorted names of all loaded plugins.
func (h *Host) Plugins() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil
	}
	names := make([]string, 0, len(h.plugins))
	for name := range h.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close shuts down the host and all plugins.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for name, lp := range h.plugins {
		h.stop(name, lp)
	}
	h.closed = true
	clear(h.plugins)
	return nil
}

// proxyComponent forwards clicks to a component living in a plugin
// process. The click's plugin.Host is parked under a session token the
// plugin presents when it calls back into the host API.
type proxyComponent struct {
	plugin   string
	id       string
	remote   Remote
	brokerID uint32
	sessions *sessions
}

// Compile-time interface check.
var _ plugin.Component = (*proxyComponent)(nil)

func (p *proxyComponent) OnClick(ctx context.Context, h plugin.Host, click plugin.Click) error {
	token := p.sessions.open(p.plugin, h)
	defer p.sessions.close(token)

	err := p.remote.OnClick(ctx, &pluginsdk.ClickRequest{
		Component:    p.id,
		Click:        click,
		Session:      token,
		HostBrokerID: p.brokerID,
	})
	if err != nil {
		return oops.Code(CodeClickFailed).
			With("plugin", p.plugin).
			With("component", p.id).
			Wrap(err)
	}
	return nil
}

func (p *proxyComponent) settings(current plugin.Fields) []plugin.SettingField {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultSettingsTimeout)
	defer cancel()

	fields, err := p.remote.Settings(ctx, &pluginsdk.SettingsRequest{Component: p.id, Fields: current})
	if err != nil {
		attrs := append([]any{"plugin", p.plugin, "component", p.id}, errutil.Attrs(err)...)
		slog.WarnContext(ctx, "plugin settings request failed", attrs...)
		return nil
	}
	return fields
}
