// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package goplugin

import (
	"context"
	"errors"

	hashiplug "github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"

	"github.com/holomush/mediabutton/pkg/plugin"
	"github.com/holomush/mediabutton/pkg/pluginsdk"
)

// HandshakeConfig is imported from pluginsdk to ensure host and plugins
// use identical configuration. Do not define locally to prevent drift.
var HandshakeConfig = pluginsdk.HandshakeConfig

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]hashiplug.Plugin{
	pluginsdk.PluginName: &GRPCPlugin{},
}

// Remote is the host's view of a running plugin process.
type Remote interface {
	Describe(ctx context.Context) (*pluginsdk.DescribeResponse, error)
	Settings(ctx context.Context, req *pluginsdk.SettingsRequest) ([]plugin.SettingField, error)
	OnClick(ctx context.Context, req *pluginsdk.ClickRequest) error

	// ServeHost starts serving the host API to the plugin and returns the
	// broker ID the plugin dials to reach it.
	ServeHost(srv pluginsdk.HostServer) uint32
}

// GRPCPlugin implements go-plugin's Plugin interface for gRPC on the
// host side.
type GRPCPlugin struct {
	hashiplug.NetRPCUnsupportedPlugin
}

// GRPCServer is never called on the host.
func (p *GRPCPlugin) GRPCServer(_ *hashiplug.GRPCBroker, _ *grpc.Server) error {
	return errors.New("goplugin: host does not serve components")
}

// GRPCClient returns a Remote (called by host process).
func (p *GRPCPlugin) GRPCClient(_ context.Context, broker *hashiplug.GRPCBroker, c *grpc.ClientConn) (any, error) {
	return &remoteClient{ComponentClient: pluginsdk.NewComponentClient(c), broker: broker}, nil
}

type remoteClient struct {
	*pluginsdk.ComponentClient
	broker *hashiplug.GRPCBroker
}

func (r *remoteClient) ServeHost(srv pluginsdk.HostServer) uint32 {
	id := r.broker.NextId()
	go r.broker.AcceptAndServe(id, func(opts []grpc.ServerOption) *grpc.Server {
		s := grpc.NewServer(opts...)
		pluginsdk.RegisterHostServer(s, srv)
		return s
	})
	return id
}
