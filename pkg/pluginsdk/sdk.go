// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package pluginsdk provides the SDK for building mediabutton binary plugins.
//
// Binary plugins communicate with the host via gRPC using the HashiCorp
// go-plugin framework. A plugin serves one or more components; during a
// click the component talks back to the host through a plugin.Host that
// proxies to the host API over the go-plugin broker.
//
// Example usage:
//
//	package main
//
//	import (
//		"context"
//
//		"github.com/holomush/mediabutton/pkg/plugin"
//		"github.com/holomush/mediabutton/pkg/pluginsdk"
//	)
//
//	func main() {
//		pluginsdk.Serve(&pluginsdk.ServeConfig{
//			Components: []pluginsdk.Registration{{
//				Descriptor: plugin.ComponentDescriptor{ID: "hello", Name: "Hello"},
//				Component: plugin.ComponentFunc(func(ctx context.Context, h plugin.Host, c plugin.Click) error {
//					return h.Alert(ctx, "hello "+c.UserID, plugin.SeverityInfo)
//				}),
//			}},
//		})
//	}
package pluginsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	hashiplug "github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/holomush/mediabutton/pkg/plugin"
)

// PluginName is the go-plugin dispense name shared by host and plugins.
const PluginName = "components"

// HandshakeConfig is the go-plugin handshake configuration.
// Both host and plugins must use the same values.
var HandshakeConfig = hashiplug.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "MEDIABUTTON_PLUGIN",
	MagicCookieValue: "mediabutton-v1",
}

// Registration pairs a component with its descriptor.
type Registration struct {
	Descriptor plugin.ComponentDescriptor
	Component  plugin.Component
}

// ServeConfig configures the plugin server.
type ServeConfig struct {
	// Components served by this plugin. Required; Serve panics if empty.
	Components []Registration
}

// Serve starts the plugin server. This should be called from main().
// It blocks and never returns under normal operation.
func Serve(config *ServeConfig) {
	if config == nil {
		panic("pluginsdk: config cannot be nil")
	}
	if len(config.Components) == 0 {
		panic("pluginsdk: config.Components cannot be empty")
	}
	if _, err := newComponentServer(config.Components, nil); err != nil {
		panic("pluginsdk: " + err.Error())
	}
	hashiplug.Serve(&hashiplug.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]hashiplug.Plugin{
			PluginName: &grpcPlugin{components: config.Components},
		},
		GRPCServer: hashiplug.DefaultGRPCServer,
	})
}

// grpcPlugin implements go-plugin's Plugin interface for gRPC.
type grpcPlugin struct {
	hashiplug.NetRPCUnsupportedPlugin
	components []Registration
}

// GRPCServer registers the component server (called by plugin process).
func (p *grpcPlugin) GRPCServer(broker *hashiplug.GRPCBroker, s *grpc.Server) error {
	srv, err := newComponentServer(p.components, func(id uint32) (grpc.ClientConnInterface, error) {
		return broker.Dial(id) //nolint:wrapcheck // surfaced as a click error
	})
	if err != nil {
		return err
	}
	RegisterComponentServer(s, srv)
	return nil
}

// GRPCClient returns a component client (called by host process).
func (p *grpcPlugin) GRPCClient(_ context.Context, _ *hashiplug.GRPCBroker, c *grpc.ClientConn) (any, error) {
	return NewComponentClient(c), nil
}

// dialFunc connects to the host API served under a broker ID.
type dialFunc func(id uint32) (grpc.ClientConnInterface, error)

// componentServer adapts registered components to ComponentServer.
type componentServer struct {
	byID  map[string]Registration
	order []string
	dial  dialFunc

	mu    sync.Mutex
	hosts map[uint32]*HostClient
}

func newComponentServer(regs []Registration, dial dialFunc) (*componentServer, error) {
	s := &componentServer{
		byID:  make(map[string]Registration, len(regs)),
		dial:  dial,
		hosts: make(map[uint32]*HostClient),
	}
	for _, r := range regs {
		id := r.Descriptor.ID
		switch {
		case id == "":
			return nil, errors.New("component ID cannot be empty")
		case r.Component == nil:
			return nil, fmt.Errorf("component %q has no implementation", id)
		}
		if _, dup := s.byID[id]; dup {
			return nil, fmt.Errorf("component %q registered twice", id)
		}
		s.byID[id] = r
		s.order = append(s.order, id)
	}
	return s, nil
}

func (s *componentServer) Describe(context.Context) (*DescribeResponse, error) {
	resp := &DescribeResponse{Components: make([]ComponentInfo, 0, len(s.order))}
	for _, id := range s.order {
		d := s.byID[id].Descriptor
		resp.Components = append(resp.Components, ComponentInfo{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			HasSettings: d.Settings != nil,
		})
	}
	return resp, nil
}

func (s *componentServer) Settings(_ context.Context, req *SettingsRequest) ([]plugin.SettingField, error) {
	reg, ok := s.byID[req.Component]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown component %q", req.Component)
	}
	if reg.Descriptor.Settings == nil {
		return []plugin.SettingField{}, nil
	}
	return reg.Descriptor.Settings(req.Fields), nil
}

func (s *componentServer) OnClick(ctx context.Context, req *ClickRequest) error {
	reg, ok := s.byID[req.Component]
	if !ok {
		return status.Errorf(codes.NotFound, "unknown component %q", req.Component)
	}
	client, err := s.hostClient(req.HostBrokerID)
	if err != nil {
		return status.Errorf(codes.Unavailable, "connect to host API: %v", err)
	}
	return reg.Component.OnClick(ctx, &remoteHost{client: client, session: req.Session}, req.Click)
}

// hostClient returns the cached client for a broker ID, dialing once.
func (s *componentServer) hostClient(id uint32) (*HostClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.hosts[id]; ok {
		return c, nil
	}
	if s.dial == nil {
		return nil, errors.New("no broker")
	}
	conn, err := s.dial(id)
	if err != nil {
		return nil, err
	}
	c := NewHostClient(conn)
	s.hosts[id] = c
	return c, nil
}

// remoteHost implements plugin.Host over the host API for one click.
type remoteHost struct {
	client  *HostClient
	session string
}

// Compile-time interface check.
var _ plugin.Host = (*remoteHost)(nil)

func (h *remoteHost) IsAdmin(ctx context.Context) (bool, error) {
	return h.client.IsAdmin(ctx, &SessionRequest{Session: h.session})
}

func (h *remoteHost) GetObject(ctx context.Context, id string) (*plugin.Object, error) {
	return h.client.GetObject(ctx, &ObjectRequest{Session: h.session, ID: id})
}

func (h *remoteHost) FetchObjectsInRadius(ctx context.Context, x, y, radius float64) ([]plugin.Object, error) {
	return h.client.FetchObjectsInRadius(ctx, &RadiusRequest{Session: h.session, X: x, Y: y, Radius: radius})
}

func (h *remoteHost) FindObjectByName(ctx context.Context, name string) (*plugin.Object, error) {
	return h.client.FindObjectByName(ctx, &NameRequest{Session: h.session, Name: name})
}

func (h *remoteHost) TriggerHook(ctx context.Context, name string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", name, err)
		}
		raw = data
	}
	return h.client.TriggerHook(ctx, &HookRequest{Session: h.session, Name: name, Payload: raw})
}

func (h *remoteHost) Alert(ctx context.Context, message string, severity plugin.Severity) error {
	return h.client.Alert(ctx, &AlertRequest{Session: h.session, Message: message, Severity: severity})
}
