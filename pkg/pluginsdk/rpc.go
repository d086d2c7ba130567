// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package pluginsdk

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/holomush/mediabutton/pkg/plugin"
)

// gRPC service names. Messages are JSON documents carried in
// google.protobuf.BytesValue.
const (
	ComponentServiceName = "mediabutton.plugin.v1.ComponentService"
	HostServiceName      = "mediabutton.plugin.v1.HostService"
)

// ComponentInfo describes one component a plugin serves.
type ComponentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	HasSettings bool   `json:"has_settings"`
}

// DescribeResponse lists the components a plugin serves.
type DescribeResponse struct {
	Components []ComponentInfo `json:"components"`
}

// SettingsRequest asks for a component's settings panel.
type SettingsRequest struct {
	Component string        `json:"component"`
	Fields    plugin.Fields `json:"fields"`
}

// ClickRequest delivers a click to a plugin component. Session identifies
// the click on the host API served at HostBrokerID.
type ClickRequest struct {
	Component    string       `json:"component"`
	Click        plugin.Click `json:"click"`
	Session      string       `json:"session"`
	HostBrokerID uint32       `json:"host_broker_id"`
}

// SessionRequest identifies the click a host call belongs to.
type SessionRequest struct {
	Session string `json:"session"`
}

// ObjectRequest fetches one object.
type ObjectRequest struct {
	Session string `json:"session"`
	ID      string `json:"id"`
}

// RadiusRequest fetches objects around a point.
type RadiusRequest struct {
	Session string  `json:"session"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
}

// NameRequest looks an object up by name.
type NameRequest struct {
	Session string `json:"session"`
	Name    string `json:"name"`
}

// HookRequest triggers a named hook.
type HookRequest struct {
	Session string          `json:"session"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AlertRequest raises an alert to the clicking user.
type AlertRequest struct {
	Session  string          `json:"session"`
	Message  string          `json:"message"`
	Severity plugin.Severity `json:"severity"`
}

type empty struct{}

type boolValue struct {
	Value bool `json:"value"`
}

// ComponentServer is implemented by plugin processes.
type ComponentServer interface {
	Describe(ctx context.Context) (*DescribeResponse, error)
	Settings(ctx context.Context, req *SettingsRequest) ([]plugin.SettingField, error)
	OnClick(ctx context.Context, req *ClickRequest) error
}

// HostServer is implemented by the host and served to plugins over the
// go-plugin broker.
type HostServer interface {
	IsAdmin(ctx context.Context, req *SessionRequest) (bool, error)
	GetObject(ctx context.Context, req *ObjectRequest) (*plugin.Object, error)
	FetchObjectsInRadius(ctx context.Context, req *RadiusRequest) ([]plugin.Object, error)
	FindObjectByName(ctx context.Context, req *NameRequest) (*plugin.Object, error)
	TriggerHook(ctx context.Context, req *HookRequest) error
	Alert(ctx context.Context, req *AlertRequest) error
}

// unary builds a method whose request and response are JSON in BytesValue.
func unary[Req, Resp any](service, name string, fn func(srv any, ctx context.Context, req *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(wrapperspb.BytesValue)
			if err := dec(in); err != nil {
				return nil, err
			}
			handle := func(ctx context.Context, raw any) (any, error) {
				req := new(Req)
				if data := raw.(*wrapperspb.BytesValue).GetValue(); len(data) > 0 {
					if err := json.Unmarshal(data, req); err != nil {
						return nil, status.Errorf(codes.InvalidArgument, "decode %s request: %v", name, err)
					}
				}
				resp, err := fn(srv, ctx, req)
				if err != nil {
					return nil, toStatus(err)
				}
				out, err := json.Marshal(resp)
				if err != nil {
					return nil, status.Errorf(codes.Internal, "encode %s response: %v", name, err)
				}
				return wrapperspb.Bytes(out), nil
			}
			if interceptor == nil {
				return handle(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + service + "/" + name}
			return interceptor(ctx, in, info, handle)
		},
	}
}

// toStatus keeps status errors and reports anything else as Unknown.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Unknown, err.Error())
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, service, name string, req any) (Resp, error) {
	var resp Resp
	data, err := json.Marshal(req)
	if err != nil {
		return resp, status.Errorf(codes.InvalidArgument, "encode %s request: %v", name, err)
	}
	out := new(wrapperspb.BytesValue)
	if err := cc.Invoke(ctx, "/"+service+"/"+name, wrapperspb.Bytes(data), out); err != nil {
		return resp, err //nolint:wrapcheck // status errors cross the process boundary as-is
	}
	if err := json.Unmarshal(out.GetValue(), &resp); err != nil {
		return resp, status.Errorf(codes.Internal, "decode %s response: %v", name, err)
	}
	return resp, nil
}

// ComponentServiceDesc describes the plugin-side component service.
var ComponentServiceDesc = grpc.ServiceDesc{
	ServiceName: ComponentServiceName,
	HandlerType: (*ComponentServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ComponentServiceName, "Describe", func(srv any, ctx context.Context, _ *empty) (*DescribeResponse, error) {
			return srv.(ComponentServer).Describe(ctx)
		}),
		unary(ComponentServiceName, "Settings", func(srv any, ctx context.Context, req *SettingsRequest) ([]plugin.SettingField, error) {
			return srv.(ComponentServer).Settings(ctx, req)
		}),
		unary(ComponentServiceName, "OnClick", func(srv any, ctx context.Context, req *ClickRequest) (empty, error) {
			return empty{}, srv.(ComponentServer).OnClick(ctx, req)
		}),
	},
	Metadata: "mediabutton/plugin/v1/component.proto",
}

// HostServiceDesc describes the host API served back to plugins.
var HostServiceDesc = grpc.ServiceDesc{
	ServiceName: HostServiceName,
	HandlerType: (*HostServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(HostServiceName, "IsAdmin", func(srv any, ctx context.Context, req *SessionRequest) (boolValue, error) {
			ok, err := srv.(HostServer).IsAdmin(ctx, req)
			return boolValue{Value: ok}, err
		}),
		unary(HostServiceName, "GetObject", func(srv any, ctx context.Context, req *ObjectRequest) (*plugin.Object, error) {
			return srv.(HostServer).GetObject(ctx, req)
		}),
		unary(HostServiceName, "FetchObjectsInRadius", func(srv any, ctx context.Context, req *RadiusRequest) ([]plugin.Object, error) {
			return srv.(HostServer).FetchObjectsInRadius(ctx, req)
		}),
		unary(HostServiceName, "FindObjectByName", func(srv any, ctx context.Context, req *NameRequest) (*plugin.Object, error) {
			return srv.(HostServer).FindObjectByName(ctx, req)
		}),
		unary(HostServiceName, "TriggerHook", func(srv any, ctx context.Context, req *HookRequest) (empty, error) {
			return empty{}, srv.(HostServer).TriggerHook(ctx, req)
		}),
		unary(HostServiceName, "Alert", func(srv any, ctx context.Context, req *AlertRequest) (empty, error) {
			return empty{}, srv.(HostServer).Alert(ctx, req)
		}),
	},
	Metadata: "mediabutton/plugin/v1/host.proto",
}

// RegisterComponentServer registers a ComponentServer with s.
func RegisterComponentServer(s grpc.ServiceRegistrar, srv ComponentServer) {
	s.RegisterService(&ComponentServiceDesc, srv)
}

// RegisterHostServer registers a HostServer with s.
func RegisterHostServer(s grpc.ServiceRegistrar, srv HostServer) {
	s.RegisterService(&HostServiceDesc, srv)
}

// ComponentClient calls a plugin's component service.
type ComponentClient struct {
	cc grpc.ClientConnInterface
}

// NewComponentClient creates a ComponentClient over cc.
func NewComponentClient(cc grpc.ClientConnInterface) *ComponentClient {
	return &ComponentClient{cc: cc}
}

// Describe lists the plugin's components.
func (c *ComponentClient) Describe(ctx context.Context) (*DescribeResponse, error) {
	return invoke[*DescribeResponse](ctx, c.cc, ComponentServiceName, "Describe", empty{})
}

// Settings returns a component's settings panel.
func (c *ComponentClient) Settings(ctx context.Context, req *SettingsRequest) ([]plugin.SettingField, error) {
	return invoke[[]plugin.SettingField](ctx, c.cc, ComponentServiceName, "Settings", req)
}

// OnClick delivers a click.
func (c *ComponentClient) OnClick(ctx context.Context, req *ClickRequest) error {
	_, err := invoke[empty](ctx, c.cc, ComponentServiceName, "OnClick", req)
	return err
}

// HostClient calls the host API from a plugin process.
type HostClient struct {
	cc grpc.ClientConnInterface
}

// NewHostClient creates a HostClient over cc.
func NewHostClient(cc grpc.ClientConnInterface) *HostClient {
	return &HostClient{cc: cc}
}

// IsAdmin reports whether the clicking user is an admin.
func (c *HostClient) IsAdmin(ctx context.Context, req *SessionRequest) (bool, error) {
	v, err := invoke[boolValue](ctx, c.cc, HostServiceName, "IsAdmin", req)
	return v.Value, err
}

// GetObject fetches one object.
func (c *HostClient) GetObject(ctx context.Context, req *ObjectRequest) (*plugin.Object, error) {
	return invoke[*plugin.Object](ctx, c.cc, HostServiceName, "GetObject", req)
}

// FetchObjectsInRadius fetches objects around a point.
func (c *HostClient) FetchObjectsInRadius(ctx context.Context, req *RadiusRequest) ([]plugin.Object, error) {
	return invoke[[]plugin.Object](ctx, c.cc, HostServiceName, "FetchObjectsInRadius", req)
}

// FindObjectByName looks an object up by name; nil when none matches.
func (c *HostClient) FindObjectByName(ctx context.Context, req *NameRequest) (*plugin.Object, error) {
	return invoke[*plugin.Object](ctx, c.cc, HostServiceName, "FindObjectByName", req)
}

// TriggerHook triggers a named hook.
func (c *HostClient) TriggerHook(ctx context.Context, req *HookRequest) error {
	_, err := invoke[empty](ctx, c.cc, HostServiceName, "TriggerHook", req)
	return err
}

// Alert raises an alert to the clicking user.
func (c *HostClient) Alert(ctx context.Context, req *AlertRequest) error {
	_, err := invoke[empty](ctx, c.cc, HostServiceName, "Alert", req)
	return err
}
