// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package goplugin

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/holomush/mediabutton/internal/hooks"
	"github.com/holomush/mediabutton/internal/plugin/capability"
	"github.com/holomush/mediabutton/internal/world"
	"github.com/holomush/mediabutton/pkg/errutil"
	"github.com/holomush/mediabutton/pkg/plugin"
	"github.com/holomush/mediabutton/pkg/pluginsdk"
)

type sessionEntry struct {
	plugin string
	host   plugin.Host
}

// sessions maps the tokens handed to plugins during a click back to the
// click's plugin.Host.
type sessions struct {
	mu      sync.RWMutex
	byToken map[string]sessionEntry
}

func newSessions() *sessions {
	return &sessions{byToken: make(map[string]sessionEntry)}
}

func (s *sessions) open(pluginName string, h plugin.Host) string {
	token := ulid.Make().String()
	s.mu.Lock()
	s.byToken[token] = sessionEntry{plugin: pluginName, host: h}
	s.mu.Unlock()
	return token
}

func (s *sessions) close(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}

func (s *sessions) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byToken)
}

func (s *sessions) get(pluginName, token string) (plugin.Host, error) {
	s.mu.RLock()
	entry, ok := s.byToken[token]
	s.mu.RUnlock()
	if !ok || entry.plugin != pluginName {
		return nil, status.Error(codes.Unauthenticated, "unknown or expired click session")
	}
	return entry.host, nil
}

// hostAPI serves the host API to one plugin. Every call is checked
// against the plugin's capabilities before it reaches the click session.
type hostAPI struct {
	plugin   string
	enforcer *capability.Enforcer
	sessions *sessions
}

// Compile-time interface check.
var _ pluginsdk.HostServer = (*hostAPI)(nil)

func (a *hostAPI) session(token, capName string) (plugin.Host, error) {
	if err := a.enforcer.Require(a.plugin, capName); err != nil {
		slog.Warn("plugin capability denied", errutil.Attrs(err)...)
		return nil, status.Error(codes.PermissionDenied, err.Error())
	}
	return a.sessions.get(a.plugin, token)
}

func (a *hostAPI) IsAdmin(ctx context.Context, req *pluginsdk.SessionRequest) (bool, error) {
	h, err := a.session(req.Session, capability.UsersRead)
	if err != nil {
		return false, err
	}
	ok, err := h.IsAdmin(ctx)
	return ok, statusFromError(err)
}

func (a *hostAPI) GetObject(ctx context.Context, req *pluginsdk.ObjectRequest) (*plugin.Object, error) {
	h, err := a.session(req.Session, capability.ObjectsRead)
	if err != nil {
		return nil, err
	}
	obj, err := h.GetObject(ctx, req.ID)
	return obj, statusFromError(err)
}

func (a *hostAPI) FetchObjectsInRadius(ctx context.Context, req *pluginsdk.RadiusRequest) ([]plugin.Object, error) {
	h, err := a.session(req.Session, capability.ObjectsRead)
	if err != nil {
		return nil, err
	}
	objs, err := h.FetchObjectsInRadius(ctx, req.X, req.Y, req.Radius)
	return objs, statusFromError(err)
}

func (a *hostAPI) FindObjectByName(ctx context.Context, req *pluginsdk.NameRequest) (*plugin.Object, error) {
	h, err := a.session(req.Session, capability.ObjectsRead)
	if err != nil {
		return nil, err
	}
	obj, err := h.FindObjectByName(ctx, req.Name)
	return obj, statusFromError(err)
}

func (a *hostAPI) TriggerHook(ctx context.Context, req *pluginsdk.HookRequest) error {
	h, err := a.session(req.Session, capability.Hook(req.Name))
	if err != nil {
		return err
	}
	var payload any
	if len(req.Payload) > 0 {
		payload = req.Payload
	}
	return statusFromError(h.TriggerHook(ctx, req.Name, payload))
}

func (a *hostAPI) Alert(ctx context.Context, req *pluginsdk.AlertRequest) error {
	h, err := a.session(req.Session, capability.MenusAlert)
	if err != nil {
		return err
	}
	return statusFromError(h.Alert(ctx, req.Message, req.Severity))
}

// statusFromError maps host errors to gRPC status codes by their oops code.
func statusFromError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, world.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		switch oopsErr.Code() {
		case hooks.CodeNoHandler:
			return status.Error(codes.FailedPrecondition, err.Error())
		case hooks.CodeInvalidPayload, "INVALID_ALERT":
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}
