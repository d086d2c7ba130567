// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package host

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/mediabutton/internal/world"
	"github.com/holomush/mediabutton/pkg/plugin"
)

// Alert is a message raised to the clicking user.
type Alert struct {
	Message   string          `json:"message"`
	Severity  plugin.Severity `json:"severity"`
	Component string          `json:"component"`
}

// alertSink collects alerts raised during one click.
type alertSink struct {
	mu     sync.Mutex
	alerts []Alert
}

func (s *alertSink) add(a Alert) {
	s.mu.Lock()
	s.alerts = append(s.alerts, a)
	s.mu.Unlock()
}

func (s *alertSink) list() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Alert(nil), s.alerts...)
}

// session is the plugin.Host handed to one component for one click.
type session struct {
	host        *Host
	userID      string
	componentID string
	sink        *alertSink
}

// Compile-time interface check.
var _ plugin.Host = (*session)(nil)

func (s *session) IsAdmin(ctx context.Context) (bool, error) {
	if s.host.admins == nil {
		return false, nil
	}
	ok, err := s.host.admins.IsAdmin(ctx, s.userID)
	if err != nil {
		return false, oops.With("user_id", s.userID).Wrap(err)
	}
	return ok, nil
}

func (s *session) GetObject(ctx context.Context, id string) (*plugin.Object, error) {
	obj, err := s.host.store.Get(ctx, id)
	if err != nil {
		return nil, err //nolint:wrapcheck // store errors carry codes
	}
	snap := obj.Snapshot()
	return &snap, nil
}

func (s *session) FetchObjectsInRadius(ctx context.Context, x, y, radius float64) ([]plugin.Object, error) {
	objs, err := s.host.store.FetchInRadius(ctx, world.Position{X: x, Y: y}, radius)
	if err != nil {
		return nil, err //nolint:wrapcheck // store errors carry codes
	}
	out := make([]plugin.Object, len(objs))
	for i := range objs {
		out[i] = objs[i].Snapshot()
	}
	return out, nil
}

func (s *session) FindObjectByName(ctx context.Context, name string) (*plugin.Object, error) {
	obj, err := s.host.store.FindByName(ctx, name)
	if errors.Is(err, world.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err //nolint:wrapcheck // store errors carry codes
	}
	snap := obj.Snapshot()
	return &snap, nil
}

func (s *session) TriggerHook(ctx context.Context, name string, payload any) error {
	if s.host.bus == nil {
		return oops.Code("NO_HANDLER").With("hook", name).Errorf("no hook bus configured")
	}
	return s.host.bus.Trigger(ctx, name, payload) //nolint:wrapcheck // bus errors carry codes
}

func (s *session) Alert(_ context.Context, message string, severity plugin.Severity) error {
	if message == "" {
		return oops.Code("INVALID_ALERT").Errorf("alert message cannot be empty")
	}
	if severity == "" {
		severity = plugin.SeverityInfo
	}
	s.sink.add(Alert{Message: message, Severity: severity, Component: s.componentID})
	return nil
}
