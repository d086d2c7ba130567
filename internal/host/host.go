// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package host runs components attached to world objects.
//
// A click loads the object, then calls every registered component attached
// to it with a plugin.Host bound to the clicking user. A failing component
// is logged and does not stop the others.
package host

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/mediabutton/internal/access"
	"github.com/holomush/mediabutton/internal/hooks"
	"github.com/holomush/mediabutton/internal/world"
	"github.com/holomush/mediabutton/pkg/errutil"
	"github.com/holomush/mediabutton/pkg/plugin"
)

var tracer = otel.Tracer("mediabutton/host")

// DefaultClickTimeout bounds each component call.
const DefaultClickTimeout = 5 * time.Second

// ClickResult is what a click produced.
type ClickResult struct {
	ObjectID string `json:"object_id"`
	UserID   string `json:"user_id"`
	// Invoked lists the components that ran, in attachment order.
	Invoked []string `json:"invoked"`
	Alerts  []Alert  `json:"alerts"`
}

// Host dispatches clicks to components.
type Host struct {
	store    world.ObjectStore
	admins   access.AdminChecker
	bus      *hooks.Bus
	registry *Registry
	timeout  time.Duration
}

// Option configures a Host.
type Option func(*Host)

// WithClickTimeout bounds each component call. Non-positive disables the bound.
func WithClickTimeout(d time.Duration) Option {
	return func(h *Host) { h.timeout = d }
}

// New creates a Host.
func New(store world.ObjectStore, admins access.AdminChecker, bus *hooks.Bus, registry *Registry, opts ...Option) *Host {
	if registry == nil {
		registry = NewRegistry()
	}
	h := &Host{
		store:    store,
		admins:   admins,
		bus:      bus,
		registry: registry,
		timeout:  DefaultClickTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registry returns the host's component registry.
func (h *Host) Registry() *Registry {
	return h.registry
}

// Click runs every component attached to objectID on behalf of userID.
// It fails only when the click itself is invalid or the object cannot be
// loaded; component errors are logged and reflected in alerts.
func (h *Host) Click(ctx context.Context, objectID, userID string) (*ClickResult, error) {
	if objectID == "" {
		return nil, oops.Code("INVALID_CLICK").Errorf("object ID cannot be empty")
	}

	ctx, span := tracer.Start(ctx, "host.click", trace.WithAttributes(
		attribute.String("object_id", objectID),
		attribute.String("user_id", userID),
	))
	defer span.End()

	obj, err := h.store.Get(ctx, objectID)
	if err != nil {
		span.RecordError(err)
		return nil, err //nolint:wrapcheck // store errors carry OBJECT_NOT_FOUND
	}

	sink := &alertSink{}
	result := &ClickResult{ObjectID: objectID, UserID: userID, Invoked: []string{}}
	for _, attached := range obj.Components {
		comp, ok := h.registry.Get(attached.ID)
		if !ok {
			slog.DebugContext(ctx, "no component registered", "object_id", objectID, "component", attached.ID)
			continue
		}
		result.Invoked = append(result.Invoked, attached.ID)
		h.invoke(ctx, comp, attached, sink, plugin.Click{
			ObjectID: objectID,
			UserID:   userID,
			Fields:   plugin.Fields(attached.Fields).Clone(),
		})
	}
	result.Alerts = sink.list()
	if result.Alerts == nil {
		result.Alerts = []Alert{}
	}
	return result, nil
}

func (h *Host) invoke(ctx context.Context, comp plugin.Component, attached world.Component, sink *alertSink, click plugin.Click) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	sess := &session{host: h, userID: click.UserID, componentID: attached.ID, sink: sink}
	start := time.Now()
	err := comp.OnClick(ctx, sess, click)
	recordClick(attached.ID, err, time.Since(start))
	if err != nil {
		attrs := append([]any{"object_id", click.ObjectID, "component", attached.ID}, errutil.Attrs(err)...)
		slog.WarnContext(ctx, "component click failed", attrs...)
	}
}
