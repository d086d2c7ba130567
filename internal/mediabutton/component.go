// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mediabutton

import (
	"context"
	"log/slog"

	"github.com/holomush/mediabutton/pkg/plugin"
)

// Compile-time interface check.
var _ plugin.Component = (*Component)(nil)

// Component is the media button as a plugin component.
type Component struct {
	resolver *Resolver
}

// NewComponent creates the component. A nil resolver uses defaults.
func NewComponent(resolver *Resolver) *Component {
	if resolver == nil {
		resolver = NewResolver()
	}
	return &Component{resolver: resolver}
}

// OnClick implements plugin.Component.
func (c *Component) OnClick(ctx context.Context, host plugin.Host, click plugin.Click) error {
	cfg := ParseConfig(click.Fields)

	var req Request
	if cfg.AccessPolicy == AdminOnly {
		isAdmin, err := host.IsAdmin(ctx)
		if err != nil {
			slog.WarnContext(ctx, "admin check failed, treating user as non-admin",
				"object_id", click.ObjectID,
				"user_id", click.UserID,
				"error", err)
		}
		req.IsAdmin = isAdmin && err == nil
	}

	if cfg.AccessPolicy.Permits(req.IsAdmin) {
		button, err := host.GetObject(ctx, click.ObjectID)
		if err != nil {
			notify(ctx, host, ResolutionFailedMessage, plugin.SeverityError)
			return resolutionFailed("get_button", err)
		}
		req.Position = button.Position
	}

	outcome, err := c.resolver.Activate(ctx, req, cfg, hostCollaborators{host: host})
	slog.DebugContext(ctx, "media button activated",
		"object_id", click.ObjectID,
		"user_id", click.UserID,
		"outcome", outcome.String())
	return err
}

// hostCollaborators adapts a plugin.Host to Collaborators.
type hostCollaborators struct {
	host plugin.Host
}

func (h hostCollaborators) FetchObjectsInRadius(ctx context.Context, center plugin.Position, radius float64) ([]plugin.Object, error) {
	return h.host.FetchObjectsInRadius(ctx, center.X, center.Y, radius) //nolint:wrapcheck // resolver wraps lookup errors
}

func (h hostCollaborators) FindObjectByName(ctx context.Context, name string) (*plugin.Object, error) {
	return h.host.FindObjectByName(ctx, name) //nolint:wrapcheck // resolver wraps lookup errors
}

func (h hostCollaborators) DispatchPlaybackCommand(ctx context.Context, cmd PlaybackCommand) error {
	return h.host.TriggerHook(ctx, cmd.EventName, cmd.Payload()) //nolint:wrapcheck // resolver logs dispatch errors
}

func (h hostCollaborators) NotifyUser(ctx context.Context, message string, severity plugin.Severity) {
	notify(ctx, h.host, message, severity)
}

func notify(ctx context.Context, host plugin.Host, message string, severity plugin.Severity) {
	if err := host.Alert(ctx, message, severity); err != nil {
		slog.WarnContext(ctx, "failed to alert user", "message", message, "error", err)
	}
}
