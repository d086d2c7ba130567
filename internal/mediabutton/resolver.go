// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mediabutton implements the media button component: a clickable
// object that finds a media player and tells it to play a URL.
package mediabutton

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/mediabutton/pkg/errutil"
	"github.com/holomush/mediabutton/pkg/plugin"
)

var tracer = otel.Tracer("mediabutton/activate")

// DefaultSearchRadius bounds the nearest-player search, in world units.
const DefaultSearchRadius = 20.0

// Outcome is the terminal state of an activation.
type Outcome int

// Activation outcomes.
const (
	OutcomeDenied Outcome = iota
	OutcomeDispatched
	OutcomeResolutionFailed
	OutcomeMissingConfiguration
)

// String returns the metric label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeDenied:
		return "denied"
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeResolutionFailed:
		return "resolution_failed"
	case OutcomeMissingConfiguration:
		return "missing_configuration"
	default:
		return "unknown"
	}
}

// Request is one click on a button.
type Request struct {
	IsAdmin bool
	// Position is the button's own position.
	Position plugin.Position
}

// Collaborators are the platform services an activation needs.
type Collaborators interface {
	// FetchObjectsInRadius returns objects near center in the platform's order.
	FetchObjectsInRadius(ctx context.Context, center plugin.Position, radius float64) ([]plugin.Object, error)
	// FindObjectByName returns the named object, or nil when there is none.
	FindObjectByName(ctx context.Context, name string) (*plugin.Object, error)
	// DispatchPlaybackCommand hands the command to the playback system.
	DispatchPlaybackCommand(ctx context.Context, cmd PlaybackCommand) error
	// NotifyUser shows a message to the clicking user.
	NotifyUser(ctx context.Context, message string, severity plugin.Severity)
}

// Resolver runs activations. It keeps no per-click state; concurrent
// activations share only the envelope source.
type Resolver struct {
	radius    float64
	envelopes *EnvelopeSource
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSearchRadius sets the nearest-player search radius.
// Non-positive values keep the default.
func WithSearchRadius(r float64) Option {
	return func(res *Resolver) {
		if r > 0 {
			res.radius = r
		}
	}
}

// WithEnvelopeSource sets the source of sync envelopes.
func WithEnvelopeSource(s *EnvelopeSource) Option {
	return func(res *Resolver) {
		if s != nil {
			res.envelopes = s
		}
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{radius: DefaultSearchRadius}
	for _, opt := range opts {
		opt(r)
	}
	if r.envelopes == nil {
		r.envelopes = NewEnvelopeSource(nil)
	}
	return r
}

// SearchRadius returns the configured search radius.
func (r *Resolver) SearchRadius() float64 {
	return r.radius
}

// Activate runs one button activation to a terminal outcome.
//
// An unauthorized click returns OutcomeDenied with a nil error and no side
// effects. Failed lookups and incomplete configuration notify the user once
// and return a coded error. A successful activation dispatches exactly one
// command; a dispatch error is logged, not returned.
func (r *Resolver) Activate(ctx context.Context, req Request, cfg Config, c Collaborators) (outcome Outcome, err error) {
	ctx, span := tracer.Start(ctx, "mediabutton.activate",
		trace.WithAttributes(
			attribute.String("mediabutton.access_policy", cfg.AccessPolicy.String()),
			attribute.Bool("mediabutton.select_by_name", cfg.SelectByName),
		),
	)
	start := time.Now()
	defer func() {
		span.SetAttributes(attribute.String("mediabutton.outcome", outcome.String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		recordActivation(outcome, time.Since(start))
	}()

	if !cfg.AccessPolicy.Permits(req.IsAdmin) {
		return OutcomeDenied, nil
	}

	targetID, err := r.explicitTarget(ctx, cfg, c)
	if err == nil && targetID == "" {
		targetID, err = r.nearestTarget(ctx, req.Position, c)
	}
	if err != nil {
		c.NotifyUser(ctx, ResolutionFailedMessage, plugin.SeverityError)
		return OutcomeResolutionFailed, err
	}

	if targetID == "" || cfg.MediaSourceURL == "" {
		c.NotifyUser(ctx, MissingConfigurationMessage, plugin.SeverityWarning)
		return OutcomeMissingConfiguration, missingConfiguration(targetID != "", cfg.MediaSourceURL != "")
	}

	cmd := r.envelopes.Command(targetID, cfg.MediaSourceURL, cfg.EventName)
	span.SetAttributes(
		attribute.String("mediabutton.target_id", cmd.TargetID),
		attribute.String("mediabutton.sync_nonce", cmd.Sync.Nonce),
	)
	if dispatchErr := c.DispatchPlaybackCommand(ctx, cmd); dispatchErr != nil {
		errutil.LogErrorContext(ctx, slog.Default(), "playback dispatch failed",
			oops.With("target_id", cmd.TargetID).With("hook", cmd.EventName).Wrap(dispatchErr))
	}
	return OutcomeDispatched, nil
}

// explicitTarget returns the configured target ID, or "" when unset.
// A name that matches no object also yields "".
func (r *Resolver) explicitTarget(ctx context.Context, cfg Config, c Collaborators) (string, error) {
	if !cfg.SelectByName {
		return cfg.MediaPlayerID, nil
	}
	if cfg.MediaPlayerName == "" {
		return "", nil
	}
	obj, err := c.FindObjectByName(ctx, cfg.MediaPlayerName)
	if err != nil {
		return "", resolutionFailed("find_by_name", err)
	}
	if obj == nil {
		slog.DebugContext(ctx, "media player name matched nothing, searching nearby",
			"name", cfg.MediaPlayerName)
		return "", nil
	}
	return obj.ID, nil
}

// nearestTarget returns the closest media player around origin, or "".
func (r *Resolver) nearestTarget(ctx context.Context, origin plugin.Position, c Collaborators) (string, error) {
	candidates, err := c.FetchObjectsInRadius(ctx, origin, r.radius)
	if err != nil {
		return "", resolutionFailed("fetch_in_radius", err)
	}
	player, ok := Nearest(candidates, origin, MediaSourceComponentID)
	if !ok {
		return "", nil
	}
	return player.ID, nil
}
