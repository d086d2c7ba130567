// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package presenter applies media property changes to world objects.
package presenter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/mediabutton/internal/hooks"
	"github.com/holomush/mediabutton/internal/world"
)

// Hook is the hook name the presenter serves.
const Hook = "media.presenter.setObjectProperties"

// CodeInvalidChange marks payloads the presenter refuses to apply.
const CodeInvalidChange = "INVALID_PROPERTY_CHANGE"

// SetObjectProperties is the payload of a property-change hook.
type SetObjectProperties struct {
	ObjectID string         `json:"objectID"`
	Changes  map[string]any `json:"changes"`
}

// Presenter writes property changes into an object store.
type Presenter struct {
	store world.ObjectStore
}

// New creates a Presenter backed by store.
func New(store world.ObjectStore) *Presenter {
	return &Presenter{store: store}
}

// Register subscribes the presenter to its hook on bus.
func (p *Presenter) Register(bus *hooks.Bus) error {
	return bus.Register(Hook, p.Handle) //nolint:wrapcheck // bus errors are already coded
}

// Handle implements hooks.Handler. Unknown objects and malformed payloads
// fail permanently; other store errors are retried.
func (p *Presenter) Handle(ctx context.Context, ev hooks.Event) error {
	var payload SetObjectProperties
	if err := ev.Decode(&payload); err != nil {
		return err
	}
	if payload.ObjectID == "" {
		return oops.Code(CodeInvalidChange).With("hook", ev.Name).Errorf("objectID is required")
	}
	if len(payload.Changes) == 0 {
		return oops.Code(CodeInvalidChange).With("object_id", payload.ObjectID).Errorf("changes cannot be empty")
	}

	err := p.store.MergeProperties(ctx, payload.ObjectID, payload.Changes)
	switch {
	case err == nil:
	case errors.Is(err, world.ErrNotFound):
		return err //nolint:wrapcheck // already coded OBJECT_NOT_FOUND
	default:
		return hooks.Retryable(oops.With("object_id", payload.ObjectID).Wrap(err))
	}

	slog.InfoContext(ctx, "object properties updated",
		"object_id", payload.ObjectID,
		"keys", len(payload.Changes))
	return nil
}
