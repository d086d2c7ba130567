// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package plugin defines the API components use to talk to their host.
//
// A component is attached to world objects and reacts to clicks. The host
// hands every click a [Host] scoped to the clicking user; components never
// hold on to it between clicks.
package plugin

import (
	"context"
)

// Severity classifies a user-facing alert.
type Severity string

// Alert severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Position is a point in world space. Z is carried but most components ignore it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Object is a read-only snapshot of a world object.
type Object struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Position   Position       `json:"position"`
	Components []string       `json:"components,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// HasComponent reports whether the object carries the component id.
func (o *Object) HasComponent(id string) bool {
	for _, c := range o.Components {
		if c == id {
			return true
		}
	}
	return false
}

// Host is the capability set the platform exposes to a component during a
// single click. Implementations are bound to the clicking user.
type Host interface {
	// IsAdmin reports whether the clicking user is an administrator.
	IsAdmin(ctx context.Context) (bool, error)

	// GetObject fetches an object by ID.
	GetObject(ctx context.Context, id string) (*Object, error)

	// FetchObjectsInRadius returns objects whose (x, y) position lies within
	// radius of (x, y), in the store's native order.
	FetchObjectsInRadius(ctx context.Context, x, y, radius float64) ([]Object, error)

	// FindObjectByName returns the object with the given name, or nil when
	// nothing matches.
	FindObjectByName(ctx context.Context, name string) (*Object, error)

	// TriggerHook invokes a named platform hook with a JSON-encodable payload.
	TriggerHook(ctx context.Context, name string, payload any) error

	// Alert shows a message to the clicking user.
	Alert(ctx context.Context, message string, severity Severity) error
}

// Click describes one activation of a component attached to an object.
type Click struct {
	// ObjectID is the object the component is attached to.
	ObjectID string `json:"object_id"`
	// UserID identifies the clicking user.
	UserID string `json:"user_id"`
	// Fields holds the component's configured settings on that object.
	Fields Fields `json:"fields,omitempty"`
}

// Component reacts to clicks on objects it is attached to.
type Component interface {
	OnClick(ctx context.Context, host Host, click Click) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(ctx context.Context, host Host, click Click) error

// OnClick implements Component.
func (f ComponentFunc) OnClick(ctx context.Context, host Host, click Click) error {
	return f(ctx, host, click)
}

// ComponentDescriptor registers a component with the host.
type ComponentDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Settings returns the fields an editor should show, given the current
	// field values. It must be a pure function.
	Settings func(current Fields) []SettingField `json:"-"`
}
