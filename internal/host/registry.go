// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package host

import (
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/mediabutton/pkg/plugin"
)

// Registry error codes.
const (
	CodeInvalidComponent   = "INVALID_COMPONENT"
	CodeDuplicateComponent = "DUPLICATE_COMPONENT"
	CodeUnknownComponent   = "UNKNOWN_COMPONENT"
)

type registration struct {
	desc      plugin.ComponentDescriptor
	component plugin.Component
	source    string
}

// Registry maps component IDs to implementations. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]registration
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]registration)}
}

// Register adds a component. source names where it came from ("builtin"
// or a plugin name) and only shows up in logs and listings.
func (r *Registry) Register(desc plugin.ComponentDescriptor, c plugin.Component, source string) error {
	if desc.ID == "" {
		return oops.Code(CodeInvalidComponent).Errorf("component ID cannot be empty")
	}
	if c == nil {
		return oops.Code(CodeInvalidComponent).With("component", desc.ID).Errorf("component cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[desc.ID]; ok {
		return oops.Code(CodeDuplicateComponent).
			With("component", desc.ID).
			With("registered_by", existing.source).
			Errorf("component %q is already registered", desc.ID)
	}
	r.byID[desc.ID] = registration{desc: desc, component: c, source: source}
	r.order = append(r.order, desc.ID)
	return nil
}

// Unregister removes a component. Unknown IDs are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the component registered under id.
func (r *Registry) Get(id string) (plugin.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byID[id]
	return reg.component, ok
}

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []plugin.ComponentDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]plugin.ComponentDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].desc)
	}
	return out
}

// Settings returns the settings panel a component shows for the given
// field values. Components without a Settings function show nothing.
func (r *Registry) Settings(id string, current plugin.Fields) ([]plugin.SettingField, error) {
	r.mu.RLock()
	reg, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, oops.Code(CodeUnknownComponent).With("component", id).Errorf("unknown component %q", id)
	}
	if reg.desc.Settings == nil {
		return nil, nil
	}
	return reg.desc.Settings(current), nil
}
