// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mediabutton

import (
	"context"
	"sync"

	"github.com/holomush/mediabutton/pkg/plugin"
)

type alertCall struct {
	Message  string
	Severity plugin.Severity
}

type hookCall struct {
	Name    string
	Payload any
}

// fakeHost is an in-memory plugin.Host that records every call.
type fakeHost struct {
	mu sync.Mutex

	admin    bool
	adminErr error

	objects   []plugin.Object
	getErr    error
	fetchErr  error
	findErr   error
	hookErr   error
	alertErr  error
	lastFetch struct {
		X, Y, Radius float64
	}

	fetchCalls int
	findCalls  int
	adminCalls int
	hooks      []hookCall
	alerts     []alertCall
}

func (h *fakeHost) IsAdmin(context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.adminCalls++
	return h.admin, h.adminErr
}

func (h *fakeHost) GetObject(_ context.Context, id string) (*plugin.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.getErr != nil {
		return nil, h.getErr
	}
	for i := range h.objects {
		if h.objects[i].ID == id {
			obj := h.objects[i]
			return &obj, nil
		}
	}
	return nil, errObjectMissing
}

func (h *fakeHost) FetchObjectsInRadius(_ context.Context, x, y, radius float64) ([]plugin.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fetchCalls++
	h.lastFetch.X, h.lastFetch.Y, h.lastFetch.Radius = x, y, radius
	if h.fetchErr != nil {
		return nil, h.fetchErr
	}
	origin := plugin.Position{X: x, Y: y}
	var out []plugin.Object
	for _, obj := range h.objects {
		if distance2D(obj.Position, origin) <= radius {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (h *fakeHost) FindObjectByName(_ context.Context, name string) (*plugin.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.findCalls++
	if h.findErr != nil {
		return nil, h.findErr
	}
	for i := range h.objects {
		if h.objects[i].Name == name {
			obj := h.objects[i]
			return &obj, nil
		}
	}
	return nil, nil
}

func (h *fakeHost) TriggerHook(_ context.Context, name string, payload any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hookCall{Name: name, Payload: payload})
	return h.hookErr
}

func (h *fakeHost) Alert(_ context.Context, message string, severity plugin.Severity) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.alerts = append(h.alerts, alertCall{Message: message, Severity: severity})
	return h.alertErr
}

func (h *fakeHost) payloads() []SetObjectPropertiesPayload {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]SetObjectPropertiesPayload, 0, len(h.hooks))
	for _, c := range h.hooks {
		if p, ok := c.Payload.(SetObjectPropertiesPayload); ok {
			out = append(out, p)
		}
	}
	return out
}

type stringError string

func (e stringError) Error() string { return string(e) }

const errObjectMissing = stringError("object not found")

func button(id string, x, y float64) plugin.Object {
	return plugin.Object{ID: id, Name: id, Position: plugin.Position{X: x, Y: y}, Components: []string{ComponentID}}
}

func player(id string, x, y float64) plugin.Object {
	return plugin.Object{ID: id, Name: id, Position: plugin.Position{X: x, Y: y}, Components: []string{MediaSourceComponentID}}
}
