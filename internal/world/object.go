// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package world holds the spatial object model components operate on.
package world

import (
	"fmt"
	"math"
	"time"

	"github.com/holomush/mediabutton/pkg/plugin"
)

// Position is a point in world space.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z,omitempty" yaml:"z,omitempty"`
}

// Distance2D returns the Euclidean distance to other on the x/y plane.
// Z is ignored.
func (p Position) Distance2D(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Component is a component instance attached to an object, with its
// configured field values.
type Component struct {
	ID     string         `json:"id" yaml:"id"`
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// SpatialObject is an object placed in the world.
type SpatialObject struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Position   Position       `json:"position" yaml:"position"`
	Components []Component    `json:"components,omitempty" yaml:"components,omitempty"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	CreatedAt  time.Time      `json:"created_at" yaml:"-"`
}

// ComponentIDs returns the IDs of the attached components in attach order.
func (o *SpatialObject) ComponentIDs() []string {
	if len(o.Components) == 0 {
		return nil
	}
	ids := make([]string, len(o.Components))
	for i, c := range o.Components {
		ids[i] = c.ID
	}
	return ids
}

// HasComponent reports whether a component with the given ID is attached.
func (o *SpatialObject) HasComponent(id string) bool {
	for _, c := range o.Components {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Component returns the attached component with the given ID.
func (o *SpatialObject) Component(id string) (Component, bool) {
	for _, c := range o.Components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}

// Validate checks the object's fields.
func (o *SpatialObject) Validate() error {
	if err := ValidateID("id", o.ID); err != nil {
		return err
	}
	if err := ValidateName(o.Name); err != nil {
		return err
	}
	for i, c := range o.Components {
		if err := ValidateID(fmt.Sprintf("components[%d].id", i), c.ID); err != nil {
			return err
		}
	}
	if math.IsNaN(o.Position.X) || math.IsNaN(o.Position.Y) || math.IsNaN(o.Position.Z) {
		return invalid("position", "must be a number")
	}
	return nil
}

// Snapshot converts the object to the read-only view handed to components.
func (o *SpatialObject) Snapshot() plugin.Object {
	return plugin.Object{
		ID:         o.ID,
		Name:       o.Name,
		Position:   plugin.Position{X: o.Position.X, Y: o.Position.Y, Z: o.Position.Z},
		Components: o.ComponentIDs(),
		Properties: cloneMap(o.Properties),
	}
}

// Clone returns a deep copy of the object's maps and slices.
func (o *SpatialObject) Clone() *SpatialObject {
	out := *o
	if o.Components != nil {
		out.Components = make([]Component, len(o.Components))
		for i, c := range o.Components {
			out.Components[i] = Component{ID: c.ID, Fields: cloneMap(c.Fields)}
		}
	}
	out.Properties = cloneMap(o.Properties)
	return &out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}
