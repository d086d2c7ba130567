// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import "context"

// ObjectStore manages object persistence.
type ObjectStore interface {
	// Get retrieves an object by ID.
	// Returns an error wrapping ErrNotFound when no object has that ID.
	Get(ctx context.Context, id string) (*SpatialObject, error)

	// FetchInRadius returns objects whose x/y distance to center is at most
	// radius, ordered by creation time and then ID.
	FetchInRadius(ctx context.Context, center Position, radius float64) ([]SpatialObject, error)

	// FindByName returns the first object (by creation order) with the
	// given name. Returns an error wrapping ErrNotFound on no match.
	FindByName(ctx context.Context, name string) (*SpatialObject, error)

	// Create persists a new object.
	Create(ctx context.Context, obj *SpatialObject) error

	// MergeProperties merges changes into the object's properties. Nested
	// maps are merged key by key; other values replace existing ones.
	MergeProperties(ctx context.Context, id string, changes map[string]any) error
}

// MergeProperties applies changes onto props following the ObjectStore
// merge rules and returns the result. props is not modified.
func MergeProperties(props, changes map[string]any) map[string]any {
	out := cloneMap(props)
	if out == nil {
		out = make(map[string]any, len(changes))
	}
	for k, v := range changes {
		incoming, ok := v.(map[string]any)
		if !ok {
			out[k] = v
			continue
		}
		existing, ok := out[k].(map[string]any)
		if !ok {
			out[k] = cloneMap(incoming)
			continue
		}
		out[k] = MergeProperties(existing, incoming)
	}
	return out
}
