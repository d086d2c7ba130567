// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"context"
	"errors"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Compile-time interface check.
var _ ObjectStore = (*MemoryStore)(nil)

// MemoryStore is an in-process ObjectStore. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*SpatialObject
	order   []string // sorted by (CreatedAt, ID), as the postgres store orders rows
	last    time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*SpatialObject),
		now:     time.Now,
	}
}

// WorldFile is the YAML layout used to seed a MemoryStore.
type WorldFile struct {
	Objects []SpatialObject `yaml:"objects"`
}

// LoadWorldFile reads a YAML world file and returns a store seeded with its
// objects, in file order. Objects without an ID get a generated one.
func LoadWorldFile(ctx context.Context, path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return ParseWorldFile(ctx, data)
}

// ParseWorldFile seeds a store from YAML world data.
func ParseWorldFile(ctx context.Context, data []byte) (*MemoryStore, error) {
	store := NewMemoryStore()
	if _, err := seed(ctx, store, data, false); err != nil {
		return nil, err
	}
	return store, nil
}

// Seed creates the objects of YAML world data in store, in file order.
// Objects whose ID already exists are left alone. It returns the number of
// objects created.
func Seed(ctx context.Context, store ObjectStore, data []byte) (int, error) {
	return seed(ctx, store, data, true)
}

func seed(ctx context.Context, store ObjectStore, data []byte, skipExisting bool) (int, error) {
	var wf WorldFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return 0, oops.Code("INVALID_WORLD_FILE").Wrap(err)
	}

	created := 0
	for i := range wf.Objects {
		obj := &wf.Objects[i]
		if obj.ID == "" {
			obj.ID = NewID()
		}
		err := store.Create(ctx, obj)
		if skipExisting && errors.Is(err, ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return created, oops.Code("INVALID_WORLD_FILE").With("index", i).Wrap(err)
		}
		created++
	}
	return created, nil
}

// Get implements ObjectStore.
func (s *MemoryStore) Get(_ context.Context, id string) (*SpatialObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[id]
	if !ok {
		return nil, oops.Code(CodeObjectNotFound).With("id", id).Wrap(ErrNotFound)
	}
	return obj.Clone(), nil
}

// FetchInRadius implements ObjectStore.
func (s *MemoryStore) FetchInRadius(_ context.Context, center Position, radius float64) ([]SpatialObject, error) {
	if radius < 0 {
		return nil, oops.Code("INVALID_RADIUS").With("radius", radius).Errorf("radius must not be negative")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []SpatialObject
	for _, id := range s.order {
		obj := s.objects[id]
		if obj.Position.Distance2D(center) <= radius {
			found = append(found, *obj.Clone())
		}
	}
	return found, nil
}

// FindByName implements ObjectStore.
func (s *MemoryStore) FindByName(_ context.Context, name string) (*SpatialObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if obj := s.objects[id]; obj.Name == name {
			return obj.Clone(), nil
		}
	}
	return nil, oops.Code(CodeObjectNotFound).With("name", name).Wrap(ErrNotFound)
}

// Create implements ObjectStore.
func (s *MemoryStore) Create(_ context.Context, obj *SpatialObject) error {
	if err := obj.Validate(); err != nil {
		return oops.Code("INVALID_OBJECT").With("id", obj.ID).Wrap(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[obj.ID]; ok {
		return oops.Code(CodeAlreadyExists).With("id", obj.ID).Wrap(ErrAlreadyExists)
	}
	stored := obj.Clone()
	if stored.CreatedAt.IsZero() {
		// Stamps strictly increase so unstamped objects keep creation order.
		ts := s.now()
		if !ts.After(s.last) {
			ts = s.last.Add(time.Nanosecond)
		}
		stored.CreatedAt = ts
	}
	if stored.CreatedAt.After(s.last) {
		s.last = stored.CreatedAt
	}
	pos, _ := slices.BinarySearchFunc(s.order, stored, func(id string, target *SpatialObject) int {
		return compareCreated(s.objects[id], target)
	})
	s.objects[obj.ID] = stored
	s.order = slices.Insert(s.order, pos, obj.ID)
	return nil
}

func compareCreated(a, b *SpatialObject) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// MergeProperties implements ObjectStore.
func (s *MemoryStore) MergeProperties(_ context.Context, id string, changes map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[id]
	if !ok {
		return oops.Code(CodeObjectNotFound).With("id", id).Wrap(ErrNotFound)
	}
	obj.Properties = MergeProperties(obj.Properties, changes)
	return nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
