// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/mediabutton/pkg/errutil"
)

func obj(id string, x, y float64, components ...string) *SpatialObject {
	o := &SpatialObject{ID: id, Name: id, Position: Position{X: x, Y: y}}
	for _, c := range components {
		o.Components = append(o.Components, Component{ID: c})
	}
	return o
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Create(ctx, obj("a", 1, 2, "media-playback:media-source")))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.True(t, got.HasComponent("media-playback:media-source"))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_GetMissing(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), "nope")
	require.Error(t, err)
	errutil.AssertCodedSentinel(t, err, CodeObjectNotFound, ErrNotFound)
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, obj("a", 0, 0)))

	err := store.Create(ctx, obj("a", 5, 5))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemoryStore_CreateInvalid(t *testing.T) {
	err := NewMemoryStore().Create(context.Background(), &SpatialObject{ID: "x"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_OBJECT")
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	o := obj("a", 0, 0)
	o.Properties = map[string]any{"k": "v"}
	require.NoError(t, store.Create(ctx, o))

	o.Properties["k"] = "mutated"
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "v", got.Properties["k"])

	got.Properties["k"] = "mutated again"
	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "v", again.Properties["k"])
}

func TestMemoryStore_FetchInRadius(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, o := range []*SpatialObject{
		obj("c", 3, 4),
		obj("a", 0, 0),
		obj("far", 30, 0),
		obj("edge", 0, 20),
	} {
		require.NoError(t, store.Create(ctx, o))
	}

	got, err := store.FetchInRadius(ctx, Position{}, 20)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, o := range got {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"c", "a", "edge"}, ids, "creation order, radius inclusive")
}

func TestMemoryStore_FetchInRadiusNegative(t *testing.T) {
	_, err := NewMemoryStore().FetchInRadius(context.Background(), Position{}, -1)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_RADIUS")
}

func TestMemoryStore_FindByName(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	first := &SpatialObject{ID: "1", Name: "Screen"}
	second := &SpatialObject{ID: "2", Name: "Screen"}
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	got, err := store.FindByName(ctx, "Screen")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	_, err = store.FindByName(ctx, "Nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_MergeProperties(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	o := obj("p", 0, 0)
	o.Properties = map[string]any{
		"public": map[string]any{"title": "Lobby", "media_source_sync_action": "pause"},
	}
	require.NoError(t, store.Create(ctx, o))

	require.NoError(t, store.MergeProperties(ctx, "p", map[string]any{
		"src":    "https://example.com/v.mp4",
		"public": map[string]any{"media_source_sync_action": "play"},
	}))

	got, err := store.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"src":    "https://example.com/v.mp4",
		"public": map[string]any{"title": "Lobby", "media_source_sync_action": "play"},
	}, got.Properties)

	err = store.MergeProperties(ctx, "missing", map[string]any{"a": 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConcurrentMerges(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, obj("p", 0, 0)))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.MergeProperties(ctx, "p", map[string]any{"n": i})
			_, _ = store.FetchInRadius(ctx, Position{}, 5)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "p")
	require.NoError(t, err)
	assert.Contains(t, got.Properties, "n")
}

const worldYAML = `
objects:
  - id: btn
    name: Lobby Button
    position: {x: 1, y: 2}
    components:
      - id: media-button
        fields:
          media-source-id: https://example.com/v.mp4
          who-can-click: Everyone
  - name: Lobby Screen
    position: {x: 4, y: 6, z: 1}
    components:
      - id: media-playback:media-source
`

func TestParseWorldFile(t *testing.T) {
	store, err := ParseWorldFile(context.Background(), []byte(worldYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	btn, err := store.Get(context.Background(), "btn")
	require.NoError(t, err)
	c, ok := btn.Component("media-button")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/v.mp4", c.Fields["media-source-id"])

	screen, err := store.FindByName(context.Background(), "Lobby Screen")
	require.NoError(t, err)
	assert.NotEmpty(t, screen.ID)
	assert.Equal(t, 1.0, screen.Position.Z)
}

func TestParseWorldFile_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantCode string
	}{
		{"malformed yaml", "objects: [:", "INVALID_WORLD_FILE"},
		{"missing name", "objects:\n  - id: x\n", "INVALID_OBJECT"},
		{"duplicate ids", "objects:\n  - {id: x, name: a}\n  - {id: x, name: b}\n", CodeAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWorldFile(context.Background(), []byte(tt.data))
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestLoadWorldFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(worldYAML), 0o600))

	store, err := LoadWorldFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	_, err = LoadWorldFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMemoryStore_KeepsProvidedCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	o := obj("a", 0, 0)
	o.CreatedAt = at
	require.NoError(t, store.Create(ctx, o))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, at, got.CreatedAt)
}

func TestMemoryStore_OrdersByCreatedAtThenID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, tc := range []struct {
		id  string
		age time.Duration
	}{
		{"late", 2 * time.Hour},
		{"b-tie", time.Hour},
		{"early", 0},
		{"a-tie", time.Hour},
	} {
		o := obj(tc.id, 0, 0)
		o.Name = "Screen"
		o.CreatedAt = base.Add(tc.age)
		require.NoError(t, store.Create(ctx, o))
	}
	require.NoError(t, store.Create(ctx, &SpatialObject{ID: "0-unstamped", Name: "Screen"}))

	got, err := store.FetchInRadius(ctx, Position{}, 1)
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, o := range got {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"early", "a-tie", "b-tie", "late", "0-unstamped"}, ids)

	first, err := store.FindByName(ctx, "Screen")
	require.NoError(t, err)
	assert.Equal(t, "early", first.ID)
}

func TestSeed_SkipsExisting(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, obj("btn", 9, 9)))

	created, err := Seed(ctx, store, []byte(worldYAML))
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 2, store.Len())

	btn, err := store.Get(ctx, "btn")
	require.NoError(t, err)
	assert.Equal(t, 9.0, btn.Position.X, "existing object is untouched")

	_, err = Seed(ctx, store, []byte("objects:\n  - id: y\n"))
	errutil.AssertErrorCode(t, err, "INVALID_OBJECT")
}
