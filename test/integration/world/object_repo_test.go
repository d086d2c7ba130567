// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package world_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/samber/oops"

	"github.com/holomush/mediabutton/internal/world"
)

var _ = Describe("ObjectRepository", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupObjects(ctx)
	})

	Describe("Create and Get", func() {
		It("round-trips components and properties", func() {
			obj := createTestObject("Button", 1, 2, "media-button")
			obj.Components[0].Fields = map[string]any{"media-source-id": "https://example.com/a.mp4"}
			obj.Properties = map[string]any{"public": map[string]any{"color": "red"}}
			Expect(env.Objects.Create(ctx, obj)).To(Succeed())

			got, err := env.Objects.Get(ctx, obj.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Button"))
			Expect(got.Position).To(Equal(world.Position{X: 1, Y: 2}))
			Expect(got.HasComponent("media-button")).To(BeTrue())
			Expect(got.Components[0].Fields).To(HaveKeyWithValue("media-source-id", "https://example.com/a.mp4"))
			Expect(got.Properties).To(HaveKey("public"))
		})

		It("rejects duplicate IDs", func() {
			obj := createTestObject("Button", 0, 0)
			Expect(env.Objects.Create(ctx, obj)).To(Succeed())

			err := env.Objects.Create(ctx, obj)
			Expect(errors.Is(err, world.ErrAlreadyExists)).To(BeTrue())
		})

		It("reports missing objects", func() {
			_, err := env.Objects.Get(ctx, "missing")
			Expect(errors.Is(err, world.ErrNotFound)).To(BeTrue())

			oopsErr, ok := oops.AsOops(err)
			Expect(ok).To(BeTrue())
			Expect(oopsErr.Code()).To(Equal(world.CodeObjectNotFound))
		})
	})

	Describe("FetchInRadius", func() {
		It("includes the boundary and orders by creation", func() {
			base := time.Now().Add(-time.Hour)
			far := createTestObject("Far", 30, 0)
			edge := createTestObject("Edge", 3, 4)
			edge.CreatedAt = base.Add(2 * time.Second)
			near := createTestObject("Near", 1, 1)
			near.CreatedAt = base.Add(time.Second)
			for _, o := range []*world.SpatialObject{far, edge, near} {
				Expect(env.Objects.Create(ctx, o)).To(Succeed())
			}

			got, err := env.Objects.FetchInRadius(ctx, world.Position{}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			Expect(got[0].ID).To(Equal(near.ID))
			Expect(got[1].ID).To(Equal(edge.ID))
		})
	})

	Describe("FindByName", func() {
		It("returns the oldest match", func() {
			older := createTestObject("Screen", 0, 0)
			older.CreatedAt = time.Now().Add(-time.Minute)
			newer := createTestObject("Screen", 5, 5)
			Expect(env.Objects.Create(ctx, newer)).To(Succeed())
			Expect(env.Objects.Create(ctx, older)).To(Succeed())

			got, err := env.Objects.FindByName(ctx, "Screen")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(older.ID))

			_, err = env.Objects.FindByName(ctx, "Nobody")
			Expect(errors.Is(err, world.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("MergeProperties", func() {
		It("merges nested maps key by key", func() {
			obj := createTestObject("Screen", 0, 0)
			obj.Properties = map[string]any{"public": map[string]any{"keep": "me", "nonce": "a"}}
			Expect(env.Objects.Create(ctx, obj)).To(Succeed())

			Expect(env.Objects.MergeProperties(ctx, obj.ID, map[string]any{
				"src":    "https://example.com/b.mp4",
				"public": map[string]any{"nonce": "b"},
			})).To(Succeed())

			got, err := env.Objects.Get(ctx, obj.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Properties).To(HaveKeyWithValue("src", "https://example.com/b.mp4"))
			Expect(got.Properties["public"]).To(Equal(map[string]any{"keep": "me", "nonce": "b"}))
		})

		It("serializes concurrent merges", func() {
			obj := createTestObject("Counter", 0, 0)
			Expect(env.Objects.Create(ctx, obj)).To(Succeed())

			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func(key string) {
					defer GinkgoRecover()
					defer wg.Done()
					Expect(env.Objects.MergeProperties(ctx, obj.ID, map[string]any{
						"public": map[string]any{key: true},
					})).To(Succeed())
				}(string(rune('a' + i)))
			}
			wg.Wait()

			got, err := env.Objects.Get(ctx, obj.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Properties["public"]).To(HaveLen(10))
		})

		It("reports missing objects", func() {
			err := env.Objects.MergeProperties(ctx, "missing", map[string]any{"a": 1})
			Expect(errors.Is(err, world.ErrNotFound)).To(BeTrue())
		})
	})
})
