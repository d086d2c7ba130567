// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package world_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/mediabutton/internal/access"
	"github.com/holomush/mediabutton/internal/hooks"
	"github.com/holomush/mediabutton/internal/host"
	"github.com/holomush/mediabutton/internal/mediabutton"
	"github.com/holomush/mediabutton/internal/presenter"
	"github.com/holomush/mediabutton/internal/world"
	"github.com/holomush/mediabutton/pkg/plugin"
)

var _ = Describe("Clicking a media button backed by PostgreSQL", func() {
	var (
		ctx    context.Context
		clicks *host.Host
		button *world.SpatialObject
		screen *world.SpatialObject
	)

	BeforeEach(func() {
		ctx = context.Background()
		cleanupObjects(ctx)

		button = createTestObject("Lobby Button", 0, 0)
		button.Components = []world.Component{{
			ID:     mediabutton.ComponentID,
			Fields: map[string]any{mediabutton.FieldMediaSourceURL: "https://example.com/lobby.mp4"},
		}}
		screen = createTestObject("Lobby Screen", 3, 4, mediabutton.MediaSourceComponentID)
		Expect(env.Objects.Create(ctx, button)).To(Succeed())
		Expect(env.Objects.Create(ctx, screen)).To(Succeed())

		admins, err := access.NewAdminPolicy(nil)
		Expect(err).NotTo(HaveOccurred())
		bus := hooks.NewBus(hooks.WithBaseDelay(time.Millisecond))
		Expect(presenter.New(env.Objects).Register(bus)).To(Succeed())

		registry := host.NewRegistry()
		Expect(registry.Register(mediabutton.Descriptor(), mediabutton.NewComponent(nil), "builtin")).To(Succeed())
		clicks = host.New(env.Objects, admins, bus, registry)
	})

	It("switches the nearest player to the button's source", func() {
		result, err := clicks.Click(ctx, button.ID, "user:ann")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Alerts).To(BeEmpty())

		got, err := env.Objects.Get(ctx, screen.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Properties).To(HaveKeyWithValue(mediabutton.SourceProperty, "https://example.com/lobby.mp4"))

		public, ok := got.Properties[mediabutton.PublicProperty].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(public).To(HaveKeyWithValue(mediabutton.SyncActionKey, mediabutton.SyncActionPlay))
		Expect(public).To(HaveKey(mediabutton.SyncNonceKey))
	})

	It("issues a fresh nonce on every click", func() {
		nonce := func() any {
			got, err := env.Objects.Get(ctx, screen.ID)
			Expect(err).NotTo(HaveOccurred())
			public, _ := got.Properties[mediabutton.PublicProperty].(map[string]any)
			return public[mediabutton.SyncNonceKey]
		}

		_, err := clicks.Click(ctx, button.ID, "user:ann")
		Expect(err).NotTo(HaveOccurred())
		first := nonce()

		_, err = clicks.Click(ctx, button.ID, "user:ann")
		Expect(err).NotTo(HaveOccurred())
		Expect(nonce()).NotTo(Equal(first))
	})

	It("warns when no player is in range", func() {
		lonely := createTestObject("Lonely Button", 500, 500)
		lonely.Components = []world.Component{{
			ID:     mediabutton.ComponentID,
			Fields: map[string]any{mediabutton.FieldMediaSourceURL: "https://example.com/x.mp4"},
		}}
		Expect(env.Objects.Create(ctx, lonely)).To(Succeed())

		result, err := clicks.Click(ctx, lonely.ID, "user:ann")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Alerts).To(HaveLen(1))
		Expect(result.Alerts[0].Severity).To(Equal(plugin.SeverityWarning))
	})
})
