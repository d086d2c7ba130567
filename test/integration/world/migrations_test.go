// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package world_test

import (
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/mediabutton/internal/store"
)

var _ = Describe("Migrator", func() {
	It("reports the latest version with nothing pending", func() {
		m, err := store.NewMigrator(env.connStr)
		Expect(err).NotTo(HaveOccurred())
		defer func() { Expect(m.Close()).To(Succeed()) }()

		versions, err := store.MigrationVersions()
		Expect(err).NotTo(HaveOccurred())
		Expect(versions).NotTo(BeEmpty())

		version, dirty, err := m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(dirty).To(BeFalse())
		Expect(version).To(Equal(versions[len(versions)-1]))

		pending, err := m.PendingMigrations()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeEmpty())

		Expect(m.Up()).To(Succeed(), "re-applying is a no-op")
	})
})
