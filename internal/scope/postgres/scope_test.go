package postgres_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/hr-portal/internal/core/datamodel/portal"
	"github.com/frahmantamala/hr-portal/internal/scope"
	scopePostgres "github.com/frahmantamala/hr-portal/internal/scope/postgres"
)

func TestScopePostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Scope Postgres Suite")
}

var _ = Describe("ScopeRepository", func() {
	var (
		repo scope.Store
		ctx  context.Context
	)

	BeforeEach(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&portal.DepartmentScope{})).To(Succeed())

		repo = scopePostgres.NewScopeRepository(db)
		ctx = context.Background()
	})

	It("reports an unknown client as absent", func() {
		_, ok, err := repo.Last(ctx, "client-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("remembers the department of a client", func() {
		Expect(repo.Remember(ctx, "client-1", 3)).To(Succeed())

		id, ok, err := repo.Last(ctx, "client-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(int64(3)))
	})

	It("overwrites the previous department", func() {
		Expect(repo.Remember(ctx, "client-1", 3)).To(Succeed())
		Expect(repo.Remember(ctx, "client-1", 7)).To(Succeed())
		Expect(repo.Remember(ctx, "client-2", 1)).To(Succeed())

		id, _, err := repo.Last(ctx, "client-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(7)))

		other, _, err := repo.Last(ctx, "client-2")
		Expect(err).NotTo(HaveOccurred())
		Expect(other).To(Equal(int64(1)))
	})
})
