package scope_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/scope"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

func TestScope(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Scope Suite")
}

type mockStore struct {
	cached      map[string]int64
	lastErr     error
	rememberErr error
	lastCalls   int
	remembered  []int64
}

func newMockStore() *mockStore {
	return &mockStore{cached: map[string]int64{}}
}

func (m *mockStore) Last(_ context.Context, clientID string) (int64, bool, error) {
	m.lastCalls++
	if m.lastErr != nil {
		return 0, false, m.lastErr
	}
	id, ok := m.cached[clientID]
	return id, ok, nil
}

func (m *mockStore) Remember(_ context.Context, clientID string, departmentID int64) error {
	if m.rememberErr != nil {
		return m.rememberErr
	}
	m.cached[clientID] = departmentID
	m.remembered = append(m.remembered, departmentID)
	return nil
}

var _ = Describe("Resolver", func() {
	var (
		store    *mockStore
		resolver *scope.Resolver
		ctx      context.Context
	)

	BeforeEach(func() {
		store = newMockStore()
		resolver = scope.NewResolver(store, logger.Discard())
		ctx = context.Background()
	})

	It("prefers the route over the query and the cache", func() {
		store.cached["c"] = 9
		res, err := resolver.Resolve(ctx, "c", scope.Candidates{Route: "2", Query: "3"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsResolved()).To(BeTrue())
		Expect(res.DepartmentID).To(Equal(int64(2)))
		Expect(res.Source).To(Equal(scope.SourceRoute))
		Expect(store.lastCalls).To(Equal(0))
	})

	It("prefers the employee's own department over the route", func() {
		res, err := resolver.Resolve(ctx, "c", scope.Candidates{Employee: 4, Route: "2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.DepartmentID).To(Equal(int64(4)))
		Expect(res.Source).To(Equal(scope.SourceEmployee))
	})

	It("uses the query when the route is empty or invalid", func() {
		for _, route := range []string{"", "abc", "0", "-1"} {
			res, err := resolver.Resolve(ctx, "c", scope.Candidates{Route: route, Query: "3"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.DepartmentID).To(Equal(int64(3)), "route %q", route)
			Expect(res.Source).To(Equal(scope.SourceQuery))
		}
	})

	It("falls back to the cache", func() {
		store.cached["c"] = 9
		res, err := resolver.Resolve(ctx, "c", scope.Candidates{Query: " "})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.DepartmentID).To(Equal(int64(9)))
		Expect(res.Source).To(Equal(scope.SourceCache))
		Expect(store.remembered).To(BeEmpty())
	})

	It("is missing when no source has a value", func() {
		res, err := resolver.Resolve(ctx, "c", scope.Candidates{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsResolved()).To(BeFalse())
	})

	It("treats an unreadable cache as missing", func() {
		store.lastErr = errors.New("locked")
		res, err := resolver.Resolve(ctx, "c", scope.Candidates{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsResolved()).To(BeFalse())
	})

	It("persists a freshly resolved id", func() {
		_, err := resolver.Resolve(ctx, "c", scope.Candidates{Query: "5"})
		Expect(err).NotTo(HaveOccurred())
		Expect(store.cached).To(HaveKeyWithValue("c", int64(5)))
	})

	It("fails when the id cannot be persisted", func() {
		store.rememberErr = errors.New("read-only")
		res, err := resolver.Resolve(ctx, "c", scope.Candidates{Route: "5"})
		Expect(res.IsResolved()).To(BeFalse())

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeStateStore))
	})
})
