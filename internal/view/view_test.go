package view_test

import (
	"errors"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/view"
)

func TestView(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "View Suite")
}

var _ = Describe("Page", func() {
	It("classifies an empty row set as empty", func() {
		page := view.Rendered[int](nil)
		Expect(page.State).To(Equal(view.StateEmpty))
		Expect(page.Rows).NotTo(BeNil())
		Expect(page.Rows).To(BeEmpty())
	})

	It("classifies rows as ready", func() {
		page := view.Rendered([]int{1, 2})
		Expect(page.State).To(Equal(view.StateReady))
		Expect(page.Error).To(BeNil())
	})

	It("marks connection failures as retryable", func() {
		page := view.Failed[int](internal.NewConnectionError(internal.MsgConnectionFailed, errors.New("dial tcp")))
		Expect(page.State).To(Equal(view.StateError))
		Expect(page.Error.Retry).To(BeTrue())
		Expect(page.Error.Message).To(Equal(internal.MsgConnectionFailed))
	})

	It("does not offer retry for identity failures", func() {
		page := view.Failed[int](internal.NewIdentityError(internal.MsgIdentityFailed, nil))
		Expect(page.Error.Type).To(Equal(internal.ErrorTypeIdentity))
		Expect(page.Error.Retry).To(BeFalse())
	})

	It("treats unknown errors as connection failures", func() {
		failure := view.FailureFrom(errors.New("unexpected"))
		Expect(failure.Type).To(Equal(internal.ErrorTypeConnection))
		Expect(failure.Retry).To(BeTrue())
	})
})

var _ = Describe("Mounts", func() {
	It("replaces the previous screen of a client", func() {
		mounts := view.NewMounts[string]()
		mounts.Put("client-a", "first")
		mounts.Put("client-a", "second")
		mounts.Put("client-b", "other")

		screen, ok := mounts.Get("client-a")
		Expect(ok).To(BeTrue())
		Expect(screen).To(Equal("second"))
		Expect(mounts.Len()).To(Equal(2))

		mounts.Drop("client-a")
		_, ok = mounts.Get("client-a")
		Expect(ok).To(BeFalse())
	})

	It("is safe for concurrent clients", func() {
		mounts := view.NewMounts[int]()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				mounts.Put(string(rune('a'+n%26)), n)
				mounts.Get("a")
			}(i)
		}
		wg.Wait()
		Expect(mounts.Len()).To(Equal(26))
	})
})
