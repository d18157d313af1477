package events_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-portal/internal/core/events"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(logger.Discard())
	})

	It("delivers an event to every subscriber of its type", func() {
		var calls int32
		handler := func(_ context.Context, e events.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		}
		bus.Subscribe(events.EventTypeAbsenceStatusChanged, handler)
		bus.Subscribe(events.EventTypeAbsenceStatusChanged, handler)
		bus.Subscribe(events.EventTypeEmployeeCreated, handler)

		Expect(bus.Publish(context.Background(), events.NewAbsenceStatusChangedEvent(1, 5, "APROBADA"))).To(Succeed())
		bus.Wait()

		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(2)))
	})

	It("keeps running when a handler panics", func() {
		var calls int32
		bus.Subscribe(events.EventTypeAbsenceSubmitted, func(context.Context, events.Event) error {
			panic("boom")
		})
		bus.Subscribe(events.EventTypeAbsenceSubmitted, func(context.Context, events.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})

		Expect(bus.Publish(context.Background(), events.NewAbsenceSubmittedEvent(5, "VACACIONES", "2030-01-01", "2030-01-02"))).To(Succeed())
		bus.Wait()

		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(1)))
	})

	It("stops PublishSync at the first failing handler", func() {
		bus.Subscribe(events.EventTypeTerminationRequested, func(context.Context, events.Event) error {
			return errors.New("rejected")
		})

		err := bus.PublishSync(context.Background(), events.NewTerminationRequestedEvent(5, 1))
		Expect(err).To(HaveOccurred())
	})

	It("reports a panicking handler from PublishSync", func() {
		bus.Subscribe(events.EventTypeTerminationRequested, func(context.Context, events.Event) error {
			panic("boom")
		})

		err := bus.PublishSync(context.Background(), events.NewTerminationRequestedEvent(5, 1))
		Expect(err).To(MatchError(ContainSubstring("panicked")))
	})

	It("refuses events after Shutdown and waits for running handlers", func() {
		release := make(chan struct{})
		var finished int32
		bus.Subscribe(events.EventTypeEmployeeCreated, func(context.Context, events.Event) error {
			<-release
			atomic.StoreInt32(&finished, 1)
			return nil
		})
		Expect(bus.Publish(context.Background(), events.NewEmployeeCreatedEvent(10, "11.111.111-1", "Analista"))).To(Succeed())

		expired, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		Expect(bus.Shutdown(expired)).To(MatchError(context.DeadlineExceeded))

		err := bus.Publish(context.Background(), events.NewEmployeeCreatedEvent(11, "22.222.222-2", "Analista"))
		Expect(err).To(MatchError(events.ErrBusClosed))

		close(release)
		Expect(bus.Shutdown(context.Background())).To(Succeed())
		Expect(atomic.LoadInt32(&finished)).To(Equal(int32(1)))
	})

	It("hands handlers a context that survives the publisher's cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		var handlerErr atomic.Value
		bus.Subscribe(events.EventTypeEmployeeCreated, func(hctx context.Context, _ events.Event) error {
			<-ctx.Done()
			handlerErr.Store(hctx.Err() == nil)
			return nil
		})

		Expect(bus.Publish(ctx, events.NewEmployeeCreatedEvent(10, "11.111.111-1", "Analista"))).To(Succeed())
		cancel()
		bus.Wait()

		Expect(handlerErr.Load()).To(Equal(true))
	})

	It("records lifecycle events in the audit log", func() {
		events.SubscribeAuditLog(bus, logger.Discard())
		Expect(bus.Publish(context.Background(), events.NewEmployeeCreatedEvent(10, "11.111.111-1", "Analista"))).To(Succeed())
		bus.Wait()
	})
})
