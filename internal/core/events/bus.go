package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/hr-portal/pkg/metrics"
)

// ErrBusClosed is returned by Publish once Shutdown has started.
var ErrBusClosed = errors.New("event bus is shut down")

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Payload() interface{}  { return e.Data }

type Handler func(ctx context.Context, event Event) error

// EventBus fans lifecycle events of the screens (decisions, submissions, new hires,
// termination requests) out to in-process subscribers such as the audit log.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool
	inflight sync.WaitGroup
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("event handler registered",
		"event_type", eventType,
		"total_handlers", len(eb.handlers[eventType]))
}

// Publish runs every subscriber in its own goroutine and returns at once. Handlers get
// a context detached from the publishing request.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return ErrBusClosed
	}

	handlers := eb.handlers[event.EventType()]
	if len(handlers) == 0 {
		eb.logger.Debug("no handlers for event type", "event_type", event.EventType())
		return nil
	}

	hctx := context.WithoutCancel(ctx)
	// added under the read lock: Shutdown either sees the whole batch or none of it
	eb.inflight.Add(len(handlers))
	for _, handler := range handlers {
		go func(h Handler) {
			defer eb.inflight.Done()
			_ = eb.run(hctx, h, event)
		}(handler)
	}
	return nil
}

// PublishSync runs the subscribers in order on the caller's goroutine and stops at the
// first failure. The CLI uses it so a failing handler shows up in the exit status.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := eb.handlers[event.EventType()]
	eb.mu.RUnlock()

	for _, handler := range handlers {
		if err := eb.run(ctx, handler, event); err != nil {
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// Wait blocks until every handler started by Publish has returned.
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}

// Shutdown refuses further events and waits for running handlers until ctx expires.
func (eb *EventBus) Shutdown(ctx context.Context) error {
	eb.mu.Lock()
	eb.closed = true
	eb.mu.Unlock()

	done := make(chan struct{})
	go func() {
		eb.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event handlers still running: %w", ctx.Err())
	}
}

// run invokes one handler, turning a panic into an error.
func (eb *EventBus) run(ctx context.Context, h Handler, event Event) (err error) {
	lg := eb.logger.With("event_type", event.EventType(), "event_id", event.EventID())

	defer func() {
		if r := recover(); r != nil {
			lg.Error("event handler panicked", "panic", r)
			metrics.ObserveEventHandler(event.EventType(), "panic")
			err = fmt.Errorf("event handler panicked: %v", r)
		}
	}()

	if err = h(ctx, event); err != nil {
		lg.Error("event handler failed", "error", err)
		metrics.ObserveEventHandler(event.EventType(), "error")
		return err
	}
	metrics.ObserveEventHandler(event.EventType(), "ok")
	return nil
}
