// Package membus is an in-process event bus. It backs tests and the
// single-binary mode, where all services run in one process and Kafka
// would be dead weight.
package membus

import (
	"context"
	"log/slog"
	"sync"

	"coordinator/internal/core/domain/events"
)

// Bus implements events.Publisher and events.Subscriber in memory.
// Publish delivers synchronously to every handler of the topic, in
// subscription order. A handler error is retried once and then logged and
// dropped; the in-process bus has no offset to park the message on.
type Bus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[events.Topic][]events.Handler
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger:   logger.With("component", "membus"),
		handlers: make(map[events.Topic][]events.Handler),
	}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic events.Topic, handler events.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

// Publish delivers the envelope to every handler of the topic.
func (b *Bus) Publish(ctx context.Context, topic events.Topic, _ string, envelope events.Envelope) error {
	if err := envelope.Validate(); err != nil {
		return err
	}

	b.mu.RLock()
	handlers := make([]events.Handler, len(b.handlers[topic]))
	copy(handlers, b.handlers[topic])
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(ctx, envelope); err == nil {
			continue
		} else if err = handler.Handle(ctx, envelope); err != nil {
			b.logger.ErrorContext(ctx, "handler failed twice, dropping event",
				"topic", string(topic),
				"event_type", string(envelope.EventType),
				"event_id", envelope.EventID,
				"error", err)
		}
	}
	return nil
}
