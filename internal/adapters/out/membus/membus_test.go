package membus_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coordinator/internal/adapters/out/membus"
	"coordinator/internal/core/domain/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEnvelope(t *testing.T) events.Envelope {
	t.Helper()
	envelope, err := events.NewEnvelope(events.TypeOrderCreated, events.ServiceOrder,
		events.OrderCreatedData{OrderID: "c7a2cf92-6b28-4f3f-9c2b-0f2f3b7a9e11"})
	require.NoError(t, err)
	return envelope
}

func Test_Bus(t *testing.T) {
	t.Run("should_deliver_to_every_subscriber_of_the_topic", func(t *testing.T) {
		bus := membus.NewBus(testLogger())

		var first, second int
		require.NoError(t, bus.Subscribe(events.TopicOrderEvents,
			events.HandlerFunc(func(context.Context, events.Envelope) error {
				first++
				return nil
			})))
		require.NoError(t, bus.Subscribe(events.TopicOrderEvents,
			events.HandlerFunc(func(context.Context, events.Envelope) error {
				second++
				return nil
			})))

		require.NoError(t, bus.Publish(context.Background(),
			events.TopicOrderEvents, "key", newEnvelope(t)))

		assert.Equal(t, 1, first)
		assert.Equal(t, 1, second)
	})

	t.Run("should_not_deliver_across_topics", func(t *testing.T) {
		bus := membus.NewBus(testLogger())

		var calls int
		require.NoError(t, bus.Subscribe(events.TopicPaymentEvents,
			events.HandlerFunc(func(context.Context, events.Envelope) error {
				calls++
				return nil
			})))

		require.NoError(t, bus.Publish(context.Background(),
			events.TopicOrderEvents, "key", newEnvelope(t)))

		assert.Zero(t, calls)
	})

	t.Run("should_retry_failed_handler_once", func(t *testing.T) {
		bus := membus.NewBus(testLogger())

		var calls int
		require.NoError(t, bus.Subscribe(events.TopicOrderEvents,
			events.HandlerFunc(func(context.Context, events.Envelope) error {
				calls++
				if calls == 1 {
					return assert.AnError
				}
				return nil
			})))

		require.NoError(t, bus.Publish(context.Background(),
			events.TopicOrderEvents, "key", newEnvelope(t)))

		assert.Equal(t, 2, calls)
	})

	t.Run("should_reject_invalid_envelope", func(t *testing.T) {
		bus := membus.NewBus(testLogger())
		err := bus.Publish(context.Background(),
			events.TopicOrderEvents, "key", events.Envelope{})
		require.Error(t, err)
	})
}
