package commands_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/delivery"
	"coordinator/internal/core/domain/model/driver"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/pkg/keylock"
)

func Test_CompleteDeliveryCommandHandler_Handle(t *testing.T) {
	ctx := context.Background()

	newHandler := func(uow *fakeUoW, publisher *recordingPublisher) commands.CompleteDeliveryCommandHandler {
		return commands.NewCompleteDeliveryCommandHandler(assignmentUoWFactory{uow}, publisher, keylock.New())
	}

	setup := func(t *testing.T, captured bool) (*order.Order, *delivery.Delivery, *driver.Driver) {
		t.Helper()
		aggregate := newTestOrder(t)
		if captured {
			require.NoError(t, aggregate.MarkPaymentCaptured(time.Now()))
		}
		advanceOrder(t, aggregate, order.Confirmed, order.Preparing, order.ReadyForPickup)

		courier := newTestDriver(t, "Ivy", mustGeoPoint(t, 52.52, 13.405))
		require.NoError(t, courier.TakeDelivery())
		require.NoError(t, aggregate.AssignDriver(courier.ID(), time.Now()))

		del, err := delivery.NewDelivery(aggregate.ID(), courier.ID(), 0, time.Now())
		require.NoError(t, err)
		require.NoError(t, del.MarkOutForDelivery(time.Now()))
		advanceOrder(t, aggregate, order.OutForDelivery)

		return aggregate, del, courier
	}

	t.Run("should_complete_delivery_and_release_driver", func(t *testing.T) {
		aggregate, del, courier := setup(t, true)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.deliveries.On("GetByOrderID", ctx, aggregate.ID()).Return(del, nil)
		uow.drivers.On("Get", ctx, courier.ID()).Return(courier, nil)
		uow.orders.On("Update", ctx, aggregate).Return(nil)
		uow.deliveries.On("Update", ctx, del).Return(nil)
		uow.drivers.On("Update", ctx, courier).Return(nil)

		cmd, err := commands.NewCompleteDeliveryCommand(aggregate.ID(), kernel.NewUUID())
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Equal(t, order.Delivered, aggregate.Status())
		assert.Equal(t, delivery.Delivered, del.Status())
		assert.Equal(t, 0, courier.ActiveDeliveries())
		assert.Len(t, publisher.ofType(events.TypeDeliveryCompleted), 1)
	})

	t.Run("should_complete_from_picked_up", func(t *testing.T) {
		aggregate, del, courier := setup(t, true)
		advanceOrder(t, aggregate, order.PickedUp)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.deliveries.On("GetByOrderID", ctx, aggregate.ID()).Return(del, nil)
		uow.drivers.On("Get", ctx, courier.ID()).Return(courier, nil)
		uow.orders.On("Update", ctx, aggregate).Return(nil)
		uow.deliveries.On("Update", ctx, del).Return(nil)
		uow.drivers.On("Update", ctx, courier).Return(nil)

		cmd, err := commands.NewCompleteDeliveryCommand(aggregate.ID(), kernel.NewUUID())
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))
		assert.Equal(t, order.Delivered, aggregate.Status())
	})

	t.Run("should_report_stale_when_completion_arrives_early", func(t *testing.T) {
		aggregate := newTestOrder(t)
		require.NoError(t, aggregate.MarkPaymentCaptured(time.Now()))
		advanceOrder(t, aggregate, order.Confirmed, order.Preparing)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)

		cmd, err := commands.NewCompleteDeliveryCommand(aggregate.ID(), kernel.NewUUID())
		require.NoError(t, err)

		// A completion overtaking the pickup must come back as stale so the
		// consumer redelivers it once the order catches up.
		require.ErrorIs(t, handler.Handle(ctx, cmd), order.ErrStaleEvent)
		assert.Equal(t, order.Preparing, aggregate.Status())
		assert.Empty(t, publisher.published)
	})

	t.Run("should_refuse_completion_before_payment_capture", func(t *testing.T) {
		aggregate, _, _ := setup(t, false)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)

		cmd, err := commands.NewCompleteDeliveryCommand(aggregate.ID(), kernel.NewUUID())
		require.NoError(t, err)

		require.ErrorIs(t, handler.Handle(ctx, cmd), order.ErrPaymentNotCaptured)
		assert.Equal(t, order.OutForDelivery, aggregate.Status())
		assert.Empty(t, publisher.published)
	})
}
