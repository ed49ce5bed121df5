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
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/pkg/errs"
	"coordinator/internal/pkg/keylock"
)

func Test_CancelOrderCommandHandler_Handle(t *testing.T) {
	ctx := context.Background()

	newHandler := func(uow *fakeUoW, publisher *recordingPublisher) commands.CancelOrderCommandHandler {
		return commands.NewCancelOrderCommandHandler(assignmentUoWFactory{uow}, publisher, keylock.New())
	}

	t.Run("should_cancel_order_without_delivery", func(t *testing.T) {
		aggregate := newTestOrder(t)
		advanceOrder(t, aggregate, order.Confirmed, order.Preparing)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.deliveries.On("GetByOrderID", ctx, aggregate.ID()).
			Return(nil, errs.NewObjectNotFoundError("order_id", aggregate.ID().String()))
		uow.orders.On("Update", ctx, aggregate).Return(nil)

		cmd, err := commands.NewCancelOrderCommand(aggregate.ID(), kernel.NewUUID(), "customer request")
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Equal(t, order.Cancelled, aggregate.Status())
		assert.Equal(t, "customer request", aggregate.CancelReason())
		assert.Len(t, publisher.ofType(events.TypeOrderCancelled), 1)
	})

	t.Run("should_release_driver_when_delivery_in_flight", func(t *testing.T) {
		aggregate := newTestOrder(t)
		require.NoError(t, aggregate.MarkPaymentCaptured(time.Now()))
		advanceOrder(t, aggregate, order.Confirmed, order.Preparing, order.ReadyForPickup)

		courier := newTestDriver(t, "Zoe", mustGeoPoint(t, 52.52, 13.405))
		require.NoError(t, courier.TakeDelivery())
		require.NoError(t, aggregate.AssignDriver(courier.ID(), time.Now()))

		del, err := delivery.NewDelivery(aggregate.ID(), courier.ID(), 0, time.Now())
		require.NoError(t, err)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.deliveries.On("GetByOrderID", ctx, aggregate.ID()).Return(del, nil)
		uow.drivers.On("Get", ctx, courier.ID()).Return(courier, nil)
		uow.deliveries.On("Update", ctx, del).Return(nil)
		uow.drivers.On("Update", ctx, courier).Return(nil)
		uow.orders.On("Update", ctx, aggregate).Return(nil)

		cmd, err := commands.NewCancelOrderCommand(aggregate.ID(), kernel.NewUUID(), "restaurant closed")
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Equal(t, order.Cancelled, aggregate.Status())
		assert.Equal(t, delivery.Cancelled, del.Status())
		assert.Equal(t, 0, courier.ActiveDeliveries())
	})

	t.Run("should_reject_late_cancellation_without_token", func(t *testing.T) {
		aggregate := newTestOrder(t)
		require.NoError(t, aggregate.MarkPaymentCaptured(time.Now()))
		advanceOrder(t, aggregate, order.Confirmed, order.Preparing, order.ReadyForPickup, order.OutForDelivery)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)

		cmd, err := commands.NewCancelOrderCommand(aggregate.ID(), kernel.NewUUID(), "too slow")
		require.NoError(t, err)

		require.ErrorIs(t, handler.Handle(ctx, cmd), order.ErrCompensationTokenRequired)
		assert.Equal(t, order.OutForDelivery, aggregate.Status())
		assert.Empty(t, publisher.published)
	})

	t.Run("should_accept_late_cancellation_with_token", func(t *testing.T) {
		aggregate := newTestOrder(t)
		require.NoError(t, aggregate.MarkPaymentCaptured(time.Now()))
		advanceOrder(t, aggregate, order.Confirmed, order.Preparing, order.ReadyForPickup, order.OutForDelivery)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.deliveries.On("GetByOrderID", ctx, aggregate.ID()).
			Return(nil, errs.NewObjectNotFoundError("order_id", aggregate.ID().String()))
		uow.orders.On("Update", ctx, aggregate).Return(nil)

		cmd, err := commands.NewCompensatedCancelOrderCommand(aggregate.ID(), kernel.NewUUID(),
			order.NewCompensationToken(), "delivery exceeded its SLA")
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))
		assert.Equal(t, order.Cancelled, aggregate.Status())
	})

	t.Run("should_treat_duplicate_event_as_success", func(t *testing.T) {
		aggregate := newTestOrder(t)
		advanceOrder(t, aggregate, order.Confirmed)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.deliveries.On("GetByOrderID", ctx, aggregate.ID()).
			Return(nil, errs.NewObjectNotFoundError("order_id", aggregate.ID().String()))
		uow.orders.On("Update", ctx, aggregate).Return(nil)

		cmd, err := commands.NewCancelOrderCommand(aggregate.ID(), kernel.NewUUID(), "customer request")
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))
		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Len(t, publisher.ofType(events.TypeOrderCancelled), 1)
		assert.Equal(t, 1, uow.committed)
	})

	t.Run("should_reject_empty_reason", func(t *testing.T) {
		_, err := commands.NewCancelOrderCommand(kernel.NewUUID(), kernel.NewUUID(), "")
		assert.Error(t, err)
	})
}
