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
	"coordinator/internal/pkg/keylock"
)

func Test_ConfirmPickupCommandHandler_Handle(t *testing.T) {
	ctx := context.Background()

	newHandler := func(uow *fakeUoW, publisher *recordingPublisher) commands.ConfirmPickupCommandHandler {
		return commands.NewConfirmPickupCommandHandler(assignmentUoWFactory{uow}, publisher, keylock.New())
	}

	setup := func(t *testing.T) (*order.Order, *delivery.Delivery, kernel.UUID) {
		t.Helper()
		aggregate := newTestOrder(t)
		advanceOrder(t, aggregate, order.Confirmed, order.Preparing, order.ReadyForPickup)
		driverID := kernel.NewUUID()
		require.NoError(t, aggregate.AssignDriver(driverID, time.Now()))
		del, err := delivery.NewDelivery(aggregate.ID(), driverID, 0, time.Now())
		require.NoError(t, err)
		return aggregate, del, driverID
	}

	t.Run("should_move_order_out_for_delivery", func(t *testing.T) {
		aggregate, del, driverID := setup(t)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.deliveries.On("GetByOrderID", ctx, aggregate.ID()).Return(del, nil)
		uow.orders.On("Update", ctx, aggregate).Return(nil)
		uow.deliveries.On("Update", ctx, del).Return(nil)

		cmd, err := commands.NewConfirmPickupCommand(aggregate.ID(), driverID, kernel.NewUUID())
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Equal(t, order.OutForDelivery, aggregate.Status())
		assert.Equal(t, delivery.OutForDelivery, del.Status())
		assert.Len(t, publisher.ofType(events.TypeOrderStatusChanged), 1)
	})

	t.Run("should_ignore_redelivered_confirmation", func(t *testing.T) {
		aggregate, del, driverID := setup(t)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.deliveries.On("GetByOrderID", ctx, aggregate.ID()).Return(del, nil)
		uow.orders.On("Update", ctx, aggregate).Return(nil)
		uow.deliveries.On("Update", ctx, del).Return(nil)

		cmd, err := commands.NewConfirmPickupCommand(aggregate.ID(), driverID, kernel.NewUUID())
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))
		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Equal(t, 1, uow.committed)
		assert.Len(t, publisher.ofType(events.TypeOrderStatusChanged), 1)
	})

	t.Run("should_return_stale_event_when_order_not_ready", func(t *testing.T) {
		aggregate := newTestOrder(t)
		advanceOrder(t, aggregate, order.Confirmed)

		uow := newFakeUoW()
		handler := newHandler(uow, &recordingPublisher{})

		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)

		cmd, err := commands.NewConfirmPickupCommand(aggregate.ID(), kernel.NewUUID(), kernel.NewUUID())
		require.NoError(t, err)

		require.ErrorIs(t, handler.Handle(ctx, cmd), order.ErrStaleEvent)
	})
}
