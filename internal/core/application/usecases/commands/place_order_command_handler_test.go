package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
)

func usd(cents int64) kernel.Money { return kernel.MustNewMoney(cents, "USD") }

func Test_PlaceOrderCommandHandler_Handle(t *testing.T) {
	ctx := context.Background()

	items := []commands.ItemInput{
		{ItemID: kernel.NewUUID(), Name: "Margherita", Quantity: 2, UnitPrice: usd(800)},
		{ItemID: kernel.NewUUID(), Name: "Tiramisu", Quantity: 1, UnitPrice: usd(400)},
	}

	t.Run("should_persist_order_and_publish_order_created", func(t *testing.T) {
		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := commands.NewPlaceOrderCommandHandler(orderUoWFactory{uow}, publisher)

		var saved *order.Order
		uow.orders.On("Add", ctx, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*order.Order)
		}).Return(nil)

		cmd, err := commands.NewPlaceOrderCommand(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			items, usd(160), usd(300), usd(0), usd(0))
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		require.NotNil(t, saved)
		assert.Equal(t, order.Placed, saved.Status())
		assert.Equal(t, order.PaymentPending, saved.PaymentStatus())
		assert.Nil(t, saved.DriverID())

		// 2 x 8.00 + 1 x 4.00 = 20.00 subtotal; 1.60 tax + 3.00 fee on top.
		assert.Equal(t, int64(2000), saved.Charges().Subtotal().Amount())
		assert.Equal(t, int64(2460), saved.Charges().Total().Amount())

		assert.Equal(t, 1, uow.committed)

		created := publisher.ofType(events.TypeOrderCreated)
		require.Len(t, created, 1)
		assert.Equal(t, events.TopicOrderEvents, created[0].topic)
		assert.Equal(t, saved.ID().String(), created[0].key)
	})

	t.Run("should_apply_discount_to_total", func(t *testing.T) {
		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := commands.NewPlaceOrderCommandHandler(orderUoWFactory{uow}, publisher)

		var saved *order.Order
		uow.orders.On("Add", ctx, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*order.Order)
		}).Return(nil)

		cmd, err := commands.NewPlaceOrderCommand(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			items, usd(160), usd(300), usd(200), usd(500))
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))
		require.NotNil(t, saved)
		assert.Equal(t, int64(2160), saved.Charges().Total().Amount())
	})

	t.Run("should_not_publish_when_persistence_fails", func(t *testing.T) {
		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := commands.NewPlaceOrderCommandHandler(orderUoWFactory{uow}, publisher)

		uow.orders.On("Add", ctx, mock.Anything).Return(assert.AnError)

		cmd, err := commands.NewPlaceOrderCommand(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			items, usd(160), usd(300), usd(0), usd(0))
		require.NoError(t, err)

		require.ErrorIs(t, handler.Handle(ctx, cmd), assert.AnError)
		assert.Equal(t, 0, uow.committed)
		assert.Equal(t, 1, uow.rolledBack)
		assert.Empty(t, publisher.published)
	})

	t.Run("should_reject_command_without_items", func(t *testing.T) {
		_, err := commands.NewPlaceOrderCommand(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			nil, usd(160), usd(300), usd(0), usd(0))
		assert.Error(t, err)
	})

	t.Run("should_reject_not_constructed_command", func(t *testing.T) {
		handler := commands.NewPlaceOrderCommandHandler(orderUoWFactory{newFakeUoW()}, &recordingPublisher{})
		err := handler.Handle(ctx, commands.PlaceOrderCommand{})
		assert.ErrorIs(t, err, commands.ErrPlaceOrderCommandIsNotConstructed)
	})
}
