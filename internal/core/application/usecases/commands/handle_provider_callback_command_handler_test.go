package commands_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/core/domain/model/payment"
	"coordinator/internal/pkg/keylock"
)

func newTestIntent(t *testing.T, orderID kernel.UUID) *payment.Intent {
	t.Helper()
	intent, err := payment.NewIntent(kernel.NewUUID(), orderID, kernel.MustNewMoney(2460, "USD"), time.Now())
	require.NoError(t, err)
	return intent
}

func Test_HandleProviderCallbackCommandHandler_Handle(t *testing.T) {
	ctx := context.Background()

	newHandler := func(uow *fakeUoW, publisher *recordingPublisher) commands.HandleProviderCallbackCommandHandler {
		return commands.NewHandleProviderCallbackCommandHandler(paymentUoWFactory{uow}, publisher, keylock.New())
	}

	t.Run("should_confirm_order_on_settlement", func(t *testing.T) {
		aggregate := newTestOrder(t)
		intent := newTestIntent(t, aggregate.ID())

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.payments.On("GetByOrderID", ctx, aggregate.ID()).Return(intent, nil)
		uow.payments.On("Update", ctx, intent).Return(nil)
		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.orders.On("Update", ctx, aggregate).Return(nil)

		cmd, err := commands.NewHandleProviderCallbackCommand(aggregate.ID(), "cb-1",
			payment.IntentStatusSucceeded, "pi_123", "")
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Equal(t, payment.IntentStatusSucceeded, intent.Status())
		assert.Equal(t, order.Confirmed, aggregate.Status())
		assert.Equal(t, order.PaymentCaptured, aggregate.PaymentStatus())
		assert.Equal(t, 1, uow.committed)
		assert.Len(t, publisher.ofType(events.TypePaymentSettled), 1)
	})

	t.Run("should_ignore_duplicate_callback", func(t *testing.T) {
		aggregate := newTestOrder(t)
		intent := newTestIntent(t, aggregate.ID())
		_, err := intent.ApplyCallback("cb-1", payment.IntentStatusSucceeded, "pi_123", time.Now())
		require.NoError(t, err)

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.payments.On("GetByOrderID", ctx, aggregate.ID()).Return(intent, nil)

		cmd, err := commands.NewHandleProviderCallbackCommand(aggregate.ID(), "cb-1",
			payment.IntentStatusSucceeded, "pi_123", "")
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Equal(t, 0, uow.committed)
		assert.Empty(t, publisher.published)
		uow.orders.AssertNotCalled(t, "Get", ctx, aggregate.ID())
	})

	t.Run("should_cancel_placed_order_on_failure", func(t *testing.T) {
		aggregate := newTestOrder(t)
		intent := newTestIntent(t, aggregate.ID())

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.payments.On("GetByOrderID", ctx, aggregate.ID()).Return(intent, nil)
		uow.payments.On("Update", ctx, intent).Return(nil)
		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.orders.On("Update", ctx, aggregate).Return(nil)

		cmd, err := commands.NewHandleProviderCallbackCommand(aggregate.ID(), "cb-2",
			payment.IntentStatusFailed, "pi_123", "card declined")
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Equal(t, order.Cancelled, aggregate.Status())
		assert.Equal(t, "card declined", aggregate.CancelReason())
		assert.Equal(t, order.PaymentFailed, aggregate.PaymentStatus())
		assert.Len(t, publisher.ofType(events.TypePaymentFailed), 1)
	})

	t.Run("should_not_touch_status_of_order_already_in_preparation_on_failure", func(t *testing.T) {
		aggregate := newTestOrder(t)
		advanceOrder(t, aggregate, order.Confirmed, order.Preparing)
		intent := newTestIntent(t, aggregate.ID())

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.payments.On("GetByOrderID", ctx, aggregate.ID()).Return(intent, nil)
		uow.payments.On("Update", ctx, intent).Return(nil)
		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.orders.On("Update", ctx, aggregate).Return(nil)

		cmd, err := commands.NewHandleProviderCallbackCommand(aggregate.ID(), "cb-3",
			payment.IntentStatusFailed, "pi_123", "card declined")
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Equal(t, order.Preparing, aggregate.Status())
		assert.Equal(t, order.PaymentFailed, aggregate.PaymentStatus())
	})

	t.Run("should_request_refund_for_settlement_on_cancelled_order", func(t *testing.T) {
		aggregate := newTestOrder(t)
		advanceOrder(t, aggregate, order.Cancelled)
		intent := newTestIntent(t, aggregate.ID())

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.payments.On("GetByOrderID", ctx, aggregate.ID()).Return(intent, nil)
		uow.payments.On("Update", ctx, intent).Return(nil)
		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.orders.On("Update", ctx, aggregate).Return(nil)

		cmd, err := commands.NewHandleProviderCallbackCommand(aggregate.ID(), "cb-4",
			payment.IntentStatusSucceeded, "pi_123", "")
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Equal(t, order.Cancelled, aggregate.Status())
		assert.Equal(t, order.PaymentCaptured, aggregate.PaymentStatus())
		assert.Len(t, publisher.ofType(events.TypePaymentSettled), 1)

		refunds := publisher.ofType(events.TypeRefundRequested)
		require.Len(t, refunds, 1)
		var refund events.RefundRequestedData
		require.NoError(t, refunds[0].envelope.DecodeData(&refund))
		assert.Equal(t, aggregate.ID().String(), refund.OrderID)
		assert.Equal(t, intent.Amount().Amount(), refund.Amount)
	})

	t.Run("should_not_request_refund_when_settlement_confirms_live_order", func(t *testing.T) {
		aggregate := newTestOrder(t)
		intent := newTestIntent(t, aggregate.ID())

		uow := newFakeUoW()
		publisher := &recordingPublisher{}
		handler := newHandler(uow, publisher)

		uow.payments.On("GetByOrderID", ctx, aggregate.ID()).Return(intent, nil)
		uow.payments.On("Update", ctx, intent).Return(nil)
		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		uow.orders.On("Update", ctx, aggregate).Return(nil)

		cmd, err := commands.NewHandleProviderCallbackCommand(aggregate.ID(), "cb-5",
			payment.IntentStatusSucceeded, "pi_123", "")
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.Empty(t, publisher.ofType(events.TypeRefundRequested))
	})

	t.Run("should_reject_not_constructed_command", func(t *testing.T) {
		handler := newHandler(newFakeUoW(), &recordingPublisher{})
		err := handler.Handle(ctx, commands.HandleProviderCallbackCommand{})
		assert.ErrorIs(t, err, commands.ErrHandleProviderCallbackCommandIsNotConstructed)
	})
}
