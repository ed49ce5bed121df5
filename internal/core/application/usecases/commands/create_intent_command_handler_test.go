package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/payment"
	"coordinator/internal/core/ports"
	"coordinator/internal/pkg/errs"
	"coordinator/internal/pkg/keylock"
)

func Test_CreateIntentCommandHandler_Handle(t *testing.T) {
	ctx := context.Background()

	newHandler := func(uow *fakeUoW, provider *MockPaymentProvider, publisher *recordingPublisher,
	) commands.CreateIntentCommandHandler {
		return commands.NewCreateIntentCommandHandler(paymentUoWFactory{uow}, provider, publisher, keylock.New())
	}

	t.Run("should_open_intent_for_order_total", func(t *testing.T) {
		aggregate := newTestOrder(t)

		uow := newFakeUoW()
		provider := &MockPaymentProvider{}
		publisher := &recordingPublisher{}
		handler := newHandler(uow, provider, publisher)

		uow.payments.On("GetByOrderID", ctx, aggregate.ID()).
			Return(nil, errs.NewObjectNotFoundError("order_id", aggregate.ID().String()))
		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		provider.On("CreateIntent", ctx, aggregate.ID(), aggregate.Charges().Total()).
			Return(ports.ProviderIntent{ProviderRef: "pi_7", Status: payment.IntentStatusRequiresAction}, nil)

		var saved *payment.Intent
		uow.payments.On("Add", ctx, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*payment.Intent)
		}).Return(nil)

		cmd, err := commands.NewCreateIntentCommand(aggregate.ID())
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		require.NotNil(t, saved)
		assert.Equal(t, payment.IntentStatusRequiresAction, saved.Status())
		assert.Equal(t, "pi_7", saved.ProviderRef())
		assert.True(t, saved.Amount().Equals(aggregate.Charges().Total()))
		assert.Len(t, publisher.ofType(events.TypePaymentIntentCreated), 1)
	})

	t.Run("should_not_call_provider_twice_for_same_order", func(t *testing.T) {
		aggregate := newTestOrder(t)
		intent := newTestIntent(t, aggregate.ID())

		uow := newFakeUoW()
		provider := &MockPaymentProvider{}
		publisher := &recordingPublisher{}
		handler := newHandler(uow, provider, publisher)

		uow.payments.On("GetByOrderID", ctx, aggregate.ID()).Return(intent, nil)

		cmd, err := commands.NewCreateIntentCommand(aggregate.ID())
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		provider.AssertNotCalled(t, "CreateIntent", ctx, mock.Anything, mock.Anything)
		assert.Empty(t, publisher.published)
	})

	t.Run("should_surface_provider_unavailability", func(t *testing.T) {
		aggregate := newTestOrder(t)

		uow := newFakeUoW()
		provider := &MockPaymentProvider{}
		publisher := &recordingPublisher{}
		handler := newHandler(uow, provider, publisher)

		uow.payments.On("GetByOrderID", ctx, aggregate.ID()).
			Return(nil, errs.NewObjectNotFoundError("order_id", aggregate.ID().String()))
		uow.orders.On("Get", ctx, aggregate.ID()).Return(aggregate, nil)
		provider.On("CreateIntent", ctx, aggregate.ID(), aggregate.Charges().Total()).
			Return(ports.ProviderIntent{}, ports.ErrExternalServiceUnavailable)

		cmd, err := commands.NewCreateIntentCommand(aggregate.ID())
		require.NoError(t, err)

		require.ErrorIs(t, handler.Handle(ctx, cmd), ports.ErrExternalServiceUnavailable)
		assert.Equal(t, 0, uow.committed)
		assert.Empty(t, publisher.published)
	})
}
