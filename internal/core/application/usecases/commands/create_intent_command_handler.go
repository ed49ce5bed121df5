package commands

import (
	"context"
	"errors"
	"time"

	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/payment"
	"coordinator/internal/core/ports"
	"coordinator/internal/pkg/errs"
	"coordinator/internal/pkg/keylock"
)

// CreateIntentCommandHandler opens a payment intent for an order, both
// locally and at the provider. The order id is the idempotency key on both
// sides.
type CreateIntentCommandHandler struct {
	uowFactory PaymentUoWFactory
	provider   ports.PaymentProvider
	publisher  events.Publisher
	locks      *keylock.KeyLock
}

// NewCreateIntentCommandHandler creates a handler for intent creation.
func NewCreateIntentCommandHandler(
	uowFactory PaymentUoWFactory,
	provider ports.PaymentProvider,
	publisher events.Publisher,
	locks *keylock.KeyLock,
) CreateIntentCommandHandler {
	return CreateIntentCommandHandler{
		uowFactory: uowFactory,
		provider:   provider,
		publisher:  publisher,
		locks:      locks,
	}
}

// Handle creates the intent. An intent already open for the order is
// returned as success without touching the provider again.
func (h CreateIntentCommandHandler) Handle(ctx context.Context, cmd CreateIntentCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.locks.Do(cmd.OrderID().String(), func() error {
		return h.createIntent(ctx, cmd)
	})
}

func (h CreateIntentCommandHandler) createIntent(ctx context.Context, cmd CreateIntentCommand) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	existing, err := uow.PaymentRepository().GetByOrderID(ctx, cmd.OrderID())
	if err == nil && existing != nil {
		return nil
	}
	if err != nil && !errors.Is(err, errs.ErrObjectNotFound) {
		return err
	}

	aggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	amount := aggregate.Charges().Total()
	providerIntent, err := h.provider.CreateIntent(ctx, aggregate.ID(), amount)
	if err != nil {
		return err
	}

	intent, err := payment.NewIntent(kernel.NewUUID(), aggregate.ID(), amount, time.Now())
	if err != nil {
		return err
	}
	if providerIntent.ProviderRef != "" {
		if err = intent.AttachProviderRef(providerIntent.ProviderRef); err != nil {
			return err
		}
	}
	if providerIntent.Status == payment.IntentStatusRequiresAction {
		if _, err = intent.ApplyCallback("create:"+providerIntent.ProviderRef,
			payment.IntentStatusRequiresAction, providerIntent.ProviderRef, time.Now()); err != nil {
			return err
		}
	}

	if err = uow.PaymentRepository().Add(ctx, intent); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	envelope, err := events.NewEnvelope(events.TypePaymentIntentCreated, events.ServicePayment,
		events.PaymentIntentCreatedData{
			OrderID:         aggregate.ID().String(),
			PaymentIntentID: intent.ID().String(),
			Amount:          amount.Amount(),
			Currency:        amount.Currency(),
		})
	if err != nil {
		return err
	}

	return h.publisher.Publish(ctx, events.TopicPaymentEvents, aggregate.ID().String(), envelope)
}
