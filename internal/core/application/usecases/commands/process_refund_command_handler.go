package commands

import (
	"context"
	"fmt"
	"time"

	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/core/ports"
	"coordinator/internal/pkg/keylock"
)

// ProcessRefundCommandHandler returns a captured amount to the customer. An
// order whose payment is already refunded is a no-op success, so redelivered
// refund requests never reach the provider twice.
type ProcessRefundCommandHandler struct {
	uowFactory PaymentUoWFactory
	provider   ports.PaymentProvider
	locks      *keylock.KeyLock
}

// NewProcessRefundCommandHandler creates a handler for refund requests.
func NewProcessRefundCommandHandler(
	uowFactory PaymentUoWFactory,
	provider ports.PaymentProvider,
	locks *keylock.KeyLock,
) ProcessRefundCommandHandler {
	return ProcessRefundCommandHandler{
		uowFactory: uowFactory,
		provider:   provider,
		locks:      locks,
	}
}

// Handle refunds under the order's lock.
func (h ProcessRefundCommandHandler) Handle(ctx context.Context, cmd ProcessRefundCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.locks.Do(cmd.OrderID().String(), func() error {
		return h.refund(ctx, cmd)
	})
}

func (h ProcessRefundCommandHandler) refund(ctx context.Context, cmd ProcessRefundCommand) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	aggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	if aggregate.PaymentStatus() == order.PaymentRefunded {
		return nil
	}
	if aggregate.PaymentStatus() != order.PaymentCaptured {
		return fmt.Errorf("refund order %s: %w: payment is %s",
			cmd.OrderID(), order.ErrInvalidPaymentTransition, aggregate.PaymentStatus())
	}

	intent, err := uow.PaymentRepository().GetByOrderID(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if err = h.provider.RequestRefund(ctx, intent.ProviderRef(), intent.Amount()); err != nil {
		return err
	}

	if err = aggregate.MarkPaymentRefunded(time.Now()); err != nil {
		return err
	}
	if err = uow.OrderRepository().Update(ctx, aggregate); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
