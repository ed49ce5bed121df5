package commands

import (
	"context"
	"time"

	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/core/domain/model/payment"
	"coordinator/internal/pkg/keylock"
)

// HandleProviderCallbackCommandHandler applies a provider webhook to the
// intent and propagates settlement to the order. A duplicate callback
// commits nothing and emits nothing, so exactly one PaymentSettled or
// PaymentFailed leaves the system per settlement.
type HandleProviderCallbackCommandHandler struct {
	uowFactory PaymentUoWFactory
	publisher  events.Publisher
	locks      *keylock.KeyLock
}

// NewHandleProviderCallbackCommandHandler creates a handler for provider
// webhooks.
func NewHandleProviderCallbackCommandHandler(
	uowFactory PaymentUoWFactory,
	publisher events.Publisher,
	locks *keylock.KeyLock,
) HandleProviderCallbackCommandHandler {
	return HandleProviderCallbackCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		locks:      locks,
	}
}

// Handle processes the callback under the order's lock.
func (h HandleProviderCallbackCommandHandler) Handle(ctx context.Context, cmd HandleProviderCallbackCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.locks.Do(cmd.OrderID().String(), func() error {
		return h.applyCallback(ctx, cmd)
	})
}

func (h HandleProviderCallbackCommandHandler) applyCallback(ctx context.Context, cmd HandleProviderCallbackCommand) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	intent, err := uow.PaymentRepository().GetByOrderID(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	result, err := intent.ApplyCallback(cmd.CallbackID(), cmd.Status(), cmd.ProviderRef(), time.Now())
	if err != nil {
		return err
	}
	if result.Duplicate {
		return nil
	}

	aggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	var settledType events.Type
	switch result.Current {
	case payment.IntentStatusSucceeded:
		settledType = events.TypePaymentSettled
		if err = h.applySettlement(aggregate); err != nil {
			return err
		}
	case payment.IntentStatusFailed:
		settledType = events.TypePaymentFailed
		if err = h.applyFailure(aggregate, cmd.Reason()); err != nil {
			return err
		}
	}

	if err = uow.PaymentRepository().Update(ctx, intent); err != nil {
		return err
	}
	if err = uow.OrderRepository().Update(ctx, aggregate); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if settledType == "" {
		return nil
	}
	if err = h.announce(ctx, settledType, aggregate, intent, cmd.Reason()); err != nil {
		return err
	}

	// A capture landing on an already-cancelled order is money the customer
	// must get back; nothing else watches cancelled orders, so the refund
	// request leaves here.
	if result.Current == payment.IntentStatusSucceeded && aggregate.Status() == order.Cancelled {
		return h.requestRefund(ctx, aggregate, intent)
	}
	return nil
}

// applySettlement captures the payment and, when the order still awaits it,
// confirms the order. A settlement landing on a cancelled order leaves the
// order alone; the caller follows up with a refund request.
func (h HandleProviderCallbackCommandHandler) applySettlement(aggregate *order.Order) error {
	if err := aggregate.MarkPaymentCaptured(time.Now()); err != nil {
		return err
	}
	if aggregate.Status() != order.Placed {
		return nil
	}

	ev, err := order.NewTransitionEvent(kernel.NewUUID(), order.Placed, order.Confirmed, "payment settled")
	if err != nil {
		return err
	}
	_, err = aggregate.Apply(ev, time.Now())
	return err
}

// applyFailure fails the payment and cancels the order when it has not
// progressed past placed. An order further along is left to the stall sweep,
// which cancels with a compensation token.
func (h HandleProviderCallbackCommandHandler) applyFailure(aggregate *order.Order, reason string) error {
	if err := aggregate.MarkPaymentFailed(time.Now()); err != nil {
		return err
	}
	if aggregate.Status() != order.Placed {
		return nil
	}

	if reason == "" {
		reason = "payment failed"
	}
	ev, err := order.NewTransitionEvent(kernel.NewUUID(), aggregate.Status(), order.Cancelled, reason)
	if err != nil {
		return err
	}
	_, err = aggregate.Apply(ev, time.Now())
	return err
}

func (h HandleProviderCallbackCommandHandler) announce(
	ctx context.Context,
	eventType events.Type,
	aggregate *order.Order,
	intent *payment.Intent,
	reason string,
) error {
	var data any
	if eventType == events.TypePaymentSettled {
		data = events.PaymentSettledData{
			OrderID:         aggregate.ID().String(),
			PaymentIntentID: intent.ID().String(),
			Amount:          intent.Amount().Amount(),
			Currency:        intent.Amount().Currency(),
		}
	} else {
		data = events.PaymentFailedData{
			OrderID:         aggregate.ID().String(),
			PaymentIntentID: intent.ID().String(),
			Reason:          reason,
		}
	}

	envelope, err := events.NewEnvelope(eventType, events.ServicePayment, data)
	if err != nil {
		return err
	}

	return h.publisher.Publish(ctx, events.TopicPaymentEvents, aggregate.ID().String(), envelope)
}

func (h HandleProviderCallbackCommandHandler) requestRefund(
	ctx context.Context,
	aggregate *order.Order,
	intent *payment.Intent,
) error {
	envelope, err := events.NewEnvelope(events.TypeRefundRequested, events.ServicePayment,
		events.RefundRequestedData{
			OrderID:         aggregate.ID().String(),
			PaymentIntentID: intent.ID().String(),
			Amount:          intent.Amount().Amount(),
			Currency:        intent.Amount().Currency(),
		})
	if err != nil {
		return err
	}

	return h.publisher.Publish(ctx, events.TopicPaymentEvents, aggregate.ID().String(), envelope)
}
