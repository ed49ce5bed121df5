package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"coordinator/internal/core/ports"
)

// ReconcilePaymentCommandHandler asks the provider for its view of an
// intent and replays the answer through the ordinary callback path. The
// synthetic callback id is fresh per reconciliation run, so a run that
// observes no change applies nothing only because the transition is
// rejected as terminal or matches the current status.
type ReconcilePaymentCommandHandler struct {
	uowFactory      PaymentUoWFactory
	provider        ports.PaymentProvider
	callbackHandler HandleProviderCallbackCommandHandler
}

// NewReconcilePaymentCommandHandler creates a handler for payment
// reconciliation.
func NewReconcilePaymentCommandHandler(
	uowFactory PaymentUoWFactory,
	provider ports.PaymentProvider,
	callbackHandler HandleProviderCallbackCommandHandler,
) ReconcilePaymentCommandHandler {
	return ReconcilePaymentCommandHandler{
		uowFactory:      uowFactory,
		provider:        provider,
		callbackHandler: callbackHandler,
	}
}

// Handle reconciles the intent. A settled local intent is left alone. The
// provider adapter retries transient failures with backoff; once its budget
// is spent the error escalates to the caller, which compensates.
func (h ReconcilePaymentCommandHandler) Handle(ctx context.Context, cmd ReconcilePaymentCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	intent, err := uow.PaymentRepository().GetByOrderID(ctx, cmd.OrderID())
	_ = uow.Rollback(ctx)
	if err != nil {
		return err
	}

	if intent.IsSettled() {
		return nil
	}

	providerIntent, err := h.provider.GetIntent(ctx, intent.ProviderRef())
	if err != nil {
		return fmt.Errorf("reconcile order %s: %w", cmd.OrderID(), err)
	}

	if providerIntent.Status == intent.Status() {
		return nil
	}

	callback, err := NewHandleProviderCallbackCommand(cmd.OrderID(),
		"reconcile:"+uuid.NewString(), providerIntent.Status, providerIntent.ProviderRef,
		"reconciled against provider")
	if err != nil {
		return err
	}

	return h.callbackHandler.Handle(ctx, callback)
}
