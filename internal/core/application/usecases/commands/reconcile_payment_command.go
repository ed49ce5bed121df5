package commands

import (
	"errors"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/guard"
)

var ErrReconcilePaymentCommandIsNotConstructed = errors.New(
	"ReconcilePaymentCommand must be created via NewReconcilePaymentCommand constructor",
)

// ReconcilePaymentCommand forces the local intent to match the provider of
// record. Issued by the supervisor for orders stuck waiting on settlement,
// typically because a webhook was lost.
type ReconcilePaymentCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewReconcilePaymentCommand creates a command to reconcile an order's
// payment with the provider.
func NewReconcilePaymentCommand(orderID kernel.UUID) (ReconcilePaymentCommand, error) {
	cmd := ReconcilePaymentCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return ReconcilePaymentCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ReconcilePaymentCommand) Validate() error {
	return c.guard.Validate(ErrReconcilePaymentCommandIsNotConstructed)
}

// OrderID returns the order whose payment to reconcile.
func (c ReconcilePaymentCommand) OrderID() kernel.UUID { return c.orderID }

func (c *ReconcilePaymentCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}
