package commands

import (
	"errors"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/guard"
)

var ErrProcessRefundCommandIsNotConstructed = errors.New(
	"ProcessRefundCommand must be created via NewProcessRefundCommand constructor",
)

// ProcessRefundCommand asks the payment coordinator to return a captured
// amount to the customer as part of a compensation.
type ProcessRefundCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	reason  string

	guard guard.ConstructorGuard
}

// NewProcessRefundCommand creates a command to refund an order's payment.
func NewProcessRefundCommand(orderID kernel.UUID, reason string) (ProcessRefundCommand, error) {
	cmd := ProcessRefundCommand{
		reason: reason,
		guard:  guard.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return ProcessRefundCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ProcessRefundCommand) Validate() error {
	return c.guard.Validate(ErrProcessRefundCommandIsNotConstructed)
}

// OrderID returns the order whose payment is refunded.
func (c ProcessRefundCommand) OrderID() kernel.UUID { return c.orderID }

// Reason returns why the refund was requested.
func (c ProcessRefundCommand) Reason() string { return c.reason }

func (c *ProcessRefundCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}
