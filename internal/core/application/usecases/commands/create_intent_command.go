package commands

import (
	"errors"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/guard"
)

var ErrCreateIntentCommandIsNotConstructed = errors.New(
	"CreateIntentCommand must be created via NewCreateIntentCommand constructor",
)

// CreateIntentCommand requests a payment intent for an order. The operation
// is idempotent on the order id: retrying after a crash or redelivery
// returns the already-open intent instead of charging twice.
type CreateIntentCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewCreateIntentCommand creates a command to open a payment intent.
func NewCreateIntentCommand(orderID kernel.UUID) (CreateIntentCommand, error) {
	cmd := CreateIntentCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return CreateIntentCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateIntentCommand) Validate() error {
	return c.guard.Validate(ErrCreateIntentCommandIsNotConstructed)
}

// OrderID returns the order to collect payment for.
func (c CreateIntentCommand) OrderID() kernel.UUID { return c.orderID }

func (c *CreateIntentCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}
