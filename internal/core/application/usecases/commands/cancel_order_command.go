package commands

import (
	"errors"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/errs"
	"coordinator/internal/pkg/guard"
)

var ErrCancelOrderCommandIsNotConstructed = errors.New(
	"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
)

// CancelOrderCommand cancels an order from whatever non-terminal status it
// currently holds. Cancelling an order already out for delivery needs the
// supervisor's compensation token; customer- or restaurant-initiated
// cancellations carry none.
type CancelOrderCommand struct { //nolint:recvcheck //using for validation
	orderID           kernel.UUID
	eventID           kernel.UUID
	reason            string
	compensationToken string

	guard guard.ConstructorGuard
}

// NewCancelOrderCommand creates a plain cancellation.
func NewCancelOrderCommand(orderID, eventID kernel.UUID, reason string) (CancelOrderCommand, error) {
	cmd := CancelOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setEventID(eventID),
		cmd.setReason(reason),
	); err != nil {
		return CancelOrderCommand{}, err
	}

	return cmd, nil
}

// NewCompensatedCancelOrderCommand creates a cancellation authorized by a
// compensation token.
func NewCompensatedCancelOrderCommand(orderID, eventID kernel.UUID, token, reason string) (CancelOrderCommand, error) {
	cmd, err := NewCancelOrderCommand(orderID, eventID, reason)
	if err != nil {
		return CancelOrderCommand{}, err
	}
	if token == "" {
		return CancelOrderCommand{}, errs.NewValueIsRequiredError("token")
	}
	cmd.compensationToken = token
	return cmd, nil
}

// Validate ensures the command was created through a constructor.
func (c CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}

// OrderID returns the order to cancel.
func (c CancelOrderCommand) OrderID() kernel.UUID { return c.orderID }

// EventID returns the bus event id behind the cancellation.
func (c CancelOrderCommand) EventID() kernel.UUID { return c.eventID }

// Reason returns who or what cancelled and why.
func (c CancelOrderCommand) Reason() string { return c.reason }

// CompensationToken returns the supervisor token, empty for user-initiated
// cancellations.
func (c CancelOrderCommand) CompensationToken() string { return c.compensationToken }

func (c *CancelOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CancelOrderCommand) setEventID(eventID kernel.UUID) error {
	if err := eventID.Validate(); err != nil {
		return err
	}
	c.eventID = eventID
	return nil
}

func (c *CancelOrderCommand) setReason(reason string) error {
	if reason == "" {
		return errs.NewValueIsRequiredError("reason")
	}
	c.reason = reason
	return nil
}
