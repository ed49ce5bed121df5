package commands

import (
	"errors"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/pkg/guard"
)

var ErrApplyOrderTransitionCommandIsNotConstructed = errors.New(
	"ApplyOrderTransitionCommand must be created via NewApplyOrderTransitionCommand constructor",
)

// ApplyOrderTransitionCommand applies one lifecycle transition announced by
// another service to the local order aggregate. The event id makes
// re-delivery a no-op; the expected prior status makes out-of-order delivery
// detectable.
type ApplyOrderTransitionCommand struct { //nolint:recvcheck //using for validation
	orderID           kernel.UUID
	eventID           kernel.UUID
	from              order.Status
	to                order.Status
	reason            string
	compensationToken string

	guard guard.ConstructorGuard
}

// NewApplyOrderTransitionCommand creates a command for an ordinary
// transition.
func NewApplyOrderTransitionCommand(
	orderID kernel.UUID,
	eventID kernel.UUID,
	from order.Status,
	to order.Status,
	reason string,
) (ApplyOrderTransitionCommand, error) {
	cmd := ApplyOrderTransitionCommand{
		reason: reason,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setEventID(eventID),
		cmd.setEdge(from, to),
	); err != nil {
		return ApplyOrderTransitionCommand{}, err
	}

	return cmd, nil
}

// NewCompensatedTransitionCommand creates a cancellation carrying the
// supervisor's compensation token.
func NewCompensatedTransitionCommand(
	orderID kernel.UUID,
	eventID kernel.UUID,
	from order.Status,
	token string,
	reason string,
) (ApplyOrderTransitionCommand, error) {
	cmd, err := NewApplyOrderTransitionCommand(orderID, eventID, from, order.Cancelled, reason)
	if err != nil {
		return ApplyOrderTransitionCommand{}, err
	}
	if token == "" {
		return ApplyOrderTransitionCommand{}, order.ErrCompensationTokenRequired
	}
	cmd.compensationToken = token
	return cmd, nil
}

// Validate ensures the command was created through a constructor.
func (c ApplyOrderTransitionCommand) Validate() error {
	return c.guard.Validate(ErrApplyOrderTransitionCommandIsNotConstructed)
}

// OrderID returns the order to transition.
func (c ApplyOrderTransitionCommand) OrderID() kernel.UUID { return c.orderID }

// EventID returns the bus event id behind the transition.
func (c ApplyOrderTransitionCommand) EventID() kernel.UUID { return c.eventID }

// From returns the expected prior status.
func (c ApplyOrderTransitionCommand) From() order.Status { return c.from }

// To returns the target status.
func (c ApplyOrderTransitionCommand) To() order.Status { return c.to }

// Reason returns the transition reason, recorded on cancellation.
func (c ApplyOrderTransitionCommand) Reason() string { return c.reason }

// CompensationToken returns the supervisor token, empty for ordinary events.
func (c ApplyOrderTransitionCommand) CompensationToken() string { return c.compensationToken }

func (c *ApplyOrderTransitionCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *ApplyOrderTransitionCommand) setEventID(eventID kernel.UUID) error {
	if err := eventID.Validate(); err != nil {
		return err
	}
	c.eventID = eventID
	return nil
}

func (c *ApplyOrderTransitionCommand) setEdge(from, to order.Status) error {
	if err := errors.Join(from.Validate(), to.Validate()); err != nil {
		return err
	}
	c.from = from
	c.to = to
	return nil
}
