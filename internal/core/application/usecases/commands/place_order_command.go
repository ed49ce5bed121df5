package commands

import (
	"errors"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/errs"
	"coordinator/internal/pkg/guard"
)

var ErrPlaceOrderCommandIsNotConstructed = errors.New(
	"PlaceOrderCommand must be created via NewPlaceOrderCommand constructor",
)

// ItemInput describes one line of a new order.
type ItemInput struct {
	ItemID    kernel.UUID
	Name      string
	Quantity  int
	UnitPrice kernel.Money
}

// PlaceOrderCommand represents a request to place a new order. The order
// starts in "placed" with payment pending; payment settlement moves it to
// "confirmed" asynchronously.
type PlaceOrderCommand struct { //nolint:recvcheck //using for validation
	orderID      kernel.UUID
	customerID   kernel.UUID
	restaurantID kernel.UUID
	items        []ItemInput
	tax          kernel.Money
	deliveryFee  kernel.Money
	tip          kernel.Money
	discount     kernel.Money

	guard guard.ConstructorGuard
}

// NewPlaceOrderCommand creates a command to place a new order.
func NewPlaceOrderCommand(
	orderID kernel.UUID,
	customerID kernel.UUID,
	restaurantID kernel.UUID,
	items []ItemInput,
	tax kernel.Money,
	deliveryFee kernel.Money,
	tip kernel.Money,
	discount kernel.Money,
) (PlaceOrderCommand, error) {
	cmd := PlaceOrderCommand{
		items:       items,
		tax:         tax,
		deliveryFee: deliveryFee,
		tip:         tip,
		discount:    discount,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCustomerID(customerID),
		cmd.setRestaurantID(restaurantID),
		cmd.validateItems(),
	); err != nil {
		return PlaceOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c PlaceOrderCommand) Validate() error {
	return c.guard.Validate(ErrPlaceOrderCommandIsNotConstructed)
}

// OrderID returns the identifier for the new order.
func (c PlaceOrderCommand) OrderID() kernel.UUID { return c.orderID }

// CustomerID returns the ordering customer.
func (c PlaceOrderCommand) CustomerID() kernel.UUID { return c.customerID }

// RestaurantID returns the restaurant preparing the order.
func (c PlaceOrderCommand) RestaurantID() kernel.UUID { return c.restaurantID }

// Items returns the order lines.
func (c PlaceOrderCommand) Items() []ItemInput { return c.items }

// Tax returns the tax charge.
func (c PlaceOrderCommand) Tax() kernel.Money { return c.tax }

// DeliveryFee returns the delivery fee charge.
func (c PlaceOrderCommand) DeliveryFee() kernel.Money { return c.deliveryFee }

// Tip returns the tip amount.
func (c PlaceOrderCommand) Tip() kernel.Money { return c.tip }

// Discount returns the discount amount.
func (c PlaceOrderCommand) Discount() kernel.Money { return c.discount }

func (c *PlaceOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *PlaceOrderCommand) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return err
	}
	c.customerID = customerID
	return nil
}

func (c *PlaceOrderCommand) setRestaurantID(restaurantID kernel.UUID) error {
	if err := restaurantID.Validate(); err != nil {
		return err
	}
	c.restaurantID = restaurantID
	return nil
}

func (c *PlaceOrderCommand) validateItems() error {
	if len(c.items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	return nil
}
