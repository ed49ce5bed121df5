package commands

import (
	"context"
	"time"

	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
)

// PlaceOrderCommandHandler creates the order aggregate and announces it on
// the bus. Settlement, preparation and assignment all react to that event
// asynchronously.
type PlaceOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  events.Publisher
}

// NewPlaceOrderCommandHandler creates a handler for order placement.
func NewPlaceOrderCommandHandler(uowFactory OrderUoWFactory, publisher events.Publisher) PlaceOrderCommandHandler {
	return PlaceOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
	}
}

// Handle builds the items and charges, persists the order in "placed", and
// publishes order_created keyed by order id.
func (h PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	items := make([]order.Item, 0, len(cmd.Items()))
	subtotal := kernel.MustNewMoney(0, cmd.Items()[0].UnitPrice.Currency())
	for _, input := range cmd.Items() {
		item, err := order.NewItem(input.ItemID, input.Name, input.Quantity, input.UnitPrice)
		if err != nil {
			return err
		}
		lineTotal, err := item.Subtotal()
		if err != nil {
			return err
		}
		if subtotal, err = subtotal.Add(lineTotal); err != nil {
			return err
		}
		items = append(items, item)
	}

	charges, err := order.NewCharges(subtotal, cmd.Tax(), cmd.DeliveryFee(), cmd.Tip(), cmd.Discount())
	if err != nil {
		return err
	}

	aggregate, err := order.NewOrder(cmd.OrderID(), order.NewOrderNumber(),
		cmd.CustomerID(), cmd.RestaurantID(), items, charges, time.Now())
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, aggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	envelope, err := events.NewEnvelope(events.TypeOrderCreated, events.ServiceOrder, events.OrderCreatedData{
		OrderID:      aggregate.ID().String(),
		OrderNumber:  aggregate.OrderNumber(),
		CustomerID:   aggregate.CustomerID().String(),
		RestaurantID: aggregate.RestaurantID().String(),
		TotalAmount:  aggregate.Charges().Total().Amount(),
		Currency:     aggregate.Charges().Total().Currency(),
	})
	if err != nil {
		return err
	}

	return h.publisher.Publish(ctx, events.TopicOrderEvents, aggregate.ID().String(), envelope)
}
