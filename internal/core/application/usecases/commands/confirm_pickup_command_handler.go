package commands

import (
	"context"
	"time"

	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/pkg/keylock"
)

// ConfirmPickupCommandHandler moves the order and its delivery to
// out_for_delivery in one transaction.
type ConfirmPickupCommandHandler struct {
	uowFactory AssignmentUoWFactory
	publisher  events.Publisher
	locks      *keylock.KeyLock
}

// NewConfirmPickupCommandHandler creates a handler for pickup confirmations.
func NewConfirmPickupCommandHandler(
	uowFactory AssignmentUoWFactory,
	publisher events.Publisher,
	locks *keylock.KeyLock,
) ConfirmPickupCommandHandler {
	return ConfirmPickupCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		locks:      locks,
	}
}

// Handle applies the pickup under the order's lock. Redelivered
// confirmations are no-ops via the order's applied-event set.
func (h ConfirmPickupCommandHandler) Handle(ctx context.Context, cmd ConfirmPickupCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.locks.Do(cmd.OrderID().String(), func() error {
		return h.confirm(ctx, cmd)
	})
}

func (h ConfirmPickupCommandHandler) confirm(ctx context.Context, cmd ConfirmPickupCommand) error {
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
	switch aggregate.Status() {
	case order.OutForDelivery, order.PickedUp, order.Delivered:
		// The pickup already took effect; a redelivered confirmation is
		// a success.
		return nil
	}

	ev, err := order.NewTransitionEvent(cmd.EventID(), order.ReadyForPickup, order.OutForDelivery, "")
	if err != nil {
		return err
	}

	result, err := aggregate.Apply(ev, time.Now())
	if err != nil {
		return err
	}
	if result.Duplicate {
		return nil
	}

	del, err := uow.DeliveryRepository().GetByOrderID(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	if err = del.MarkOutForDelivery(time.Now()); err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, aggregate); err != nil {
		return err
	}
	if err = uow.DeliveryRepository().Update(ctx, del); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	envelope, err := events.NewEnvelope(events.TypeOrderStatusChanged, events.ServiceOrder,
		events.OrderStatusChangedData{
			OrderID:        aggregate.ID().String(),
			OrderNumber:    aggregate.OrderNumber(),
			CustomerID:     aggregate.CustomerID().String(),
			RestaurantID:   aggregate.RestaurantID().String(),
			DriverID:       cmd.DriverID().String(),
			Status:         result.Current.String(),
			PreviousStatus: result.Previous.String(),
		})
	if err != nil {
		return err
	}

	return h.publisher.Publish(ctx, events.TopicOrderEvents, aggregate.ID().String(), envelope)
}
