package commands

import (
	"context"
	"errors"
	"time"

	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/pkg/errs"
	"coordinator/internal/pkg/keylock"
)

// CancelOrderCommandHandler cancels the order and tears down whatever the
// lifecycle built so far: an in-flight delivery is cancelled and the
// driver's slot freed, all in one transaction.
type CancelOrderCommandHandler struct {
	uowFactory AssignmentUoWFactory
	publisher  events.Publisher
	locks      *keylock.KeyLock
}

// NewCancelOrderCommandHandler creates a handler for order cancellation.
func NewCancelOrderCommandHandler(
	uowFactory AssignmentUoWFactory,
	publisher events.Publisher,
	locks *keylock.KeyLock,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		locks:      locks,
	}
}

// Handle cancels under the order's lock. The aggregate rejects late
// cancellations without a token; a duplicate event id is a silent success.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.locks.Do(cmd.OrderID().String(), func() error {
		return h.cancel(ctx, cmd)
	})
}

func (h CancelOrderCommandHandler) cancel(ctx context.Context, cmd CancelOrderCommand) error {
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

	ev, err := h.transitionEvent(cmd, aggregate.Status())
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

	if err = h.teardownDelivery(ctx, uow, cmd); err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, aggregate); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	data := events.OrderStatusChangedData{
		OrderID:        aggregate.ID().String(),
		OrderNumber:    aggregate.OrderNumber(),
		CustomerID:     aggregate.CustomerID().String(),
		RestaurantID:   aggregate.RestaurantID().String(),
		Status:         result.Current.String(),
		PreviousStatus: result.Previous.String(),
		Reason:         cmd.Reason(),
	}
	if driverID := aggregate.DriverID(); driverID != nil {
		data.DriverID = driverID.String()
	}

	envelope, err := events.NewEnvelope(events.TypeOrderCancelled, events.ServiceOrder, data)
	if err != nil {
		return err
	}

	return h.publisher.Publish(ctx, events.TopicOrderEvents, aggregate.ID().String(), envelope)
}

func (h CancelOrderCommandHandler) transitionEvent(cmd CancelOrderCommand, from order.Status) (order.TransitionEvent, error) {
	if cmd.CompensationToken() != "" {
		return order.NewCompensatedCancellation(cmd.EventID(), from, cmd.CompensationToken(), cmd.Reason())
	}
	return order.NewTransitionEvent(cmd.EventID(), from, order.Cancelled, cmd.Reason())
}

// teardownDelivery cancels an in-flight delivery and frees the driver slot.
// No delivery is the common case for early cancellations.
func (h CancelOrderCommandHandler) teardownDelivery(ctx context.Context, uow AssignmentUoW, cmd CancelOrderCommand) error {
	del, err := uow.DeliveryRepository().GetByOrderID(ctx, cmd.OrderID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !del.IsActive() {
		return nil
	}

	if err = del.MarkCancelled(time.Now()); err != nil {
		return err
	}

	d, err := uow.DriverRepository().Get(ctx, del.DriverID())
	if err != nil {
		return err
	}
	if err = d.ReleaseDelivery(); err != nil {
		return err
	}

	if err = uow.DeliveryRepository().Update(ctx, del); err != nil {
		return err
	}
	return uow.DriverRepository().Update(ctx, d)
}
