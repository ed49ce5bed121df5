package commands

import (
	"context"
	"time"

	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/pkg/keylock"
)

// ApplyOrderTransitionCommandHandler serializes per order and applies one
// transition to the aggregate. Duplicate event ids commit nothing and
// publish nothing, so at-least-once delivery upstream never produces a
// second status-changed event downstream.
type ApplyOrderTransitionCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  events.Publisher
	locks      *keylock.KeyLock
}

// NewApplyOrderTransitionCommandHandler creates a handler for lifecycle
// transitions.
func NewApplyOrderTransitionCommandHandler(
	uowFactory OrderUoWFactory,
	publisher events.Publisher,
	locks *keylock.KeyLock,
) ApplyOrderTransitionCommandHandler {
	return ApplyOrderTransitionCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		locks:      locks,
	}
}

// Handle applies the transition under the order's lock. It returns
// order.ErrStaleEvent unchanged so callers can run their re-fetch loop, and
// treats duplicates as success.
func (h ApplyOrderTransitionCommandHandler) Handle(ctx context.Context, cmd ApplyOrderTransitionCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.locks.Do(cmd.OrderID().String(), func() error {
		return h.apply(ctx, cmd)
	})
}

func (h ApplyOrderTransitionCommandHandler) apply(ctx context.Context, cmd ApplyOrderTransitionCommand) error {
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

	ev, err := h.transitionEvent(cmd)
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

	if err = uow.OrderRepository().Update(ctx, aggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return h.announce(ctx, aggregate, result, cmd.Reason())
}

func (h ApplyOrderTransitionCommandHandler) transitionEvent(cmd ApplyOrderTransitionCommand) (order.TransitionEvent, error) {
	if cmd.CompensationToken() != "" {
		return order.NewCompensatedCancellation(cmd.EventID(), cmd.From(), cmd.CompensationToken(), cmd.Reason())
	}
	return order.NewTransitionEvent(cmd.EventID(), cmd.From(), cmd.To(), cmd.Reason())
}

func (h ApplyOrderTransitionCommandHandler) announce(ctx context.Context, aggregate *order.Order, result order.TransitionResult, reason string) error {
	data := events.OrderStatusChangedData{
		OrderID:        aggregate.ID().String(),
		OrderNumber:    aggregate.OrderNumber(),
		CustomerID:     aggregate.CustomerID().String(),
		RestaurantID:   aggregate.RestaurantID().String(),
		Status:         result.Current.String(),
		PreviousStatus: result.Previous.String(),
		Reason:         reason,
	}
	if driverID := aggregate.DriverID(); driverID != nil {
		data.DriverID = driverID.String()
	}

	eventType := events.TypeOrderStatusChanged
	if result.Current == order.Cancelled {
		eventType = events.TypeOrderCancelled
	}

	envelope, err := events.NewEnvelope(eventType, events.ServiceOrder, data)
	if err != nil {
		return err
	}

	return h.publisher.Publish(ctx, events.TopicOrderEvents, aggregate.ID().String(), envelope)
}
