package commands

import (
	"context"
	"time"

	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/pkg/keylock"
)

// CompleteDeliveryCommandHandler closes out a delivery: the order becomes
// delivered, the delivery record is finalized, and the driver's slot is
// released. The payment gate lives in the aggregate, so an uncaptured order
// is rejected here.
type CompleteDeliveryCommandHandler struct {
	uowFactory AssignmentUoWFactory
	publisher  events.Publisher
	locks      *keylock.KeyLock
}

// NewCompleteDeliveryCommandHandler creates a handler for delivery
// completion.
func NewCompleteDeliveryCommandHandler(
	uowFactory AssignmentUoWFactory,
	publisher events.Publisher,
	locks *keylock.KeyLock,
) CompleteDeliveryCommandHandler {
	return CompleteDeliveryCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		locks:      locks,
	}
}

// Handle applies the completion under the order's lock. The order may be in
// out_for_delivery or picked_up; both edges to delivered are legal, so a
// lost picked_up event never blocks completion.
func (h CompleteDeliveryCommandHandler) Handle(ctx context.Context, cmd CompleteDeliveryCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.locks.Do(cmd.OrderID().String(), func() error {
		return h.complete(ctx, cmd)
	})
}

func (h CompleteDeliveryCommandHandler) complete(ctx context.Context, cmd CompleteDeliveryCommand) error {
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
	if aggregate.Status() == order.Delivered {
		return nil
	}

	// Delivered is only reachable from out_for_delivery or picked_up. A
	// completion that arrives before the order got that far must surface as
	// stale, so that the consumer retries it instead of acking it away as an
	// illegal edge.
	from := aggregate.Status()
	if from != order.OutForDelivery && from != order.PickedUp {
		from = order.OutForDelivery
	}

	ev, err := order.NewTransitionEvent(cmd.EventID(), from, order.Delivered, "")
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
	if err = del.MarkDelivered(time.Now()); err != nil {
		return err
	}

	d, err := uow.DriverRepository().Get(ctx, del.DriverID())
	if err != nil {
		return err
	}
	if err = d.ReleaseDelivery(); err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, aggregate); err != nil {
		return err
	}
	if err = uow.DeliveryRepository().Update(ctx, del); err != nil {
		return err
	}
	if err = uow.DriverRepository().Update(ctx, d); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	envelope, err := events.NewEnvelope(events.TypeDeliveryCompleted, events.ServiceDriver,
		events.DeliveryCompletedData{
			OrderID:  aggregate.ID().String(),
			DriverID: del.DriverID().String(),
		})
	if err != nil {
		return err
	}

	return h.publisher.Publish(ctx, events.TopicDriverEvents, aggregate.ID().String(), envelope)
}
