package commands

import (
	"context"
	"errors"

	"coordinator/internal/core/domain/model/delivery"
	"coordinator/internal/pkg/errs"
	"coordinator/internal/pkg/keylock"
)

// RecordDriverLocationCommandHandler persists one location ping. Pings for
// finished or unknown deliveries are dropped silently; drivers keep sending
// for a while after handoff.
type RecordDriverLocationCommandHandler struct {
	uowFactory AssignmentUoWFactory
	locks      *keylock.KeyLock
}

// NewRecordDriverLocationCommandHandler creates a handler for location pings.
func NewRecordDriverLocationCommandHandler(uowFactory AssignmentUoWFactory, locks *keylock.KeyLock) RecordDriverLocationCommandHandler {
	return RecordDriverLocationCommandHandler{
		uowFactory: uowFactory,
		locks:      locks,
	}
}

// Handle records the ping under the order's lock.
func (h RecordDriverLocationCommandHandler) Handle(ctx context.Context, cmd RecordDriverLocationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.locks.Do(cmd.OrderID().String(), func() error {
		return h.record(ctx, cmd)
	})
}

func (h RecordDriverLocationCommandHandler) record(ctx context.Context, cmd RecordDriverLocationCommand) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	del, err := uow.DeliveryRepository().GetByOrderID(ctx, cmd.OrderID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err = del.RecordLocation(cmd.Point(), cmd.At()); err != nil {
		if errors.Is(err, delivery.ErrDeliveryIsTerminal) {
			return nil
		}
		return err
	}

	d, err := uow.DriverRepository().Get(ctx, cmd.DriverID())
	if err != nil {
		return err
	}
	if err = d.MoveTo(cmd.Point()); err != nil {
		return err
	}

	if err = uow.DeliveryRepository().Update(ctx, del); err != nil {
		return err
	}
	if err = uow.DriverRepository().Update(ctx, d); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
