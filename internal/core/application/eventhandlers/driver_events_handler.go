package eventhandlers

import (
	"context"
	"log/slog"

	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
)

// DriverEventsHandler reacts to the driver-service stream: pickup
// confirmations, courier location pings, delivery completions and the
// picked_up progress report.
type DriverEventsHandler struct {
	confirmPickup    commands.ConfirmPickupCommandHandler
	completeDelivery commands.CompleteDeliveryCommandHandler
	recordLocation   commands.RecordDriverLocationCommandHandler
	applyTransition  commands.ApplyOrderTransitionCommandHandler
	logger           *slog.Logger
}

// NewDriverEventsHandler creates a handler for the driver-events topic.
func NewDriverEventsHandler(
	confirmPickup commands.ConfirmPickupCommandHandler,
	completeDelivery commands.CompleteDeliveryCommandHandler,
	recordLocation commands.RecordDriverLocationCommandHandler,
	applyTransition commands.ApplyOrderTransitionCommandHandler,
	logger *slog.Logger,
) *DriverEventsHandler {
	return &DriverEventsHandler{
		confirmPickup:    confirmPickup,
		completeDelivery: completeDelivery,
		recordLocation:   recordLocation,
		applyTransition:  applyTransition,
		logger:           logger.With("component", "driver-events"),
	}
}

// Handle dispatches one envelope from driver-events.
func (h *DriverEventsHandler) Handle(ctx context.Context, envelope events.Envelope) error {
	if err := envelope.Validate(); err != nil {
		return absorb(ctx, h.logger, string(envelope.EventType), err)
	}

	var err error
	switch envelope.EventType {
	case events.TypePickupConfirmed:
		err = h.onPickupConfirmed(ctx, envelope)
	case events.TypeDeliveryCompleted:
		err = h.onDeliveryCompleted(ctx, envelope)
	case events.TypeDriverLocationUpdated:
		err = h.onLocationUpdated(ctx, envelope)
	case events.TypeOrderStatusChanged:
		err = h.onStatusChanged(ctx, envelope)
	default:
		return nil
	}
	return absorb(ctx, h.logger, string(envelope.EventType), err)
}

func (h *DriverEventsHandler) onPickupConfirmed(ctx context.Context, envelope events.Envelope) error {
	var data events.PickupConfirmedData
	if err := decode(envelope, &data); err != nil {
		return err
	}

	orderID, err := parseID("order_id", data.OrderID)
	if err != nil {
		return err
	}
	driverID, err := parseID("driver_id", data.DriverID)
	if err != nil {
		return err
	}
	eventID, err := parseID("event_id", envelope.EventID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewConfirmPickupCommand(orderID, driverID, eventID)
	if err != nil {
		return err
	}
	return retryStale(ctx, h.logger, func() error {
		return h.confirmPickup.Handle(ctx, cmd)
	})
}

func (h *DriverEventsHandler) onDeliveryCompleted(ctx context.Context, envelope events.Envelope) error {
	var data events.DeliveryCompletedData
	if err := decode(envelope, &data); err != nil {
		return err
	}

	orderID, err := parseID("order_id", data.OrderID)
	if err != nil {
		return err
	}
	eventID, err := parseID("event_id", envelope.EventID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewCompleteDeliveryCommand(orderID, eventID)
	if err != nil {
		return err
	}
	return retryStale(ctx, h.logger, func() error {
		return h.completeDelivery.Handle(ctx, cmd)
	})
}

func (h *DriverEventsHandler) onLocationUpdated(ctx context.Context, envelope events.Envelope) error {
	var data events.DriverLocationUpdatedData
	if err := decode(envelope, &data); err != nil {
		return err
	}

	orderID, err := parseID("order_id", data.OrderID)
	if err != nil {
		return err
	}
	driverID, err := parseID("driver_id", data.DriverID)
	if err != nil {
		return err
	}
	point, err := kernel.NewGeoPoint(data.Lat, data.Lon)
	if err != nil {
		return err
	}

	cmd, err := commands.NewRecordDriverLocationCommand(orderID, driverID, point, data.At)
	if err != nil {
		return err
	}
	return h.recordLocation.Handle(ctx, cmd)
}

// onStatusChanged applies the driver service's picked_up progress report.
// All other statuses on this stream are authoritative elsewhere.
func (h *DriverEventsHandler) onStatusChanged(ctx context.Context, envelope events.Envelope) error {
	var data events.OrderStatusChangedData
	if err := decode(envelope, &data); err != nil {
		return err
	}
	if data.Status != order.PickedUp.String() {
		return nil
	}

	orderID, err := parseID("order_id", data.OrderID)
	if err != nil {
		return err
	}
	eventID, err := parseID("event_id", envelope.EventID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewApplyOrderTransitionCommand(orderID, eventID,
		order.OutForDelivery, order.PickedUp, "")
	if err != nil {
		return err
	}
	return retryStale(ctx, h.logger, func() error {
		return h.applyTransition.Handle(ctx, cmd)
	})
}
