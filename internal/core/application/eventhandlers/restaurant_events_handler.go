package eventhandlers

import (
	"context"
	"log/slog"

	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/order"
)

// RestaurantEventsHandler applies the restaurant service's progress reports
// to the order aggregate: acceptance, preparation start and the order
// becoming ready for pickup.
type RestaurantEventsHandler struct {
	applyTransition commands.ApplyOrderTransitionCommandHandler
	logger          *slog.Logger
}

// NewRestaurantEventsHandler creates a handler for the restaurant-events
// topic.
func NewRestaurantEventsHandler(
	applyTransition commands.ApplyOrderTransitionCommandHandler,
	logger *slog.Logger,
) *RestaurantEventsHandler {
	return &RestaurantEventsHandler{
		applyTransition: applyTransition,
		logger:          logger.With("component", "restaurant-events"),
	}
}

// Handle applies one restaurant-announced transition. The expected prior
// status travels in the payload, so an envelope arriving after the order
// moved on fails stale and is dropped once the retries confirm it is
// superseded.
func (h *RestaurantEventsHandler) Handle(ctx context.Context, envelope events.Envelope) error {
	if err := envelope.Validate(); err != nil {
		return absorb(ctx, h.logger, string(envelope.EventType), err)
	}
	if envelope.EventType != events.TypeOrderStatusChanged {
		return nil
	}
	return absorb(ctx, h.logger, string(envelope.EventType), h.onStatusChanged(ctx, envelope))
}

func (h *RestaurantEventsHandler) onStatusChanged(ctx context.Context, envelope events.Envelope) error {
	var data events.OrderStatusChangedData
	if err := decode(envelope, &data); err != nil {
		return err
	}

	from, err := order.StatusFromString(data.PreviousStatus)
	if err != nil {
		return err
	}
	to, err := order.StatusFromString(data.Status)
	if err != nil {
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

	cmd, err := commands.NewApplyOrderTransitionCommand(orderID, eventID, from, to, data.Reason)
	if err != nil {
		return err
	}
	return retryStale(ctx, h.logger, func() error {
		return h.applyTransition.Handle(ctx, cmd)
	})
}
