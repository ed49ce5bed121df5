package eventhandlers

import (
	"context"
	"log/slog"

	"coordinator/internal/core/domain/events"
)

// AnalyticsRelayHandler forwards order milestones to the analytics stream.
// The relay is fire-and-forget: analytics must never hold an offset on a
// lifecycle topic, so publish failures are logged and the envelope is
// acknowledged anyway.
type AnalyticsRelayHandler struct {
	publisher events.Publisher
	logger    *slog.Logger
}

// NewAnalyticsRelayHandler creates a relay onto analytics-events.
func NewAnalyticsRelayHandler(publisher events.Publisher, logger *slog.Logger) *AnalyticsRelayHandler {
	return &AnalyticsRelayHandler{
		publisher: publisher,
		logger:    logger.With("component", "analytics-relay"),
	}
}

// Handle republishes milestone envelopes unchanged, keyed as delivered.
func (h *AnalyticsRelayHandler) Handle(ctx context.Context, envelope events.Envelope) error {
	if err := envelope.Validate(); err != nil {
		h.logger.WarnContext(ctx, "discarding invalid envelope", "error", err)
		return nil
	}

	switch envelope.EventType {
	case events.TypeOrderCreated,
		events.TypeOrderStatusChanged,
		events.TypeOrderCancelled,
		events.TypeDeliveryCompleted,
		events.TypePaymentSettled:
	default:
		return nil
	}

	var payload events.OrderStatusChangedData
	if err := envelope.DecodeData(&payload); err != nil || payload.OrderID == "" {
		// Milestone payloads all carry order_id; anything else is not worth
		// relaying.
		return nil
	}

	if err := h.publisher.Publish(ctx, events.TopicAnalyticsEvents, payload.OrderID, envelope); err != nil {
		h.logger.WarnContext(ctx, "analytics relay dropped an event",
			"event_id", envelope.EventID, "type", string(envelope.EventType), "error", err)
	}
	return nil
}
