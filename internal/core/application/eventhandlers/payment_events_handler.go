package eventhandlers

import (
	"context"
	"log/slog"

	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/domain/events"
)

// PaymentEventsHandler reacts to the payment stream. Settlements and
// failures are already applied by the webhook path; the only command on this
// stream is the supervisor's refund request.
type PaymentEventsHandler struct {
	processRefund commands.ProcessRefundCommandHandler
	logger        *slog.Logger
}

// NewPaymentEventsHandler creates a handler for the payment-events topic.
func NewPaymentEventsHandler(
	processRefund commands.ProcessRefundCommandHandler,
	logger *slog.Logger,
) *PaymentEventsHandler {
	return &PaymentEventsHandler{
		processRefund: processRefund,
		logger:        logger.With("component", "payment-events"),
	}
}

// Handle dispatches one envelope from payment-events.
func (h *PaymentEventsHandler) Handle(ctx context.Context, envelope events.Envelope) error {
	if err := envelope.Validate(); err != nil {
		return absorb(ctx, h.logger, string(envelope.EventType), err)
	}
	if envelope.EventType != events.TypeRefundRequested {
		return nil
	}
	return absorb(ctx, h.logger, string(envelope.EventType), h.onRefundRequested(ctx, envelope))
}

func (h *PaymentEventsHandler) onRefundRequested(ctx context.Context, envelope events.Envelope) error {
	var data events.RefundRequestedData
	if err := decode(envelope, &data); err != nil {
		return err
	}

	orderID, err := parseID("order_id", data.OrderID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewProcessRefundCommand(orderID, data.Reason)
	if err != nil {
		return err
	}
	return h.processRefund.Handle(ctx, cmd)
}
