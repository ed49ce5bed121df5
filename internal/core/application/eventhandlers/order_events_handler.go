package eventhandlers

import (
	"context"
	"errors"
	"log/slog"

	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/order"
)

// OrderEventsHandler reacts to the order lifecycle stream: a newly placed
// order gets a payment intent, and an order reaching ready_for_pickup gets
// the driver search. The search can run for minutes, so it is detached from
// the consumer loop; an exhausted search is announced and left to the
// supervisor's compensation sweep.
type OrderEventsHandler struct {
	createIntent commands.CreateIntentCommandHandler
	assignDriver commands.AssignDriverCommandHandler
	publisher    events.Publisher
	logger       *slog.Logger

	// detach allows tests to run the assignment inline.
	detach func(func())
}

// NewOrderEventsHandler creates a handler for the order-events topic.
func NewOrderEventsHandler(
	createIntent commands.CreateIntentCommandHandler,
	assignDriver commands.AssignDriverCommandHandler,
	publisher events.Publisher,
	logger *slog.Logger,
) *OrderEventsHandler {
	return &OrderEventsHandler{
		createIntent: createIntent,
		assignDriver: assignDriver,
		publisher:    publisher,
		logger:       logger.With("component", "order-events"),
		detach:       func(run func()) { go run() },
	}
}

// Handle dispatches one envelope from order-events.
func (h *OrderEventsHandler) Handle(ctx context.Context, envelope events.Envelope) error {
	if err := envelope.Validate(); err != nil {
		return absorb(ctx, h.logger, string(envelope.EventType), err)
	}

	switch envelope.EventType {
	case events.TypeOrderCreated:
		return absorb(ctx, h.logger, string(envelope.EventType), h.onOrderCreated(ctx, envelope))
	case events.TypeOrderStatusChanged:
		return absorb(ctx, h.logger, string(envelope.EventType), h.onStatusChanged(ctx, envelope))
	default:
		return nil
	}
}

func (h *OrderEventsHandler) onOrderCreated(ctx context.Context, envelope events.Envelope) error {
	var data events.OrderCreatedData
	if err := decode(envelope, &data); err != nil {
		return err
	}

	orderID, err := parseID("order_id", data.OrderID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewCreateIntentCommand(orderID)
	if err != nil {
		return err
	}
	return h.createIntent.Handle(ctx, cmd)
}

func (h *OrderEventsHandler) onStatusChanged(ctx context.Context, envelope events.Envelope) error {
	var data events.OrderStatusChangedData
	if err := decode(envelope, &data); err != nil {
		return err
	}
	if data.Status != order.ReadyForPickup.String() {
		return nil
	}

	orderID, err := parseID("order_id", data.OrderID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewAssignDriverCommand(orderID)
	if err != nil {
		return err
	}

	h.detach(func() {
		h.runAssignment(cmd)
	})
	return nil
}

// runAssignment owns the long-running driver search. It runs outside the
// consumer loop so offer timeouts never stall the partition.
func (h *OrderEventsHandler) runAssignment(cmd commands.AssignDriverCommand) {
	ctx := context.Background()

	err := h.assignDriver.Handle(ctx, cmd)
	if err == nil {
		return
	}
	if !errors.Is(err, commands.ErrAssignmentExhausted) {
		h.logger.ErrorContext(ctx, "driver assignment failed",
			"order_id", cmd.OrderID().String(), "error", err)
		return
	}

	h.logger.WarnContext(ctx, "driver assignment exhausted",
		"order_id", cmd.OrderID().String())

	envelope, err := events.NewEnvelope(events.TypeDriverAssignmentFailed, events.ServiceDriver,
		events.DriverAssignmentFailedData{OrderID: cmd.OrderID().String()})
	if err != nil {
		h.logger.ErrorContext(ctx, "assignment failure envelope", "error", err)
		return
	}
	if err = h.publisher.Publish(ctx, events.TopicDriverEvents, cmd.OrderID().String(), envelope); err != nil {
		h.logger.ErrorContext(ctx, "assignment failure publish", "error", err)
	}
}
