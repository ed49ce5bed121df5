package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/core/ports"
)

// SupervisorConfig holds the per-status stall deadlines.
type SupervisorConfig struct {
	// PaymentTimeout bounds how long an order may sit in placed without a
	// settlement.
	PaymentTimeout time.Duration
	// AssignmentTimeout bounds how long an order may sit in
	// ready_for_pickup without a delivery.
	AssignmentTimeout time.Duration
	// DeliverySLA bounds how long an order may sit out for delivery.
	DeliverySLA time.Duration
}

// DefaultSupervisorConfig returns the stock deadlines.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		PaymentTimeout:    10 * time.Minute,
		AssignmentTimeout: 300 * time.Second,
		DeliverySLA:       90 * time.Minute,
	}
}

// ReconcileStalledOrdersCommandHandler is the supervisor sweep. For every
// stalled order it records a compensation keyed by order id and stall kind,
// then issues the forced cancellation and refund request. The unique key
// makes the compensation at-most-once: a sweep re-observing the same stall,
// or two sweeps overlapping, insert the same key and the second insert is a
// no-op.
type ReconcileStalledOrdersCommandHandler struct {
	uowFactory       SupervisorUoWFactory
	cancelHandler    CancelOrderCommandHandler
	reconcileHandler ReconcilePaymentCommandHandler
	publisher        events.Publisher
	config           SupervisorConfig
	logger           *slog.Logger
}

// NewReconcileStalledOrdersCommandHandler creates the supervisor sweep
// handler.
func NewReconcileStalledOrdersCommandHandler(
	uowFactory SupervisorUoWFactory,
	cancelHandler CancelOrderCommandHandler,
	reconcileHandler ReconcilePaymentCommandHandler,
	publisher events.Publisher,
	config SupervisorConfig,
	logger *slog.Logger,
) ReconcileStalledOrdersCommandHandler {
	return ReconcileStalledOrdersCommandHandler{
		uowFactory:       uowFactory,
		cancelHandler:    cancelHandler,
		reconcileHandler: reconcileHandler,
		publisher:        publisher,
		config:           config,
		logger:           logger.With("component", "supervisor"),
	}
}

type stallClass struct {
	status   order.Status
	deadline time.Duration
	kind     order.CompensationKind
	reason   string
}

func (h ReconcileStalledOrdersCommandHandler) stallClasses() []stallClass {
	return []stallClass{
		{order.Placed, h.config.PaymentTimeout, order.CompensationKindPaymentTimeout,
			"payment not settled within the payment timeout"},
		{order.ReadyForPickup, h.config.AssignmentTimeout, order.CompensationKindAssignmentExhausted,
			"no driver assigned within the assignment window"},
		{order.OutForDelivery, h.config.DeliverySLA, order.CompensationKindDeliveryTimeout,
			"delivery exceeded its SLA"},
		{order.PickedUp, h.config.DeliverySLA, order.CompensationKindDeliveryTimeout,
			"delivery exceeded its SLA"},
	}
}

// Handle runs one sweep. Failures on one order are logged and do not stop
// the sweep for the rest.
func (h ReconcileStalledOrdersCommandHandler) Handle(ctx context.Context, cmd ReconcileStalledOrdersCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	for _, class := range h.stallClasses() {
		stalled, err := h.findStalled(ctx, class)
		if err != nil {
			return err
		}

		for _, aggregate := range stalled {
			if err := h.compensate(ctx, aggregate, class); err != nil {
				h.logger.ErrorContext(ctx, "compensation failed",
					"order_id", aggregate.ID().String(),
					"kind", class.kind.String(),
					"error", err)
			}
		}
	}

	return nil
}

func (h ReconcileStalledOrdersCommandHandler) findStalled(ctx context.Context, class stallClass) ([]*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.OrderRepository().GetAllInStatusOlderThan(ctx, class.status, time.Now().Add(-class.deadline))
}

func (h ReconcileStalledOrdersCommandHandler) compensate(ctx context.Context, aggregate *order.Order, class stallClass) error {
	// A payment stall may just be a lost webhook. Reconcile first; a late
	// settlement moves the order on and no compensation is due.
	if class.kind == order.CompensationKindPaymentTimeout {
		if settled, err := h.tryReconcile(ctx, aggregate.ID()); err != nil {
			h.logger.ErrorContext(ctx, "payment reconciliation failed, compensating",
				"order_id", aggregate.ID().String(), "error", err)
		} else if settled {
			return nil
		}
	}

	token := order.NewCompensationToken()
	issued, err := h.recordCompensation(ctx, aggregate.ID(), class, token)
	if err != nil {
		return err
	}
	if !issued {
		return nil
	}

	cancel, err := NewCompensatedCancelOrderCommand(aggregate.ID(), kernel.NewUUID(), token, class.reason)
	if err != nil {
		return err
	}
	if err = h.cancelHandler.Handle(ctx, cancel); err != nil {
		// The order may have progressed between the sweep query and the
		// cancellation; the compensation stays recorded either way.
		h.logger.ErrorContext(ctx, "forced cancellation failed",
			"order_id", aggregate.ID().String(), "error", err)
	}

	return h.announce(ctx, aggregate, class, token)
}

// tryReconcile reports whether reconciliation settled the payment.
func (h ReconcileStalledOrdersCommandHandler) tryReconcile(ctx context.Context, orderID kernel.UUID) (bool, error) {
	cmd, err := NewReconcilePaymentCommand(orderID)
	if err != nil {
		return false, err
	}
	if err = h.reconcileHandler.Handle(ctx, cmd); err != nil {
		return false, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	refreshed, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return false, err
	}
	return refreshed.Status() != order.Placed, nil
}

// recordCompensation inserts the at-most-once marker. It reports false when
// another sweep already compensated this order for this kind.
func (h ReconcileStalledOrdersCommandHandler) recordCompensation(ctx context.Context, orderID kernel.UUID, class stallClass, token string) (bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	compensation, err := order.NewCompensation(kernel.NewUUID(), orderID, class.kind, token, class.reason, time.Now())
	if err != nil {
		return false, err
	}

	if err = uow.CompensationRepository().Add(ctx, compensation); err != nil {
		if errors.Is(err, ports.ErrCompensationAlreadyIssued) {
			return false, nil
		}
		return false, err
	}

	return true, uow.Commit(ctx)
}

func (h ReconcileStalledOrdersCommandHandler) announce(ctx context.Context, aggregate *order.Order, class stallClass, token string) error {
	envelope, err := events.NewEnvelope(events.TypeCompensationIssued, events.ServiceSupervisor,
		events.CompensationIssuedData{
			OrderID: aggregate.ID().String(),
			Kind:    class.kind.String(),
			Token:   token,
			Reason:  class.reason,
		})
	if err != nil {
		return err
	}
	if err = h.publisher.Publish(ctx, events.TopicOrderEvents, aggregate.ID().String(), envelope); err != nil {
		return err
	}

	if aggregate.PaymentStatus() != order.PaymentCaptured {
		return nil
	}

	refund, err := events.NewEnvelope(events.TypeRefundRequested, events.ServiceSupervisor,
		events.RefundRequestedData{
			OrderID:  aggregate.ID().String(),
			Amount:   aggregate.Charges().Total().Amount(),
			Currency: aggregate.Charges().Total().Currency(),
			Reason:   class.reason,
		})
	if err != nil {
		return err
	}
	return h.publisher.Publish(ctx, events.TopicPaymentEvents, aggregate.ID().String(), refund)
}
