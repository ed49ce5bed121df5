// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS
// architecture. All commands follow a consistent pattern: validation,
// transaction management, and persistence.
package commands

import (
	"context"

	"coordinator/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command
// handlers. Each command depends on the narrowest composition of
// repositories it actually touches.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// DeliveryRepoFactory provides access to the delivery repository within a transaction.
	DeliveryRepoFactory interface {
		DeliveryRepository() ports.DeliveryRepository
	}

	// DriverRepoFactory provides access to the driver repository within a transaction.
	DriverRepoFactory interface {
		DriverRepository() ports.DriverRepository
	}

	// PaymentRepoFactory provides access to the payment repository within a transaction.
	PaymentRepoFactory interface {
		PaymentRepository() ports.PaymentRepository
	}

	// NotificationRepoFactory provides access to the notification repository within a transaction.
	NotificationRepoFactory interface {
		NotificationRepository() ports.NotificationRepository
	}

	// CompensationRepoFactory provides access to the compensation repository within a transaction.
	CompensationRepoFactory interface {
		CompensationRepository() ports.CompensationRepository
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// PaymentUoW manages transactions spanning orders and payment intents.
	PaymentUoW interface {
		TxManager
		OrderRepoFactory
		PaymentRepoFactory
	}

	// PaymentUoWFactory creates payment unit of work instances.
	PaymentUoWFactory interface {
		Create() PaymentUoW
	}

	// AssignmentUoW manages transactions spanning orders, drivers and deliveries.
	AssignmentUoW interface {
		TxManager
		OrderRepoFactory
		DriverRepoFactory
		DeliveryRepoFactory
	}

	// AssignmentUoWFactory creates assignment unit of work instances.
	AssignmentUoWFactory interface {
		Create() AssignmentUoW
	}

	// NotificationUoW manages transactions for notification operations.
	NotificationUoW interface {
		TxManager
		NotificationRepoFactory
	}

	// NotificationUoWFactory creates notification unit of work instances.
	NotificationUoWFactory interface {
		Create() NotificationUoW
	}

	// SupervisorUoW manages transactions for the stall sweep, which may touch
	// every aggregate while compensating an order.
	SupervisorUoW interface {
		TxManager
		OrderRepoFactory
		PaymentRepoFactory
		DeliveryRepoFactory
		DriverRepoFactory
		CompensationRepoFactory
	}

	// SupervisorUoWFactory creates supervisor unit of work instances.
	SupervisorUoWFactory interface {
		Create() SupervisorUoW
	}
)
