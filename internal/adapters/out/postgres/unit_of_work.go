// Package postgres implements the Unit of Work over GORM. A unit of work
// owns one database transaction; the repositories it hands out are bound to
// that transaction, so every command handler's writes commit or roll back
// together.
//
// Open the gorm.DB with TranslateError enabled: the compensation repository
// relies on gorm.ErrDuplicatedKey to report an already-issued compensation.
package postgres

import (
	"context"

	"gorm.io/gorm"

	"coordinator/internal/adapters/out/postgres/compensationrepo"
	"coordinator/internal/adapters/out/postgres/deliveryrepo"
	"coordinator/internal/adapters/out/postgres/driverrepo"
	"coordinator/internal/adapters/out/postgres/notificationrepo"
	"coordinator/internal/adapters/out/postgres/orderrepo"
	"coordinator/internal/adapters/out/postgres/paymentrepo"
	"coordinator/internal/core/ports"
)

// GormUnitOfWorkFactory creates a fresh unit of work per business
// operation, keeping concurrent handlers on isolated transactions.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory over one database connection.
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a unit of work with no transaction started yet.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork implements ports.UnitOfWork on a GORM transaction.
type GormUnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB
}

// Begin starts the transaction. Calling Begin twice is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	return uow.tx.Error
}

// Commit commits the transaction.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback rolls the transaction back. After a successful Commit (or before
// Begin) it is a no-op, so handlers can defer it unconditionally.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return nil
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

// OrderRepository returns an order repository bound to the transaction.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn())
}

// DeliveryRepository returns a delivery repository bound to the transaction.
func (uow *GormUnitOfWork) DeliveryRepository() ports.DeliveryRepository {
	return deliveryrepo.NewGormDeliveryRepository(uow.conn())
}

// DriverRepository returns a driver repository bound to the transaction.
func (uow *GormUnitOfWork) DriverRepository() ports.DriverRepository {
	return driverrepo.NewGormDriverRepository(uow.conn())
}

// PaymentRepository returns a payment repository bound to the transaction.
func (uow *GormUnitOfWork) PaymentRepository() ports.PaymentRepository {
	return paymentrepo.NewGormPaymentRepository(uow.conn())
}

// NotificationRepository returns a notification repository bound to the transaction.
func (uow *GormUnitOfWork) NotificationRepository() ports.NotificationRepository {
	return notificationrepo.NewGormNotificationRepository(uow.conn())
}

// CompensationRepository returns a compensation repository bound to the transaction.
func (uow *GormUnitOfWork) CompensationRepository() ports.CompensationRepository {
	return compensationrepo.NewGormCompensationRepository(uow.conn())
}
