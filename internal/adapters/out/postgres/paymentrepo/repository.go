package paymentrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/payment"
	"coordinator/internal/pkg/errs"
)

// GormPaymentRepository implements ports.PaymentRepository using GORM.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a repository on the given connection.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Add saves a new payment intent.
func (r *GormPaymentRepository) Add(ctx context.Context, aggregate *payment.Intent) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Update saves an existing payment intent.
func (r *GormPaymentRepository) Update(ctx context.Context, aggregate *payment.Intent) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Where("id = ?", dto.ID).Save(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("payment_intent", aggregate.ID())
	}
	return nil
}

// Get retrieves a payment intent by id.
func (r *GormPaymentRepository) Get(ctx context.Context, id kernel.UUID) (*payment.Intent, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto IntentDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("payment_intent", id)
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetByOrderID retrieves the intent opened for an order.
func (r *GormPaymentRepository) GetByOrderID(ctx context.Context, orderID kernel.UUID) (*payment.Intent, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dto IntentDTO
	if err := r.db.WithContext(ctx).First(&dto, "order_id = ?", orderID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order_id", orderID)
		}
		return nil, err
	}

	return toDomain(dto)
}
