package compensationrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/core/ports"
	"coordinator/internal/pkg/errs"
)

// GormCompensationRepository implements ports.CompensationRepository using
// GORM. It requires the connection to be opened with TranslateError, so a
// unique violation surfaces as gorm.ErrDuplicatedKey.
type GormCompensationRepository struct {
	db *gorm.DB
}

// NewGormCompensationRepository creates a repository on the given connection.
func NewGormCompensationRepository(db *gorm.DB) *GormCompensationRepository {
	return &GormCompensationRepository{db: db}
}

// Add persists a new compensation. A second Add for the same order and kind
// fails with ports.ErrCompensationAlreadyIssued.
func (r *GormCompensationRepository) Add(ctx context.Context, aggregate *order.Compensation) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrCompensationAlreadyIssued
		}
		return err
	}
	return nil
}

// GetByOrderAndKind retrieves a recorded compensation.
func (r *GormCompensationRepository) GetByOrderAndKind(
	ctx context.Context,
	orderID kernel.UUID,
	kind order.CompensationKind,
) (*order.Compensation, error) {
	if err := errors.Join(orderID.Validate(), kind.Validate()); err != nil {
		return nil, err
	}

	var dto CompensationDTO
	err := r.db.WithContext(ctx).
		First(&dto, "order_id = ? AND kind = ?", orderID.Bytes(), kind.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order_id", orderID)
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllForOrder retrieves all compensations issued for an order.
func (r *GormCompensationRepository) GetAllForOrder(
	ctx context.Context,
	orderID kernel.UUID,
) ([]*order.Compensation, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []CompensationDTO
	err := r.db.WithContext(ctx).
		Order("issued_at").
		Find(&dtos, "order_id = ?", orderID.Bytes()).Error
	if err != nil {
		return nil, err
	}

	compensations := make([]*order.Compensation, 0, len(dtos))
	for _, dto := range dtos {
		aggregate, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		compensations = append(compensations, aggregate)
	}
	return compensations, nil
}
