// Package compensationrepo maps compensation records to their relational
// shape. The unique index on (order_id, kind) is what makes issuing a
// compensation an at-most-once operation across competing sweeps.
package compensationrepo

import (
	"time"

	"github.com/google/uuid"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
)

// CompensationDTO is the database row for a compensation record.
type CompensationDTO struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_compensations_order_kind"`
	Kind     string    `gorm:"uniqueIndex:idx_compensations_order_kind"`
	Token    string
	Reason   string
	IssuedAt time.Time
}

// TableName overrides GORM's default naming to use "compensations".
func (CompensationDTO) TableName() string {
	return "compensations"
}

func fromDomain(aggregate *order.Compensation) CompensationDTO {
	return CompensationDTO{
		ID:       aggregate.ID().Bytes(),
		OrderID:  aggregate.OrderID().Bytes(),
		Kind:     aggregate.Kind().String(),
		Token:    aggregate.Token(),
		Reason:   aggregate.Reason(),
		IssuedAt: aggregate.IssuedAt(),
	}
}

func toDomain(dto CompensationDTO) (*order.Compensation, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	kind, err := order.CompensationKindFromString(dto.Kind)
	if err != nil {
		return nil, err
	}

	return order.RestoreCompensation(id, orderID, kind, dto.Token, dto.Reason, dto.IssuedAt)
}
