// Package paymentrepo maps the payment intent aggregate to its relational
// shape.
package paymentrepo

import (
	"time"

	"github.com/google/uuid"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/payment"
)

// IntentDTO is the database row for a payment intent.
type IntentDTO struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID            uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Amount             int64
	Currency           string
	Status             string
	ProviderRef        string   `gorm:"index"`
	AppliedCallbackIDs []string `gorm:"serializer:json"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName overrides GORM's default naming to use "payment_intents".
func (IntentDTO) TableName() string {
	return "payment_intents"
}

func fromDomain(aggregate *payment.Intent) IntentDTO {
	return IntentDTO{
		ID:                 aggregate.ID().Bytes(),
		OrderID:            aggregate.OrderID().Bytes(),
		Amount:             aggregate.Amount().Amount(),
		Currency:           aggregate.Amount().Currency(),
		Status:             aggregate.Status().String(),
		ProviderRef:        aggregate.ProviderRef(),
		AppliedCallbackIDs: aggregate.AppliedCallbackIDs(),
		CreatedAt:          aggregate.CreatedAt(),
		UpdatedAt:          aggregate.UpdatedAt(),
	}
}

func toDomain(dto IntentDTO) (*payment.Intent, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	amount, err := kernel.NewMoney(dto.Amount, dto.Currency)
	if err != nil {
		return nil, err
	}
	status, err := payment.IntentStatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	return payment.RestoreIntent(id, orderID, amount, status, dto.ProviderRef,
		dto.AppliedCallbackIDs, dto.CreatedAt, dto.UpdatedAt)
}
