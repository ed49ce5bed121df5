// Package deliveryrepo maps the delivery aggregate to its relational shape.
// The location history is a JSON column: points are only appended through
// the aggregate and read back whole.
package deliveryrepo

import (
	"time"

	"github.com/google/uuid"

	"coordinator/internal/core/domain/model/delivery"
	"coordinator/internal/core/domain/model/kernel"
)

// DeliveryDTO is the database row for a delivery. The order id is the
// primary key: an order has at most one delivery.
type DeliveryDTO struct {
	OrderID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	DriverID        uuid.UUID `gorm:"type:uuid;index"`
	Status          string    `gorm:"index"`
	LocationHistory []TrackPointDTO `gorm:"serializer:json"`
	RetryCount      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName overrides GORM's default naming to use "deliveries".
func (DeliveryDTO) TableName() string {
	return "deliveries"
}

// TrackPointDTO is one recorded driver position inside the history column.
type TrackPointDTO struct {
	Lat float64   `json:"lat"`
	Lon float64   `json:"lon"`
	At  time.Time `json:"at"`
}

func fromDomain(aggregate *delivery.Delivery) DeliveryDTO {
	history := make([]TrackPointDTO, 0, len(aggregate.LocationHistory()))
	for _, point := range aggregate.LocationHistory() {
		history = append(history, TrackPointDTO{
			Lat: point.Point.Lat(),
			Lon: point.Point.Lon(),
			At:  point.At,
		})
	}

	return DeliveryDTO{
		OrderID:         aggregate.OrderID().Bytes(),
		DriverID:        aggregate.DriverID().Bytes(),
		Status:          aggregate.Status().String(),
		LocationHistory: history,
		RetryCount:      aggregate.RetryCount(),
		CreatedAt:       aggregate.CreatedAt(),
		UpdatedAt:       aggregate.UpdatedAt(),
	}
}

func toDomain(dto DeliveryDTO) (*delivery.Delivery, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	driverID, err := kernel.UUIDFromBytes(dto.DriverID[:])
	if err != nil {
		return nil, err
	}
	status, err := delivery.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	history := make([]delivery.TrackPoint, 0, len(dto.LocationHistory))
	for _, pointDTO := range dto.LocationHistory {
		point, pointErr := kernel.NewGeoPoint(pointDTO.Lat, pointDTO.Lon)
		if pointErr != nil {
			return nil, pointErr
		}
		history = append(history, delivery.TrackPoint{Point: point, At: pointDTO.At})
	}

	return delivery.RestoreDelivery(orderID, driverID, status, history,
		dto.RetryCount, dto.CreatedAt, dto.UpdatedAt)
}
