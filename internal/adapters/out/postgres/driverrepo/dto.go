// Package driverrepo maps the driver aggregate to its relational shape.
package driverrepo

import (
	"github.com/google/uuid"

	"coordinator/internal/core/domain/model/driver"
	"coordinator/internal/core/domain/model/kernel"
)

// DriverDTO is the database row for a driver.
type DriverDTO struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                string
	Lat                 float64
	Lon                 float64
	MaxActiveDeliveries int
	ActiveDeliveries    int
	Available           bool `gorm:"index"`
	Rating              float64
}

// TableName overrides GORM's default naming to use "drivers".
func (DriverDTO) TableName() string {
	return "drivers"
}

func fromDomain(aggregate *driver.Driver) DriverDTO {
	return DriverDTO{
		ID:                  aggregate.ID().Bytes(),
		Name:                aggregate.Name(),
		Lat:                 aggregate.Location().Lat(),
		Lon:                 aggregate.Location().Lon(),
		MaxActiveDeliveries: aggregate.MaxActiveDeliveries(),
		ActiveDeliveries:    aggregate.ActiveDeliveries(),
		Available:           aggregate.IsAvailable(),
		Rating:              aggregate.Rating(),
	}
}

func toDomain(dto DriverDTO) (*driver.Driver, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	location, err := kernel.NewGeoPoint(dto.Lat, dto.Lon)
	if err != nil {
		return nil, err
	}

	return driver.RestoreDriver(id, dto.Name, location, dto.MaxActiveDeliveries,
		dto.ActiveDeliveries, dto.Available, dto.Rating)
}
