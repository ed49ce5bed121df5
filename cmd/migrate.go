package cmd

import (
	"coordinator/internal/adapters/out/postgres/compensationrepo"
	"coordinator/internal/adapters/out/postgres/deliveryrepo"
	"coordinator/internal/adapters/out/postgres/driverrepo"
	"coordinator/internal/adapters/out/postgres/notificationrepo"
	"coordinator/internal/adapters/out/postgres/orderrepo"
	"coordinator/internal/adapters/out/postgres/paymentrepo"

	"gorm.io/gorm"
)

// MigrateDB brings the schema up to date for every persisted aggregate.
func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&paymentrepo.IntentDTO{},
		&deliveryrepo.DeliveryDTO{},
		&driverrepo.DriverDTO{},
		&notificationrepo.NotificationDTO{},
		&compensationrepo.CompensationDTO{},
	)
}
