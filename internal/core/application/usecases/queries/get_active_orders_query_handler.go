package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
)

// GetActiveOrdersQueryHandler reads in-flight orders from the database.
type GetActiveOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveOrdersQueryHandler creates a handler over a GORM connection.
func NewGetActiveOrdersQueryHandler(db *gorm.DB) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{db: db}
}

// Handle returns all orders that are neither delivered nor cancelled,
// oldest first.
func (h GetActiveOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetActiveOrdersQuery,
) ([]GetActiveOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			order_number,
			status,
			payment_status,
			driver_id,
			total,
			currency,
			updated_at
		FROM orders
		WHERE status NOT IN (?, ?)
		ORDER BY created_at
	`, order.Delivered.String(), order.Cancelled.String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]GetActiveOrdersQueryResponse, 0)
	for rows.Next() {
		var (
			resp      GetActiveOrdersQueryResponse
			id        uuid.UUID
			driverID  *uuid.UUID
			updatedAt time.Time
		)

		err = rows.Scan(&id, &resp.OrderNumber, &resp.Status, &resp.PaymentStatus,
			&driverID, &resp.Total, &resp.Currency, &updatedAt)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.ID = orderID

		if driverID != nil {
			dID, dErr := kernel.UUIDFromBytes((*driverID)[:])
			if dErr != nil {
				return nil, dErr
			}
			resp.DriverID = &dID
		}

		resp.UpdatedAt = updatedAt
		orders = append(orders, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
