// Package orderrepo maps the order aggregate to its relational shape.
// Items and applied event ids travel as JSON columns: they are only ever
// read and written through the aggregate, never queried on their own.
package orderrepo

import (
	"time"

	"github.com/google/uuid"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
)

// OrderDTO is the database row for an order aggregate.
type OrderDTO struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderNumber         string     `gorm:"uniqueIndex"`
	CustomerID          uuid.UUID  `gorm:"type:uuid;index"`
	RestaurantID        uuid.UUID  `gorm:"type:uuid;index"`
	DriverID            *uuid.UUID `gorm:"type:uuid;index"`
	Status              string     `gorm:"index"`
	PaymentStatus       string
	CancelReason        string
	Subtotal            int64
	Tax                 int64
	DeliveryFee         int64
	Tip                 int64
	Discount            int64
	Total               int64
	Currency            string
	Items               []ItemDTO `gorm:"serializer:json"`
	AppliedEventIDs     []string  `gorm:"serializer:json"`
	CreatedAt           time.Time
	UpdatedAt           time.Time `gorm:"index"`
	EstimatedDeliveryAt *time.Time
}

// TableName overrides GORM's default naming to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// ItemDTO is one order line inside the items JSON column.
type ItemDTO struct {
	ItemID    uuid.UUID `json:"item_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	Currency  string    `json:"currency"`
}

func fromDomain(aggregate *order.Order) OrderDTO {
	var driverID *uuid.UUID
	if id := aggregate.DriverID(); id != nil {
		raw := id.Bytes()
		driverID = &raw
	}

	items := make([]ItemDTO, 0, len(aggregate.Items()))
	for _, item := range aggregate.Items() {
		items = append(items, ItemDTO{
			ItemID:    item.ItemID().Bytes(),
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice().Amount(),
			Currency:  item.UnitPrice().Currency(),
		})
	}

	charges := aggregate.Charges()
	return OrderDTO{
		ID:                  aggregate.ID().Bytes(),
		OrderNumber:         aggregate.OrderNumber(),
		CustomerID:          aggregate.CustomerID().Bytes(),
		RestaurantID:        aggregate.RestaurantID().Bytes(),
		DriverID:            driverID,
		Status:              aggregate.Status().String(),
		PaymentStatus:       aggregate.PaymentStatus().String(),
		CancelReason:        aggregate.CancelReason(),
		Subtotal:            charges.Subtotal().Amount(),
		Tax:                 charges.Tax().Amount(),
		DeliveryFee:         charges.DeliveryFee().Amount(),
		Tip:                 charges.Tip().Amount(),
		Discount:            charges.Discount().Amount(),
		Total:               charges.Total().Amount(),
		Currency:            charges.Total().Currency(),
		Items:               items,
		AppliedEventIDs:     aggregate.AppliedEventIDs(),
		CreatedAt:           aggregate.CreatedAt(),
		UpdatedAt:           aggregate.UpdatedAt(),
		EstimatedDeliveryAt: aggregate.EstimatedDeliveryAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}
	restaurantID, err := kernel.UUIDFromBytes(dto.RestaurantID[:])
	if err != nil {
		return nil, err
	}

	var driverID *kernel.UUID
	if dto.DriverID != nil {
		dID, driverErr := kernel.UUIDFromBytes((*dto.DriverID)[:])
		if driverErr != nil {
			return nil, driverErr
		}
		driverID = &dID
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		itemID, itemErr := kernel.UUIDFromBytes(itemDTO.ItemID[:])
		if itemErr != nil {
			return nil, itemErr
		}
		unitPrice, priceErr := kernel.NewMoney(itemDTO.UnitPrice, itemDTO.Currency)
		if priceErr != nil {
			return nil, priceErr
		}
		item, itemErr := order.NewItem(itemID, itemDTO.Name, itemDTO.Quantity, unitPrice)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	charges, err := restoreCharges(dto)
	if err != nil {
		return nil, err
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}
	paymentStatus, err := order.PaymentStatusFromString(dto.PaymentStatus)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(id, dto.OrderNumber, customerID, restaurantID, driverID,
		items, charges, status, paymentStatus, dto.CancelReason,
		dto.CreatedAt, dto.UpdatedAt, dto.EstimatedDeliveryAt, dto.AppliedEventIDs)
}

func restoreCharges(dto OrderDTO) (order.Charges, error) {
	amounts := []int64{dto.Subtotal, dto.Tax, dto.DeliveryFee, dto.Tip, dto.Discount}
	money := make([]kernel.Money, len(amounts))
	for i, amount := range amounts {
		m, err := kernel.NewMoney(amount, dto.Currency)
		if err != nil {
			return order.Charges{}, err
		}
		money[i] = m
	}
	return order.NewCharges(money[0], money[1], money[2], money[3], money[4])
}
