package events

import "time"

// Payload structs carry the minimal fields a consumer needs. Amounts travel
// as integer minor units plus a currency code.

// OrderCreatedData announces a newly placed order.
type OrderCreatedData struct {
	OrderID      string `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	CustomerID   string `json:"customer_id"`
	RestaurantID string `json:"restaurant_id"`
	TotalAmount  int64  `json:"total_amount"`
	Currency     string `json:"currency"`
}

// OrderStatusChangedData reports a committed lifecycle transition.
type OrderStatusChangedData struct {
	OrderID        string `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	CustomerID     string `json:"customer_id"`
	RestaurantID   string `json:"restaurant_id"`
	DriverID       string `json:"driver_id,omitempty"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status"`
	Reason         string `json:"reason,omitempty"`
}

// PaymentIntentCreatedData announces an intent awaiting provider settlement.
type PaymentIntentCreatedData struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// PaymentSettledData reports a captured payment; it unblocks the transition
// to confirmed.
type PaymentSettledData struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// PaymentFailedData reports a definitively failed payment.
type PaymentFailedData struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Reason          string `json:"reason"`
}

// RefundRequestedData asks the payment coordinator to refund a captured or
// authorized amount as part of a compensation.
type RefundRequestedData struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Reason          string `json:"reason"`
}

// DriverAssignedData reports an accepted offer. The order stays in
// ready_for_pickup until the driver confirms pickup.
type DriverAssignedData struct {
	OrderID  string `json:"order_id"`
	DriverID string `json:"driver_id"`
}

// DriverAssignmentFailedData reports an exhausted assignment budget.
type DriverAssignmentFailedData struct {
	OrderID string `json:"order_id"`
	Rounds  int    `json:"rounds"`
}

// DriverLocationUpdatedData appends a point to the active delivery's
// location history.
type DriverLocationUpdatedData struct {
	OrderID  string    `json:"order_id"`
	DriverID string    `json:"driver_id"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	At       time.Time `json:"at"`
}

// PickupConfirmedData reports the driver picked the order up at the
// restaurant, advancing it to out_for_delivery.
type PickupConfirmedData struct {
	OrderID  string `json:"order_id"`
	DriverID string `json:"driver_id"`
}

// DeliveryCompletedData reports a finished delivery.
type DeliveryCompletedData struct {
	OrderID  string `json:"order_id"`
	DriverID string `json:"driver_id"`
}

// CompensationIssuedData records a forced corrective transition. Token
// authorizes cancellation of orders already out for delivery.
type CompensationIssuedData struct {
	OrderID string `json:"order_id"`
	Kind    string `json:"kind"`
	Token   string `json:"token"`
	Reason  string `json:"reason"`
}
