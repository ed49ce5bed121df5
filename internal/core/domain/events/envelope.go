// Package events defines the immutable domain-event envelope, the event
// vocabulary of the order lifecycle, and the bus contract adapters implement.
// Envelopes are never mutated after publish; consumers de-duplicate on the
// event id and rely on partition keying by order id for per-order ordering.
package events

import (
	"encoding/json"
	"time"

	"coordinator/internal/pkg/errs"

	"github.com/google/uuid"
)

// Topic names one of the bus streams. The bus guarantees at-least-once
// delivery and ordering only within a partition key, never across topics.
type Topic string

const (
	TopicOrderEvents        Topic = "order-events"
	TopicPaymentEvents      Topic = "payment-events"
	TopicDriverEvents       Topic = "driver-events"
	TopicNotificationEvents Topic = "notification-events"
	TopicRestaurantEvents   Topic = "restaurant-events"
	TopicAnalyticsEvents    Topic = "analytics-events"
)

// Producing service names carried in the envelope's service field.
const (
	ServiceOrder        = "order-service"
	ServicePayment      = "payment-service"
	ServiceDriver       = "driver-service"
	ServiceNotification = "notification-service"
	ServiceSupervisor   = "supervisor"
)

// Type identifies the semantic kind of a domain event.
type Type string

const (
	TypeOrderCreated           Type = "order_created"
	TypeOrderStatusChanged     Type = "order_status_changed"
	TypeOrderCancelled         Type = "order_cancelled"
	TypePaymentIntentCreated   Type = "payment_intent_created"
	TypePaymentSettled         Type = "payment_settled"
	TypePaymentFailed          Type = "payment_failed"
	TypeRefundRequested        Type = "refund_requested"
	TypeDriverAssigned         Type = "driver_assigned"
	TypeDriverAssignmentFailed Type = "driver_assignment_failed"
	TypeDriverLocationUpdated  Type = "driver_location_updated"
	TypePickupConfirmed        Type = "pickup_confirmed"
	TypeDeliveryCompleted      Type = "delivery_completed"
	TypeCompensationIssued     Type = "compensation_issued"
)

// Envelope is the wire-stable wrapper around every domain event.
type Envelope struct {
	EventID   string          `json:"event_id"`
	EventTime time.Time       `json:"event_time"`
	EventType Type            `json:"event_type"`
	Service   string          `json:"service"`
	Data      json.RawMessage `json:"data"`
}

// NewEnvelope wraps data in a fresh envelope with a generated event id and
// the current UTC time.
func NewEnvelope(eventType Type, service string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:   uuid.NewString(),
		EventTime: time.Now().UTC(),
		EventType: eventType,
		Service:   service,
		Data:      raw,
	}, nil
}

// Validate rejects envelopes missing identity or type, e.g. after decoding a
// malformed message off the wire.
func (e Envelope) Validate() error {
	if e.EventID == "" {
		return errs.NewValueIsRequiredError("event_id")
	}
	if _, err := uuid.Parse(e.EventID); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("event_id", err)
	}
	if e.EventType == "" {
		return errs.NewValueIsRequiredError("event_type")
	}
	if e.Service == "" {
		return errs.NewValueIsRequiredError("service")
	}
	return nil
}

// DecodeData unmarshals the event payload into v.
func (e Envelope) DecodeData(v any) error {
	return json.Unmarshal(e.Data, v)
}
