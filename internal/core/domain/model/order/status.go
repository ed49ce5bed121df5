package order

import (
	"fmt"

	"coordinator/internal/pkg/errs"
)

// Status represents the lifecycle state of an order. The lifecycle is a
// multi-party state machine: the restaurant drives placed through
// ready_for_pickup, the driver drives out_for_delivery through delivered,
// and payment settlement gates the confirmed transition.
//
// Legal transitions:
//
//	placed ──────────> confirmed ──> preparing ──> ready_for_pickup
//	                                                      │
//	                                                      v
//	delivered <── picked_up <────────── out_for_delivery ─┘
//	     ^                                   │
//	     └───────────────────────────────────┘
//
// Cancellation is reachable from every non-terminal state; past
// out_for_delivery it additionally requires a compensation token (enforced
// by Order.Apply, not by the graph).
type Status int

const (
	// Unknown catches uninitialized Status values.
	Unknown Status = iota

	Placed
	Confirmed
	Preparing
	ReadyForPickup
	OutForDelivery
	PickedUp
	Delivered
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:        "unknown",
		Placed:         "placed",
		Confirmed:      "confirmed",
		Preparing:      "preparing",
		ReadyForPickup: "ready_for_pickup",
		OutForDelivery: "out_for_delivery",
		PickedUp:       "picked_up",
		Delivered:      "delivered",
		Cancelled:      "cancelled",
	}
}

// legalEdges is the transition graph. An absent source means terminal.
func legalEdges() map[Status][]Status {
	return map[Status][]Status{
		Placed:         {Confirmed, Cancelled},
		Confirmed:      {Preparing, Cancelled},
		Preparing:      {ReadyForPickup, Cancelled},
		ReadyForPickup: {OutForDelivery, Cancelled},
		OutForDelivery: {PickedUp, Delivered, Cancelled},
		PickedUp:       {Delivered, Cancelled},
	}
}

// StatusFromString parses the wire form of a status.
func StatusFromString(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status",
		fmt.Errorf("%q is not a valid order status", s))
}

// Validate checks that the Status is one of the defined lifecycle states.
func (s Status) Validate() error {
	if s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid status", int(s)))
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid status", int(s)))
	}
	return nil
}

// String returns the wire name of the status.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// CanTransitionTo reports whether the edge s -> next exists in the graph.
func (s Status) CanTransitionTo(next Status) bool {
	for _, target := range legalEdges()[s] {
		if target == next {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the payment side of an order independently of its
// lifecycle status. The two are constrained: an order cannot reach delivered
// unless payment is captured.
type PaymentStatus int

const (
	PaymentUnknown PaymentStatus = iota
	PaymentPending
	PaymentAuthorized
	PaymentCaptured
	PaymentFailed
	PaymentRefunded
)

func getPaymentStatusStrings() map[PaymentStatus]string {
	return map[PaymentStatus]string{
		PaymentUnknown:    "unknown",
		PaymentPending:    "pending",
		PaymentAuthorized: "authorized",
		PaymentCaptured:   "captured",
		PaymentFailed:     "failed",
		PaymentRefunded:   "refunded",
	}
}

func paymentLegalEdges() map[PaymentStatus][]PaymentStatus {
	return map[PaymentStatus][]PaymentStatus{
		PaymentPending:    {PaymentAuthorized, PaymentCaptured, PaymentFailed},
		PaymentAuthorized: {PaymentCaptured, PaymentFailed},
		PaymentCaptured:   {PaymentRefunded},
	}
}

// PaymentStatusFromString parses the wire form of a payment status.
func PaymentStatusFromString(s string) (PaymentStatus, error) {
	for status, str := range getPaymentStatusStrings() {
		if str == s && status != PaymentUnknown {
			return status, nil
		}
	}
	return PaymentUnknown, errs.NewValueIsInvalidErrorWithCause("payment_status",
		fmt.Errorf("%q is not a valid payment status", s))
}

// Validate checks that the PaymentStatus is defined.
func (s PaymentStatus) Validate() error {
	if s == PaymentUnknown {
		return errs.NewValueIsInvalidErrorWithCause("payment_status",
			fmt.Errorf("%d is not a valid payment status", int(s)))
	}
	if _, ok := getPaymentStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("payment_status",
			fmt.Errorf("%d is not a valid payment status", int(s)))
	}
	return nil
}

// String returns the wire name of the payment status.
func (s PaymentStatus) String() string {
	if str, ok := getPaymentStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// CanTransitionTo reports whether the payment edge s -> next exists.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, target := range paymentLegalEdges()[s] {
		if target == next {
			return true
		}
	}
	return false
}
