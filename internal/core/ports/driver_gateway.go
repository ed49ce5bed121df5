package ports

import (
	"context"
	"time"

	"coordinator/internal/core/domain/model/kernel"
)

// OfferOutcome is the driver's answer to an assignment offer.
type OfferOutcome int

const (
	OfferOutcomeUnknown OfferOutcome = iota
	OfferAccepted
	OfferDeclined
	OfferTimedOut
)

// DriverGateway is the outbound contract for offering orders to drivers.
type DriverGateway interface {
	// Offer proposes an order to a driver and waits up to timeout for the
	// answer. No answer within the timeout is OfferTimedOut, not an error;
	// errors mean the offer could not be delivered at all. The attempt id
	// identifies this offer so an answer arriving after the timeout is
	// dropped rather than applied to a later round.
	Offer(ctx context.Context, driverID kernel.UUID, orderID kernel.UUID, attemptID string, timeout time.Duration) (OfferOutcome, error)
}
