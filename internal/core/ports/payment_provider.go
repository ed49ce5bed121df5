package ports

import (
	"context"
	"errors"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/payment"
)

// ErrExternalServiceUnavailable is returned by outbound adapters once their
// bounded retry budget is spent. Callers escalate instead of retrying
// forever.
var ErrExternalServiceUnavailable = errors.New("external service unavailable")

// ProviderIntent is the provider's view of a payment intent.
type ProviderIntent struct {
	ProviderRef string
	Status      payment.IntentStatus
}

// PaymentProvider is the outbound contract to the payment processor.
// Implementations retry transient failures with bounded backoff and
// surface permanent failures as errors.
type PaymentProvider interface {
	// CreateIntent opens an intent at the provider. The order id is passed
	// as the provider-side idempotency key, so repeating the call for the
	// same order returns the same provider intent.
	CreateIntent(ctx context.Context, orderID kernel.UUID, amount kernel.Money) (ProviderIntent, error)

	// GetIntent fetches the provider's current view of an intent. Used by
	// reconciliation to force local state to match the provider of record.
	GetIntent(ctx context.Context, providerRef string) (ProviderIntent, error)

	// RequestRefund asks the provider to refund a settled intent.
	RequestRefund(ctx context.Context, providerRef string, amount kernel.Money) error
}
