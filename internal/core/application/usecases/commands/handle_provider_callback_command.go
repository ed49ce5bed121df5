package commands

import (
	"errors"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/payment"
	"coordinator/internal/pkg/errs"
	"coordinator/internal/pkg/guard"
)

var ErrHandleProviderCallbackCommandIsNotConstructed = errors.New(
	"HandleProviderCallbackCommand must be created via NewHandleProviderCallbackCommand constructor",
)

// HandleProviderCallbackCommand carries one webhook from the payment
// provider. The callback id is the idempotency key: the provider retries
// webhooks until acknowledged, so the same callback arrives more than once.
type HandleProviderCallbackCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	callbackID  string
	status      payment.IntentStatus
	providerRef string
	reason      string

	guard guard.ConstructorGuard
}

// NewHandleProviderCallbackCommand creates a command for a provider webhook.
func NewHandleProviderCallbackCommand(
	orderID kernel.UUID,
	callbackID string,
	status payment.IntentStatus,
	providerRef string,
	reason string,
) (HandleProviderCallbackCommand, error) {
	cmd := HandleProviderCallbackCommand{
		providerRef: providerRef,
		reason:      reason,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCallbackID(callbackID),
		cmd.setStatus(status),
	); err != nil {
		return HandleProviderCallbackCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c HandleProviderCallbackCommand) Validate() error {
	return c.guard.Validate(ErrHandleProviderCallbackCommandIsNotConstructed)
}

// OrderID returns the order whose intent the callback settles.
func (c HandleProviderCallbackCommand) OrderID() kernel.UUID { return c.orderID }

// CallbackID returns the provider's idempotency key for this webhook.
func (c HandleProviderCallbackCommand) CallbackID() string { return c.callbackID }

// Status returns the intent status the provider reports.
func (c HandleProviderCallbackCommand) Status() payment.IntentStatus { return c.status }

// ProviderRef returns the provider-side intent reference.
func (c HandleProviderCallbackCommand) ProviderRef() string { return c.providerRef }

// Reason returns the provider's failure reason, empty on success.
func (c HandleProviderCallbackCommand) Reason() string { return c.reason }

func (c *HandleProviderCallbackCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *HandleProviderCallbackCommand) setCallbackID(callbackID string) error {
	if callbackID == "" {
		return errs.NewValueIsRequiredError("callbackID")
	}
	c.callbackID = callbackID
	return nil
}

func (c *HandleProviderCallbackCommand) setStatus(status payment.IntentStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	c.status = status
	return nil
}
