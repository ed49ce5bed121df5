// Package payment models payment intents. An intent is created at most once
// per order, and provider callbacks are applied at most once per callback id
// so that redelivered webhooks cannot move money twice.
package payment

import (
	"errors"
	"fmt"
	"time"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/errs"
)

// IntentStatus is the lifecycle state of a payment intent at the provider.
type IntentStatus int

const (
	IntentStatusUnknown IntentStatus = iota
	IntentStatusCreated
	IntentStatusRequiresAction
	IntentStatusSucceeded
	IntentStatusFailed
)

var intentStatusStrings = map[IntentStatus]string{
	IntentStatusCreated:        "created",
	IntentStatusRequiresAction: "requires_action",
	IntentStatusSucceeded:      "succeeded",
	IntentStatusFailed:         "failed",
}

// intentLegalEdges lists which statuses a provider callback may move an
// intent to. Terminal statuses have no edges.
var intentLegalEdges = map[IntentStatus][]IntentStatus{
	IntentStatusCreated:        {IntentStatusRequiresAction, IntentStatusSucceeded, IntentStatusFailed},
	IntentStatusRequiresAction: {IntentStatusSucceeded, IntentStatusFailed},
}

// IntentStatusFromString parses the wire name of an intent status.
func IntentStatusFromString(name string) (IntentStatus, error) {
	for status, s := range intentStatusStrings {
		if s == name {
			return status, nil
		}
	}
	return IntentStatusUnknown, errs.NewValueIsInvalidErrorWithCause("status",
		fmt.Errorf("unknown intent status %q", name))
}

// String returns the wire name of the status.
func (s IntentStatus) String() string {
	if name, ok := intentStatusStrings[s]; ok {
		return name
	}
	return "unknown"
}

// Validate checks that the status is a known one.
func (s IntentStatus) Validate() error {
	if _, ok := intentStatusStrings[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("unknown intent status %d", int(s)))
	}
	return nil
}

// IsTerminal reports whether the status accepts no further callbacks.
func (s IntentStatus) IsTerminal() bool {
	return len(intentLegalEdges[s]) == 0 && s != IntentStatusUnknown
}

func (s IntentStatus) canTransitionTo(target IntentStatus) bool {
	for _, next := range intentLegalEdges[s] {
		if next == target {
			return true
		}
	}
	return false
}

var (
	// ErrIntentIsNotConstructed is returned when an Intent bypassed its
	// constructors.
	ErrIntentIsNotConstructed = errors.New("Intent must be created via NewIntent or RestoreIntent")

	// ErrInvalidIntentTransition is returned for a callback that names a
	// status unreachable from the current one.
	ErrInvalidIntentTransition = errors.New("illegal intent status transition")

	// ErrIntentIsTerminal is returned for a non-duplicate callback arriving
	// after the intent settled.
	ErrIntentIsTerminal = errors.New("intent is already settled")
)

// CallbackResult reports what applying a provider callback did.
type CallbackResult struct {
	Previous  IntentStatus
	Current   IntentStatus
	Duplicate bool
}

// Intent is a payment intent held against an order. The order id doubles as
// the idempotency key: a second NewIntent for the same order must be refused
// by the repository layer via the unique constraint on order id.
type Intent struct {
	id          kernel.UUID
	orderID     kernel.UUID
	amount      kernel.Money
	status      IntentStatus
	providerRef string

	appliedCallbacks map[string]struct{}

	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

// NewIntent opens a payment intent for an order.
func NewIntent(id kernel.UUID, orderID kernel.UUID, amount kernel.Money, now time.Time) (*Intent, error) {
	i := &Intent{
		status:           IntentStatusCreated,
		appliedCallbacks: make(map[string]struct{}),
		createdAt:        now,
		updatedAt:        now,
		isConstructed:    true,
	}

	if err := errors.Join(
		i.setID(id),
		i.setOrderID(orderID),
		i.setAmount(amount),
	); err != nil {
		return nil, err
	}

	return i, nil
}

// RestoreIntent reconstructs an intent from persistence.
func RestoreIntent(
	id kernel.UUID,
	orderID kernel.UUID,
	amount kernel.Money,
	status IntentStatus,
	providerRef string,
	appliedCallbackIDs []string,
	createdAt time.Time,
	updatedAt time.Time,
) (*Intent, error) {
	i := &Intent{
		providerRef:      providerRef,
		appliedCallbacks: make(map[string]struct{}, len(appliedCallbackIDs)),
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		isConstructed:    true,
	}

	if err := errors.Join(
		i.setID(id),
		i.setOrderID(orderID),
		i.setAmount(amount),
		status.Validate(),
	); err != nil {
		return nil, err
	}
	i.status = status

	for _, callbackID := range appliedCallbackIDs {
		i.appliedCallbacks[callbackID] = struct{}{}
	}

	return i, nil
}

// Validate ensures the intent was built through a constructor.
func (i *Intent) Validate() error {
	if i == nil || !i.isConstructed {
		return ErrIntentIsNotConstructed
	}
	return nil
}

// ID returns the intent identifier.
func (i *Intent) ID() kernel.UUID { return i.id }

// OrderID returns the order this intent pays for.
func (i *Intent) OrderID() kernel.UUID { return i.orderID }

// Amount returns the amount to be collected.
func (i *Intent) Amount() kernel.Money { return i.amount }

// Status returns the current lifecycle status.
func (i *Intent) Status() IntentStatus { return i.status }

// ProviderRef returns the provider-side reference, empty until the first
// callback carries one.
func (i *Intent) ProviderRef() string { return i.providerRef }

// CreatedAt returns when the intent was opened.
func (i *Intent) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns when the intent last changed.
func (i *Intent) UpdatedAt() time.Time { return i.updatedAt }

// AppliedCallbackIDs returns the ids of callbacks already applied, for
// persistence.
func (i *Intent) AppliedCallbackIDs() []string {
	ids := make([]string, 0, len(i.appliedCallbacks))
	for id := range i.appliedCallbacks {
		ids = append(ids, id)
	}
	return ids
}

// IsSettled reports whether the intent reached a terminal status.
func (i *Intent) IsSettled() bool {
	return i.status.IsTerminal()
}

// AttachProviderRef records the provider-side reference handed back at
// creation time, before any callback arrived.
func (i *Intent) AttachProviderRef(providerRef string) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if providerRef == "" {
		return errs.NewValueIsRequiredError("providerRef")
	}
	i.providerRef = providerRef
	return nil
}

// ApplyCallback applies a provider callback. A callback id seen before is a
// no-op reported as Duplicate. A fresh callback must name a status reachable
// from the current one; anything arriving after settlement is rejected with
// ErrIntentIsTerminal.
func (i *Intent) ApplyCallback(callbackID string, target IntentStatus, providerRef string, now time.Time) (CallbackResult, error) {
	if err := i.Validate(); err != nil {
		return CallbackResult{}, err
	}
	if callbackID == "" {
		return CallbackResult{}, errs.NewValueIsRequiredError("callbackID")
	}
	if err := target.Validate(); err != nil {
		return CallbackResult{}, err
	}

	if _, seen := i.appliedCallbacks[callbackID]; seen {
		return CallbackResult{Previous: i.status, Current: i.status, Duplicate: true}, nil
	}

	if i.status.IsTerminal() {
		return CallbackResult{}, fmt.Errorf("%w: status is %s", ErrIntentIsTerminal, i.status)
	}
	if !i.status.canTransitionTo(target) {
		return CallbackResult{}, fmt.Errorf("%w: %s -> %s", ErrInvalidIntentTransition, i.status, target)
	}

	previous := i.status
	i.status = target
	if providerRef != "" {
		i.providerRef = providerRef
	}
	i.appliedCallbacks[callbackID] = struct{}{}
	i.updatedAt = now

	return CallbackResult{Previous: previous, Current: i.status}, nil
}

func (i *Intent) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	i.id = id
	return nil
}

func (i *Intent) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	i.orderID = orderID
	return nil
}

func (i *Intent) setAmount(amount kernel.Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if amount.IsZero() {
		return errs.NewValueIsRequiredError("amount")
	}
	i.amount = amount
	return nil
}
