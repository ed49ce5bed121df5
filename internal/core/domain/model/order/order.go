package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order bypassed its
	// constructors.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")

	// ErrInvalidTransition marks an edge that does not exist in the status
	// graph. It signals a programming or ordering bug and is surfaced, not
	// retried.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrStaleEvent marks an event whose expected prior status no longer
	// matches the order. It is an expected outcome of out-of-order delivery;
	// the caller must re-fetch the order and retry, not assume failure.
	ErrStaleEvent = errors.New("stale event")

	// ErrCompensationTokenRequired guards cancellation of orders that are
	// already out for delivery: only the supervisor's compensation token
	// authorizes it, so an order a driver has physically delivered is never
	// cancelled by a late user request.
	ErrCompensationTokenRequired = errors.New("cancellation past out_for_delivery requires a compensation token")

	// ErrPaymentNotCaptured rejects delivery completion while the payment is
	// still pending, authorized or failed.
	ErrPaymentNotCaptured = errors.New("order cannot be delivered before payment is captured")

	// ErrInvalidPaymentTransition marks an illegal payment status edge.
	ErrInvalidPaymentTransition = errors.New("invalid payment status transition")
)

// Order is the aggregate root for the order lifecycle. Its status may only
// change through Apply, which enforces the transition graph, idempotence on
// event ids, and the payment and compensation guards. All event handlers for
// one order are serialized by the caller, so the aggregate itself carries no
// locking.
type Order struct {
	id           kernel.UUID
	orderNumber  string
	customerID   kernel.UUID
	restaurantID kernel.UUID
	driverID     *kernel.UUID
	items        []Item
	charges      Charges

	status        Status
	paymentStatus PaymentStatus
	cancelReason  string

	createdAt           time.Time
	updatedAt           time.Time
	estimatedDeliveryAt *time.Time

	// appliedEvents makes Apply a no-op for event ids already seen, which
	// is what turns at-least-once delivery into exactly-once effects.
	appliedEvents map[string]struct{}

	isConstructed bool
}

// NewOrderNumber produces the human-facing order number, e.g. "ORD-3FA85F64".
func NewOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// NewOrder creates a freshly placed order. The order starts in Placed with a
// pending payment and no driver.
func NewOrder(
	id kernel.UUID,
	orderNumber string,
	customerID kernel.UUID,
	restaurantID kernel.UUID,
	items []Item,
	charges Charges,
	now time.Time,
) (*Order, error) {
	o := &Order{
		status:        Placed,
		paymentStatus: PaymentPending,
		createdAt:     now.UTC(),
		updatedAt:     now.UTC(),
		appliedEvents: make(map[string]struct{}),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setOrderNumber(orderNumber),
		o.setCustomerID(customerID),
		o.setRestaurantID(restaurantID),
		o.setItems(items),
		o.setCharges(charges),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder reconstructs an order from persistence, including its status,
// payment state, assigned driver and the set of already-applied event ids.
func RestoreOrder(
	id kernel.UUID,
	orderNumber string,
	customerID kernel.UUID,
	restaurantID kernel.UUID,
	driverID *kernel.UUID,
	items []Item,
	charges Charges,
	status Status,
	paymentStatus PaymentStatus,
	cancelReason string,
	createdAt time.Time,
	updatedAt time.Time,
	estimatedDeliveryAt *time.Time,
	appliedEventIDs []string,
) (*Order, error) {
	o := &Order{
		cancelReason:        cancelReason,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
		estimatedDeliveryAt: estimatedDeliveryAt,
		appliedEvents:       make(map[string]struct{}, len(appliedEventIDs)),
		isConstructed:       true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setOrderNumber(orderNumber),
		o.setCustomerID(customerID),
		o.setRestaurantID(restaurantID),
		o.setItems(items),
		o.setCharges(charges),
		status.Validate(),
		paymentStatus.Validate(),
	); err != nil {
		return nil, err
	}

	if driverID != nil {
		if err := driverID.Validate(); err != nil {
			return nil, err
		}
		o.driverID = driverID
	}

	o.status = status
	o.paymentStatus = paymentStatus
	for _, eventID := range appliedEventIDs {
		o.appliedEvents[eventID] = struct{}{}
	}

	return o, nil
}

// Validate ensures the order was built through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// ID returns the order identifier.
func (o *Order) ID() kernel.UUID { return o.id }

// OrderNumber returns the human-facing order number.
func (o *Order) OrderNumber() string { return o.orderNumber }

// CustomerID returns the ordering customer.
func (o *Order) CustomerID() kernel.UUID { return o.customerID }

// RestaurantID returns the preparing restaurant.
func (o *Order) RestaurantID() kernel.UUID { return o.restaurantID }

// DriverID returns the assigned driver, or nil before assignment.
func (o *Order) DriverID() *kernel.UUID { return o.driverID }

// Items returns a copy of the ordered lines.
func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

// Charges returns the monetary breakdown.
func (o *Order) Charges() Charges { return o.charges }

// Status returns the current lifecycle status.
func (o *Order) Status() Status { return o.status }

// PaymentStatus returns the current payment status.
func (o *Order) PaymentStatus() PaymentStatus { return o.paymentStatus }

// CancelReason returns the reason code recorded on cancellation.
func (o *Order) CancelReason() string { return o.cancelReason }

// CreatedAt returns the placement time.
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns the time of the last committed mutation.
func (o *Order) UpdatedAt() time.Time { return o.updatedAt }

// EstimatedDeliveryAt returns the ETA, or nil when not yet estimated.
func (o *Order) EstimatedDeliveryAt() *time.Time { return o.estimatedDeliveryAt }

// AppliedEventIDs returns the ids of all transition events applied so far,
// for persistence.
func (o *Order) AppliedEventIDs() []string {
	ids := make([]string, 0, len(o.appliedEvents))
	for id := range o.appliedEvents {
		ids = append(ids, id)
	}
	return ids
}

// SetEstimatedDelivery records the delivery ETA computed from restaurant
// preparation time plus travel time.
func (o *Order) SetEstimatedDelivery(at time.Time, now time.Time) error {
	if err := o.Validate(); err != nil {
		return err
	}
	utc := at.UTC()
	o.estimatedDeliveryAt = &utc
	o.updatedAt = now.UTC()
	return nil
}

// AssignDriver records the accepted driver. Assignment is only meaningful
// while the order waits at ready_for_pickup; it does not advance the status,
// which changes only on pickup confirmation.
func (o *Order) AssignDriver(driverID kernel.UUID, now time.Time) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := driverID.Validate(); err != nil {
		return err
	}
	if o.status != ReadyForPickup {
		return fmt.Errorf("%w: driver assignment in status %s", ErrInvalidTransition, o.status)
	}
	o.driverID = &driverID
	o.updatedAt = now.UTC()
	return nil
}

// TransitionResult reports what Apply did.
type TransitionResult struct {
	// Previous is the status before the event (equal to Current for a
	// duplicate).
	Previous Status
	// Current is the status after the event.
	Current Status
	// Duplicate is true when the event id was already applied and the call
	// was a no-op.
	Duplicate bool
}

// Apply executes one lifecycle transition.
//
// Re-applying an already-applied event id is a successful no-op. An event
// whose expected prior status does not match the order's current status
// fails with ErrStaleEvent; the caller re-fetches and retries. An edge
// absent from the graph fails with ErrInvalidTransition. The payment gate
// and the compensation token guard are checked before any mutation, so a
// failed Apply never leaves a partially transitioned order.
func (o *Order) Apply(ev TransitionEvent, now time.Time) (TransitionResult, error) {
	if err := o.Validate(); err != nil {
		return TransitionResult{}, err
	}
	if err := ev.Validate(); err != nil {
		return TransitionResult{}, err
	}

	if _, seen := o.appliedEvents[ev.EventID().String()]; seen {
		return TransitionResult{Previous: o.status, Current: o.status, Duplicate: true}, nil
	}

	if o.status != ev.From() {
		return TransitionResult{}, fmt.Errorf("%w: event expects %s, order is %s",
			ErrStaleEvent, ev.From(), o.status)
	}

	if !o.status.CanTransitionTo(ev.To()) {
		return TransitionResult{}, fmt.Errorf("%w: %s -> %s",
			ErrInvalidTransition, o.status, ev.To())
	}

	if ev.To() == Delivered && o.paymentStatus != PaymentCaptured {
		return TransitionResult{}, fmt.Errorf("%w: payment is %s",
			ErrPaymentNotCaptured, o.paymentStatus)
	}

	if ev.To() == Cancelled &&
		(o.status == OutForDelivery || o.status == PickedUp) &&
		ev.CompensationToken() == "" {
		return TransitionResult{}, ErrCompensationTokenRequired
	}

	previous := o.status
	o.status = ev.To()
	if ev.To() == Cancelled {
		o.cancelReason = ev.Reason()
	}
	o.appliedEvents[ev.EventID().String()] = struct{}{}
	o.updatedAt = now.UTC()

	return TransitionResult{Previous: previous, Current: o.status}, nil
}

// MarkPaymentCaptured moves the payment to captured.
func (o *Order) MarkPaymentCaptured(now time.Time) error {
	return o.transitionPayment(PaymentCaptured, now)
}

// MarkPaymentAuthorized moves the payment to authorized.
func (o *Order) MarkPaymentAuthorized(now time.Time) error {
	return o.transitionPayment(PaymentAuthorized, now)
}

// MarkPaymentFailed moves the payment to failed.
func (o *Order) MarkPaymentFailed(now time.Time) error {
	return o.transitionPayment(PaymentFailed, now)
}

// MarkPaymentRefunded moves a captured payment to refunded.
func (o *Order) MarkPaymentRefunded(now time.Time) error {
	return o.transitionPayment(PaymentRefunded, now)
}

func (o *Order) transitionPayment(next PaymentStatus, now time.Time) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.paymentStatus == next {
		// Duplicate settlement callbacks land here; accepting them keeps
		// provider retries harmless.
		return nil
	}
	if !o.paymentStatus.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPaymentTransition, o.paymentStatus, next)
	}
	o.paymentStatus = next
	o.updatedAt = now.UTC()
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setOrderNumber(orderNumber string) error {
	if orderNumber == "" {
		return errs.NewValueIsRequiredError("order number")
	}
	o.orderNumber = orderNumber
	return nil
}

func (o *Order) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return err
	}
	o.customerID = customerID
	return nil
}

func (o *Order) setRestaurantID(restaurantID kernel.UUID) error {
	if err := restaurantID.Validate(); err != nil {
		return err
	}
	o.restaurantID = restaurantID
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("order items")
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	o.items = make([]Item, len(items))
	copy(o.items, items)
	return nil
}

func (o *Order) setCharges(charges Charges) error {
	if err := charges.Validate(); err != nil {
		return err
	}
	o.charges = charges
	return nil
}
