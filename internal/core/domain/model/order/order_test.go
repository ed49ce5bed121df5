package order_test

import (
	"testing"
	"time"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(cents int64) kernel.Money { return kernel.MustNewMoney(cents, "USD") }

func testCharges(t *testing.T) order.Charges {
	t.Helper()
	// subtotal 20.00, tax 1.60, delivery fee 3.00, tip 0, discount 0
	charges, err := order.NewCharges(usd(2000), usd(160), usd(300), usd(0), usd(0))
	require.NoError(t, err)
	return charges
}

func testItems(t *testing.T) []order.Item {
	t.Helper()
	item, err := order.NewItem(kernel.NewUUID(), "Margherita", 2, usd(1000))
	require.NoError(t, err)
	return []order.Item{item}
}

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(
		kernel.NewUUID(),
		order.NewOrderNumber(),
		kernel.NewUUID(),
		kernel.NewUUID(),
		testItems(t),
		testCharges(t),
		time.Now(),
	)
	require.NoError(t, err)
	return o
}

func apply(t *testing.T, o *order.Order, from, to order.Status) order.TransitionResult {
	t.Helper()
	ev, err := order.NewTransitionEvent(kernel.NewUUID(), from, to, "")
	require.NoError(t, err)
	res, err := o.Apply(ev, time.Now())
	require.NoError(t, err)
	return res
}

func TestNewOrder(t *testing.T) {
	t.Run("starts_placed_with_pending_payment", func(t *testing.T) {
		o := newTestOrder(t)

		assert.Equal(t, order.Placed, o.Status())
		assert.Equal(t, order.PaymentPending, o.PaymentStatus())
		assert.Nil(t, o.DriverID())
		assert.Equal(t, int64(2460), o.Charges().Total().Amount())
	})

	t.Run("requires_items", func(t *testing.T) {
		_, err := order.NewOrder(
			kernel.NewUUID(), order.NewOrderNumber(), kernel.NewUUID(), kernel.NewUUID(),
			nil, testCharges(t), time.Now(),
		)
		require.Error(t, err)
	})

	t.Run("zero_value_fails_validation", func(t *testing.T) {
		var o order.Order
		require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
	})
}

func TestNewOrderNumber(t *testing.T) {
	n := order.NewOrderNumber()
	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, n)
	assert.NotEqual(t, n, order.NewOrderNumber())
}

func TestOrder_Apply_HappyPath(t *testing.T) {
	o := newTestOrder(t)

	res := apply(t, o, order.Placed, order.Confirmed)
	assert.Equal(t, order.Placed, res.Previous)
	assert.Equal(t, order.Confirmed, res.Current)

	apply(t, o, order.Confirmed, order.Preparing)
	apply(t, o, order.Preparing, order.ReadyForPickup)

	require.NoError(t, o.AssignDriver(kernel.NewUUID(), time.Now()))

	apply(t, o, order.ReadyForPickup, order.OutForDelivery)
	apply(t, o, order.OutForDelivery, order.PickedUp)

	require.NoError(t, o.MarkPaymentCaptured(time.Now()))
	apply(t, o, order.PickedUp, order.Delivered)

	assert.Equal(t, order.Delivered, o.Status())
	assert.True(t, o.Status().IsTerminal())
}

func TestOrder_Apply_DuplicateEventIsNoOp(t *testing.T) {
	o := newTestOrder(t)

	eventID := kernel.NewUUID()
	ev, err := order.NewTransitionEvent(eventID, order.Placed, order.Confirmed, "")
	require.NoError(t, err)

	first, err := o.Apply(ev, time.Now())
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Equal(t, order.Confirmed, o.Status())

	// Same event id re-delivered: success, no state change, no error.
	second, err := o.Apply(ev, time.Now())
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, order.Confirmed, second.Current)
	assert.Equal(t, order.Confirmed, o.Status())
}

func TestOrder_Apply_StaleEvent(t *testing.T) {
	o := newTestOrder(t)
	apply(t, o, order.Placed, order.Confirmed)

	// An event produced against the old status arrives late.
	stale, err := order.NewTransitionEvent(kernel.NewUUID(), order.Placed, order.Cancelled, "late cancel")
	require.NoError(t, err)

	_, err = o.Apply(stale, time.Now())
	require.ErrorIs(t, err, order.ErrStaleEvent)
	assert.Equal(t, order.Confirmed, o.Status(), "stale event must not corrupt state")
}

func TestOrder_Apply_OutOfOrderDeliveryConverges(t *testing.T) {
	o := newTestOrder(t)
	apply(t, o, order.Placed, order.Confirmed)
	apply(t, o, order.Confirmed, order.Preparing)
	apply(t, o, order.Preparing, order.ReadyForPickup)
	apply(t, o, order.ReadyForPickup, order.OutForDelivery)
	require.NoError(t, o.MarkPaymentCaptured(time.Now()))

	pickedUp, err := order.NewTransitionEvent(kernel.NewUUID(), order.OutForDelivery, order.PickedUp, "")
	require.NoError(t, err)
	delivered, err := order.NewTransitionEvent(kernel.NewUUID(), order.PickedUp, order.Delivered, "")
	require.NoError(t, err)

	// delivered arrives before picked_up: rejected as stale.
	_, err = o.Apply(delivered, time.Now())
	require.ErrorIs(t, err, order.ErrStaleEvent)

	// Re-delivery in causal order still reaches the same terminal state.
	_, err = o.Apply(pickedUp, time.Now())
	require.NoError(t, err)
	_, err = o.Apply(delivered, time.Now())
	require.NoError(t, err)
	assert.Equal(t, order.Delivered, o.Status())
}

func TestOrder_Apply_IllegalEdge(t *testing.T) {
	o := newTestOrder(t)

	ev, err := order.NewTransitionEvent(kernel.NewUUID(), order.Placed, order.Preparing, "")
	require.NoError(t, err)

	_, err = o.Apply(ev, time.Now())
	require.ErrorIs(t, err, order.ErrInvalidTransition)
	assert.Equal(t, order.Placed, o.Status())
}

func TestOrder_Apply_PaymentGate(t *testing.T) {
	o := newTestOrder(t)
	apply(t, o, order.Placed, order.Confirmed)
	apply(t, o, order.Confirmed, order.Preparing)
	apply(t, o, order.Preparing, order.ReadyForPickup)
	apply(t, o, order.ReadyForPickup, order.OutForDelivery)

	// Payment still pending: delivery must be rejected.
	ev, err := order.NewTransitionEvent(kernel.NewUUID(), order.OutForDelivery, order.Delivered, "")
	require.NoError(t, err)
	_, err = o.Apply(ev, time.Now())
	require.ErrorIs(t, err, order.ErrPaymentNotCaptured)

	require.NoError(t, o.MarkPaymentCaptured(time.Now()))
	_, err = o.Apply(ev, time.Now())
	require.NoError(t, err)
	assert.Equal(t, order.Delivered, o.Status())
}

func TestOrder_Apply_CancellationGuard(t *testing.T) {
	t.Run("plain_cancel_before_out_for_delivery", func(t *testing.T) {
		o := newTestOrder(t)
		ev, err := order.NewTransitionEvent(kernel.NewUUID(), order.Placed, order.Cancelled, "customer request")
		require.NoError(t, err)

		_, err = o.Apply(ev, time.Now())
		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, o.Status())
		assert.Equal(t, "customer request", o.CancelReason())
	})

	t.Run("cancel_past_out_for_delivery_requires_token", func(t *testing.T) {
		o := newTestOrder(t)
		apply(t, o, order.Placed, order.Confirmed)
		apply(t, o, order.Confirmed, order.Preparing)
		apply(t, o, order.Preparing, order.ReadyForPickup)
		apply(t, o, order.ReadyForPickup, order.OutForDelivery)

		plain, err := order.NewTransitionEvent(kernel.NewUUID(), order.OutForDelivery, order.Cancelled, "changed my mind")
		require.NoError(t, err)
		_, err = o.Apply(plain, time.Now())
		require.ErrorIs(t, err, order.ErrCompensationTokenRequired)
		assert.Equal(t, order.OutForDelivery, o.Status())

		compensated, err := order.NewCompensatedCancellation(
			kernel.NewUUID(), order.OutForDelivery, "comp-token-1", "delivery timed out")
		require.NoError(t, err)
		_, err = o.Apply(compensated, time.Now())
		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, o.Status())
	})

	t.Run("compensated_cancellation_requires_nonempty_token", func(t *testing.T) {
		_, err := order.NewCompensatedCancellation(kernel.NewUUID(), order.OutForDelivery, "", "reason")
		require.ErrorIs(t, err, order.ErrCompensationTokenRequired)
	})
}

func TestOrder_AssignDriver(t *testing.T) {
	o := newTestOrder(t)

	t.Run("rejected_before_ready_for_pickup", func(t *testing.T) {
		err := o.AssignDriver(kernel.NewUUID(), time.Now())
		require.ErrorIs(t, err, order.ErrInvalidTransition)
	})

	t.Run("accepted_at_ready_for_pickup_without_status_change", func(t *testing.T) {
		apply(t, o, order.Placed, order.Confirmed)
		apply(t, o, order.Confirmed, order.Preparing)
		apply(t, o, order.Preparing, order.ReadyForPickup)

		driverID := kernel.NewUUID()
		require.NoError(t, o.AssignDriver(driverID, time.Now()))

		require.NotNil(t, o.DriverID())
		assert.True(t, o.DriverID().IsEqual(driverID))
		assert.Equal(t, order.ReadyForPickup, o.Status(), "assignment must not advance the status")
	})
}

func TestOrder_PaymentTransitions(t *testing.T) {
	o := newTestOrder(t)

	require.NoError(t, o.MarkPaymentAuthorized(time.Now()))
	require.NoError(t, o.MarkPaymentCaptured(time.Now()))

	// Duplicate capture callback: accepted no-op.
	require.NoError(t, o.MarkPaymentCaptured(time.Now()))
	assert.Equal(t, order.PaymentCaptured, o.PaymentStatus())

	require.ErrorIs(t, o.MarkPaymentFailed(time.Now()), order.ErrInvalidPaymentTransition)

	require.NoError(t, o.MarkPaymentRefunded(time.Now()))
	assert.Equal(t, order.PaymentRefunded, o.PaymentStatus())
}

func TestRestoreOrder(t *testing.T) {
	o := newTestOrder(t)
	apply(t, o, order.Placed, order.Confirmed)
	appliedIDs := o.AppliedEventIDs()
	require.Len(t, appliedIDs, 1)

	driverID := kernel.NewUUID()
	restored, err := order.RestoreOrder(
		o.ID(), o.OrderNumber(), o.CustomerID(), o.RestaurantID(), &driverID,
		o.Items(), o.Charges(), o.Status(), o.PaymentStatus(), "",
		o.CreatedAt(), o.UpdatedAt(), nil, appliedIDs,
	)
	require.NoError(t, err)

	assert.Equal(t, order.Confirmed, restored.Status())
	assert.ElementsMatch(t, appliedIDs, restored.AppliedEventIDs())

	// The restored applied-event set still suppresses duplicates.
	evID, err := kernel.UUIDFromString(appliedIDs[0])
	require.NoError(t, err)
	ev, err := order.NewTransitionEvent(evID, order.Placed, order.Confirmed, "")
	require.NoError(t, err)
	res, err := restored.Apply(ev, time.Now())
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
}
