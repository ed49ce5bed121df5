package delivery_test

import (
	"testing"
	"time"

	"coordinator/internal/core/domain/model/delivery"
	"coordinator/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDelivery(t *testing.T) *delivery.Delivery {
	t.Helper()
	d, err := delivery.NewDelivery(kernel.NewUUID(), kernel.NewUUID(), 1, time.Now())
	require.NoError(t, err)
	return d
}

func TestNewDelivery(t *testing.T) {
	d := newTestDelivery(t)

	assert.Equal(t, delivery.ReadyForPickup, d.Status())
	assert.True(t, d.IsActive())
	assert.Equal(t, 1, d.RetryCount())
	assert.Empty(t, d.LocationHistory())
}

func TestDelivery_Lifecycle(t *testing.T) {
	t.Run("pickup_then_delivered", func(t *testing.T) {
		d := newTestDelivery(t)

		require.NoError(t, d.MarkOutForDelivery(time.Now()))
		assert.Equal(t, delivery.OutForDelivery, d.Status())

		require.NoError(t, d.MarkDelivered(time.Now()))
		assert.Equal(t, delivery.Delivered, d.Status())
		assert.False(t, d.IsActive())
	})

	t.Run("cancel_releases_driver", func(t *testing.T) {
		d := newTestDelivery(t)
		require.NoError(t, d.MarkCancelled(time.Now()))
		assert.False(t, d.IsActive())
	})

	t.Run("delivered_straight_from_ready_is_illegal", func(t *testing.T) {
		d := newTestDelivery(t)
		err := d.MarkDelivered(time.Now())
		require.ErrorIs(t, err, delivery.ErrInvalidDeliveryTransition)
	})

	t.Run("repeated_transition_is_noop", func(t *testing.T) {
		d := newTestDelivery(t)
		require.NoError(t, d.MarkOutForDelivery(time.Now()))
		require.NoError(t, d.MarkOutForDelivery(time.Now()))
		assert.Equal(t, delivery.OutForDelivery, d.Status())
	})
}

func TestDelivery_RecordLocation(t *testing.T) {
	d := newTestDelivery(t)
	require.NoError(t, d.MarkOutForDelivery(time.Now()))

	p1, err := kernel.NewGeoPoint(55.75, 37.61)
	require.NoError(t, err)
	p2, err := kernel.NewGeoPoint(55.76, 37.62)
	require.NoError(t, err)

	require.NoError(t, d.RecordLocation(p1, time.Now()))
	require.NoError(t, d.RecordLocation(p2, time.Now()))

	history := d.LocationHistory()
	require.Len(t, history, 2)
	assert.True(t, history[0].Point.IsEqual(p1))
	assert.True(t, history[1].Point.IsEqual(p2))

	t.Run("terminal_delivery_rejects_pings", func(t *testing.T) {
		require.NoError(t, d.MarkDelivered(time.Now()))
		err := d.RecordLocation(p1, time.Now())
		require.ErrorIs(t, err, delivery.ErrDeliveryIsTerminal)
		assert.Len(t, d.LocationHistory(), 2)
	})
}

func TestRestoreDelivery(t *testing.T) {
	d := newTestDelivery(t)
	require.NoError(t, d.MarkOutForDelivery(time.Now()))
	p, err := kernel.NewGeoPoint(55.75, 37.61)
	require.NoError(t, err)
	require.NoError(t, d.RecordLocation(p, time.Now()))

	restored, err := delivery.RestoreDelivery(
		d.OrderID(), d.DriverID(), d.Status(), d.LocationHistory(),
		d.RetryCount(), d.CreatedAt(), d.UpdatedAt(),
	)
	require.NoError(t, err)
	assert.Equal(t, delivery.OutForDelivery, restored.Status())
	assert.Len(t, restored.LocationHistory(), 1)
}

func TestDeliveryStatus_StringRoundTrip(t *testing.T) {
	for _, s := range []delivery.Status{
		delivery.ReadyForPickup, delivery.OutForDelivery, delivery.Delivered, delivery.Cancelled,
	} {
		parsed, err := delivery.StatusFromString(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}
