package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coordinator/internal/core/domain/model/driver"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/services"
)

func mustPoint(t *testing.T, lat, lon float64) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	return p
}

func mustDriver(t *testing.T, name string, location kernel.GeoPoint) *driver.Driver {
	t.Helper()
	d, err := driver.NewDriver(kernel.NewUUID(), name, location, driver.DefaultMaxActiveDeliveries)
	require.NoError(t, err)
	return d
}

func Test_DriverMatcher_Rank(t *testing.T) {
	matcher := services.NewDriverMatcher()
	pickup := mustPoint(t, 55.751, 37.617)

	t.Run("orders_by_travel_time", func(t *testing.T) {
		near := mustDriver(t, "near", mustPoint(t, 55.752, 37.618))
		far := mustDriver(t, "far", mustPoint(t, 55.760, 37.640))

		ranked, err := matcher.Rank(pickup, []services.Candidate{
			{Driver: far, TravelTime: 12 * time.Minute},
			{Driver: near, TravelTime: 3 * time.Minute},
		}, 5000)
		require.NoError(t, err)

		require.Len(t, ranked, 2)
		assert.Equal(t, "near", ranked[0].Driver.Name())
		assert.Equal(t, "far", ranked[1].Driver.Name())
	})

	t.Run("skips_drivers_outside_radius", func(t *testing.T) {
		// Roughly 11 km north of the pickup point.
		distant := mustDriver(t, "distant", mustPoint(t, 55.851, 37.617))

		_, err := matcher.Rank(pickup, []services.Candidate{
			{Driver: distant, TravelTime: time.Minute},
		}, 5000)
		assert.ErrorIs(t, err, services.ErrNoCandidates)
	})

	t.Run("skips_drivers_at_cap", func(t *testing.T) {
		capped := mustDriver(t, "capped", mustPoint(t, 55.752, 37.618))
		require.NoError(t, capped.TakeDelivery())
		require.NoError(t, capped.TakeDelivery())
		free := mustDriver(t, "free", mustPoint(t, 55.753, 37.619))

		ranked, err := matcher.Rank(pickup, []services.Candidate{
			{Driver: capped, TravelTime: time.Minute},
			{Driver: free, TravelTime: 5 * time.Minute},
		}, 5000)
		require.NoError(t, err)

		require.Len(t, ranked, 1)
		assert.Equal(t, "free", ranked[0].Driver.Name())
	})

	t.Run("skips_unavailable_drivers", func(t *testing.T) {
		off := mustDriver(t, "off", mustPoint(t, 55.752, 37.618))
		require.NoError(t, off.SetAvailable(false))

		_, err := matcher.Rank(pickup, []services.Candidate{
			{Driver: off, TravelTime: time.Minute},
		}, 5000)
		assert.ErrorIs(t, err, services.ErrNoCandidates)
	})

	t.Run("ties_broken_by_distance", func(t *testing.T) {
		closer := mustDriver(t, "closer", mustPoint(t, 55.7515, 37.6175))
		further := mustDriver(t, "further", mustPoint(t, 55.756, 37.625))

		ranked, err := matcher.Rank(pickup, []services.Candidate{
			{Driver: further, TravelTime: 4 * time.Minute},
			{Driver: closer, TravelTime: 4 * time.Minute},
		}, 5000)
		require.NoError(t, err)

		require.Len(t, ranked, 2)
		assert.Equal(t, "closer", ranked[0].Driver.Name())
	})

	t.Run("rejects_non_positive_radius", func(t *testing.T) {
		_, err := matcher.Rank(pickup, nil, 0)
		assert.Error(t, err)
	})
}
