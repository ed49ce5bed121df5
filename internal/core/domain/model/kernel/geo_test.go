package kernel_test

import (
	"testing"

	"coordinator/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeoPoint(t *testing.T) {
	t.Run("creates_valid_point", func(t *testing.T) {
		p, err := kernel.NewGeoPoint(55.7558, 37.6173)

		require.NoError(t, err)
		assert.InDelta(t, 55.7558, p.Lat(), 1e-9)
		assert.InDelta(t, 37.6173, p.Lon(), 1e-9)
		require.NoError(t, p.Validate())
	})

	t.Run("rejects_out_of_range_latitude", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(91, 0)
		require.Error(t, err)

		_, err = kernel.NewGeoPoint(-91, 0)
		require.Error(t, err)
	})

	t.Run("rejects_out_of_range_longitude", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(0, 181)
		require.Error(t, err)

		_, err = kernel.NewGeoPoint(0, -181)
		require.Error(t, err)
	})

	t.Run("zero_value_fails_validation", func(t *testing.T) {
		var p kernel.GeoPoint
		require.Error(t, p.Validate())
	})
}

func TestGeoPoint_DistanceTo(t *testing.T) {
	t.Run("distance_to_self_is_zero", func(t *testing.T) {
		p, err := kernel.NewGeoPoint(40.7128, -74.0060)
		require.NoError(t, err)

		d, err := p.DistanceTo(p)
		require.NoError(t, err)
		assert.InDelta(t, 0, d, 1e-6)
	})

	t.Run("one_degree_of_latitude_is_about_111km", func(t *testing.T) {
		a, err := kernel.NewGeoPoint(50, 10)
		require.NoError(t, err)
		b, err := kernel.NewGeoPoint(51, 10)
		require.NoError(t, err)

		d, err := a.DistanceTo(b)
		require.NoError(t, err)
		assert.InDelta(t, 111195, d, 200)
	})

	t.Run("distance_is_symmetric", func(t *testing.T) {
		a, err := kernel.NewGeoPoint(55.7558, 37.6173)
		require.NoError(t, err)
		b, err := kernel.NewGeoPoint(55.7600, 37.6200)
		require.NoError(t, err)

		ab, err := a.DistanceTo(b)
		require.NoError(t, err)
		ba, err := b.DistanceTo(a)
		require.NoError(t, err)
		assert.InDelta(t, ab, ba, 1e-6)
	})

	t.Run("unconstructed_point_fails", func(t *testing.T) {
		a, err := kernel.NewGeoPoint(50, 10)
		require.NoError(t, err)

		var zero kernel.GeoPoint
		_, err = a.DistanceTo(zero)
		require.Error(t, err)
	})
}
