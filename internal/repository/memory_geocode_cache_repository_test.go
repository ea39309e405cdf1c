package repository

import (
	"context"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StoreMap-App/internal/domain/model"
	domainRepo "StoreMap-App/internal/domain/repository"
)

func TestMemoryGeocodeCacheRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("住所は大文字小文字と前後の空白を無視する", func(t *testing.T) {
		cache := NewMemoryGeocodeCacheRepository(time.Minute)
		result := &model.GeocodeResult{Coordinate: model.Coordinate{Latitude: 37.4979, Longitude: 127.0276}, Address: "Gangnam"}
		require.NoError(t, cache.SetForward(ctx, "Gangnam Station", result))

		got, err := cache.GetForward(ctx, "  gangnam station ")
		require.NoError(t, err)
		assert.Equal(t, *result, *got)

		_, err = cache.GetForward(ctx, "Yeoksam")
		assert.ErrorIs(t, err, domainRepo.ErrCacheMiss)
	})

	t.Run("近い座標は同じキー", func(t *testing.T) {
		cache := NewMemoryGeocodeCacheRepository(time.Minute)
		require.NoError(t, cache.SetReverse(ctx, model.Coordinate{Latitude: 37.500001, Longitude: 127.030001}, "Teheran-ro 123"))

		got, err := cache.GetReverse(ctx, model.Coordinate{Latitude: 37.50, Longitude: 127.03})
		require.NoError(t, err)
		assert.Equal(t, "Teheran-ro 123", got)

		_, err = cache.GetReverse(ctx, model.Coordinate{Latitude: 37.51, Longitude: 127.03})
		assert.ErrorIs(t, err, domainRepo.ErrCacheMiss)
	})

	t.Run("期限切れはミス", func(t *testing.T) {
		cache := NewMemoryGeocodeCacheRepository(time.Minute)
		now := time.Now()
		cache.now = func() time.Time { return now }
		require.NoError(t, cache.SetReverse(ctx, model.Coordinate{Latitude: 1, Longitude: 2}, "x"))

		cache.now = func() time.Time { return now.Add(2 * time.Minute) }
		_, err := cache.GetReverse(ctx, model.Coordinate{Latitude: 1, Longitude: 2})
		assert.ErrorIs(t, err, domainRepo.ErrCacheMiss)
	})
}

func TestCoordinateCacheKey(t *testing.T) {
	assert.Equal(t, "37.50000,127.03000", coordinateCacheKey(model.Coordinate{Latitude: 37.5, Longitude: 127.03}))

	box := BoundToBoundingBox(orb.Bound{Min: orb.Point{126.98, 37.45}, Max: orb.Point{127.08, 37.55}})
	assert.Equal(t, 37.45, box.MinLat)
	assert.Equal(t, 127.08, box.MaxLng)
	assert.Equal(t, "127.08", formatDegree(127.08))
}
