package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/repository"
)

type stubGeocodingProvider struct {
	results     []model.GeocodeResult
	searchErr   error
	road, lot   string
	reverseErr  error
	searchCalls int
	coordCalls  int
}

func (p *stubGeocodingProvider) SearchAddress(ctx context.Context, query string) ([]model.GeocodeResult, error) {
	p.searchCalls++
	return p.results, p.searchErr
}

func (p *stubGeocodingProvider) CoordToAddress(ctx context.Context, coord model.Coordinate) (string, string, error) {
	p.coordCalls++
	return p.road, p.lot, p.reverseErr
}

// mapGeocodeCache テスト用の単純なキャッシュ
type mapGeocodeCache struct {
	forward map[string]model.GeocodeResult
	reverse map[model.Coordinate]string
}

func newMapGeocodeCache() *mapGeocodeCache {
	return &mapGeocodeCache{forward: map[string]model.GeocodeResult{}, reverse: map[model.Coordinate]string{}}
}

func (c *mapGeocodeCache) GetForward(ctx context.Context, query string) (*model.GeocodeResult, error) {
	r, ok := c.forward[query]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return &r, nil
}

func (c *mapGeocodeCache) SetForward(ctx context.Context, query string, result *model.GeocodeResult) error {
	c.forward[query] = *result
	return nil
}

func (c *mapGeocodeCache) GetReverse(ctx context.Context, coord model.Coordinate) (string, error) {
	a, ok := c.reverse[coord]
	if !ok {
		return "", repository.ErrCacheMiss
	}
	return a, nil
}

func (c *mapGeocodeCache) SetReverse(ctx context.Context, coord model.Coordinate, address string) error {
	c.reverse[coord] = address
	return nil
}

func TestGeocodingService_GeocodeAddress(t *testing.T) {
	gangnam := model.GeocodeResult{Coordinate: model.Coordinate{Latitude: 37.4979, Longitude: 127.0276}, Address: "서울 강남구 강남대로 396"}

	t.Run("最初の候補を返しキャッシュする", func(t *testing.T) {
		provider := &stubGeocodingProvider{results: []model.GeocodeResult{gangnam, {Address: "other"}}}
		svc := NewGeocodingService(provider, newMapGeocodeCache())

		got := svc.GeocodeAddress(context.Background(), " 강남역 ")
		require.NotNil(t, got)
		assert.Equal(t, gangnam, *got)

		again := svc.GeocodeAddress(context.Background(), "강남역")
		require.NotNil(t, again)
		assert.Equal(t, 1, provider.searchCalls)
	})

	t.Run("候補なしは nil", func(t *testing.T) {
		svc := NewGeocodingService(&stubGeocodingProvider{}, nil)
		assert.Nil(t, svc.GeocodeAddress(context.Background(), "Gangnam Station"))
	})

	t.Run("失敗は nil", func(t *testing.T) {
		svc := NewGeocodingService(&stubGeocodingProvider{searchErr: errors.New("401")}, nil)
		assert.Nil(t, svc.GeocodeAddress(context.Background(), "강남역"))
	})

	t.Run("空文字は問い合わせない", func(t *testing.T) {
		provider := &stubGeocodingProvider{results: []model.GeocodeResult{gangnam}}
		assert.Nil(t, NewGeocodingService(provider, nil).GeocodeAddress(context.Background(), "  "))
		assert.Equal(t, 0, provider.searchCalls)
	})
}

func TestGeocodingService_ReverseGeocode(t *testing.T) {
	tap := model.Coordinate{Latitude: 37.50, Longitude: 127.03}

	t.Run("道路名住所を優先", func(t *testing.T) {
		svc := NewGeocodingService(&stubGeocodingProvider{road: "Teheran-ro 123", lot: "역삼동 736"}, nil)
		assert.Equal(t, "Teheran-ro 123", svc.ReverseGeocode(context.Background(), tap))
	})

	t.Run("道路名が無ければ地番住所", func(t *testing.T) {
		svc := NewGeocodingService(&stubGeocodingProvider{lot: "역삼동 736"}, nil)
		assert.Equal(t, "역삼동 736", svc.ReverseGeocode(context.Background(), tap))
	})

	t.Run("どちらも無ければ見つからない旨の文字列", func(t *testing.T) {
		svc := NewGeocodingService(&stubGeocodingProvider{}, nil)
		assert.Equal(t, model.AddressNotFound, svc.ReverseGeocode(context.Background(), tap))
	})

	t.Run("失敗しても見つからない旨の文字列", func(t *testing.T) {
		svc := NewGeocodingService(&stubGeocodingProvider{reverseErr: errors.New("timeout")}, nil)
		assert.Equal(t, model.AddressNotFound, svc.ReverseGeocode(context.Background(), tap))
	})

	t.Run("キャッシュ済みなら問い合わせない", func(t *testing.T) {
		provider := &stubGeocodingProvider{road: "Teheran-ro 123"}
		svc := NewGeocodingService(provider, newMapGeocodeCache())
		svc.ReverseGeocode(context.Background(), tap)
		assert.Equal(t, "Teheran-ro 123", svc.ReverseGeocode(context.Background(), tap))
		assert.Equal(t, 1, provider.coordCalls)
	})
}
