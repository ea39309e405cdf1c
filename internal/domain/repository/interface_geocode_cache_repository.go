package repository

import (
	"context"
	"errors"

	"StoreMap-App/internal/domain/model"
)

// ErrCacheMiss キャッシュにエントリが存在しない
var ErrCacheMiss = errors.New("geocode cache miss")

// GeocodeCacheRepository ジオコーディング結果のキャッシュ
type GeocodeCacheRepository interface {
	GetForward(ctx context.Context, query string) (*model.GeocodeResult, error)
	SetForward(ctx context.Context, query string, result *model.GeocodeResult) error
	GetReverse(ctx context.Context, coord model.Coordinate) (string, error)
	SetReverse(ctx context.Context, coord model.Coordinate, address string) error
}
