package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/repository"
	"StoreMap-App/internal/infrastructure/metrics"
)

// GeocodingProvider 外部の住所検索サービス
type GeocodingProvider interface {
	SearchAddress(ctx context.Context, query string) ([]model.GeocodeResult, error)
	CoordToAddress(ctx context.Context, coord model.Coordinate) (road string, lot string, err error)
}

// GeocodingService は住所と座標の相互変換を提供する。
// 想定される失敗はすべて nil やフォールバック文字列で返し、エラーは呼び出し側に伝播しない
type GeocodingService interface {
	// GeocodeAddress 住所文字列から最初の候補を返す。見つからない・失敗時は nil
	GeocodeAddress(ctx context.Context, text string) *model.GeocodeResult

	// ReverseGeocode 座標から道路名住所→地番住所→「見つかりません」の順で返す
	ReverseGeocode(ctx context.Context, coord model.Coordinate) string
}

type geocodingServiceImpl struct {
	provider GeocodingProvider
	cache    repository.GeocodeCacheRepository
}

// NewGeocodingService 新しいGeocodingServiceを作成。cache は nil でもよい
func NewGeocodingService(provider GeocodingProvider, cache repository.GeocodeCacheRepository) GeocodingService {
	return &geocodingServiceImpl{
		provider: provider,
		cache:    cache,
	}
}

func (s *geocodingServiceImpl) GeocodeAddress(ctx context.Context, text string) *model.GeocodeResult {
	query := strings.TrimSpace(text)
	if query == "" {
		return nil
	}

	if s.cache != nil {
		cached, err := s.cache.GetForward(ctx, query)
		if err == nil && cached != nil {
			return cached
		}
		if err != nil && !errors.Is(err, repository.ErrCacheMiss) {
			log.Printf("⚠️  住所キャッシュ読み込み失敗 (%s): %v", query, err)
		}
	}

	results, err := s.provider.SearchAddress(ctx, query)
	if err != nil {
		metrics.GeocodeFailures.WithLabelValues("forward").Inc()
		log.Printf("❌ 住所検索失敗 (%s): %v", query, err)
		return nil
	}
	if len(results) == 0 {
		log.Printf("🔍 住所検索結果なし: %s", query)
		return nil
	}

	first := results[0]
	if s.cache != nil {
		if err := s.cache.SetForward(ctx, query, &first); err != nil {
			log.Printf("⚠️  住所キャッシュ書き込み失敗 (%s): %v", query, err)
		}
	}
	return &first
}

func (s *geocodingServiceImpl) ReverseGeocode(ctx context.Context, coord model.Coordinate) string {
	if s.cache != nil {
		cached, err := s.cache.GetReverse(ctx, coord)
		if err == nil && cached != "" {
			return cached
		}
		if err != nil && !errors.Is(err, repository.ErrCacheMiss) {
			log.Printf("⚠️  逆ジオコーディングキャッシュ読み込み失敗: %v", err)
		}
	}

	road, lot, err := s.provider.CoordToAddress(ctx, coord)
	if err != nil {
		metrics.GeocodeFailures.WithLabelValues("reverse").Inc()
		log.Printf("❌ 逆ジオコーディング失敗 (%.6f, %.6f): %v", coord.Latitude, coord.Longitude, err)
		return model.AddressNotFound
	}

	address := road
	if address == "" {
		address = lot
	}
	if address == "" {
		return model.AddressNotFound
	}

	if s.cache != nil {
		if err := s.cache.SetReverse(ctx, coord, address); err != nil {
			log.Printf("⚠️  逆ジオコーディングキャッシュ書き込み失敗: %v", err)
		}
	}
	return address
}
