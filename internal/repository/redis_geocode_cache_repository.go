package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/repository"
)

const redisKeyPrefix = "storemap:geocode:"

// RedisGeocodeCacheRepository Redisを使用したジオコーディングキャッシュ
type RedisGeocodeCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGeocodeCacheRepository 新しいRedisGeocodeCacheRepositoryを作成
func NewRedisGeocodeCacheRepository(client *redis.Client, ttl time.Duration) *RedisGeocodeCacheRepository {
	return &RedisGeocodeCacheRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisGeocodeCacheRepository) GetForward(ctx context.Context, query string) (*model.GeocodeResult, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+forwardKey(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("Redisからの住所キャッシュ取得失敗: %w", err)
	}

	var result model.GeocodeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("住所キャッシュのJSONアンマーシャル失敗: %w", err)
	}
	return &result, nil
}

func (r *RedisGeocodeCacheRepository) SetForward(ctx context.Context, query string, result *model.GeocodeResult) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("住所キャッシュのJSONマーシャル失敗: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+forwardKey(query), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("Redisへの住所キャッシュ保存失敗: %w", err)
	}
	return nil
}

func (r *RedisGeocodeCacheRepository) GetReverse(ctx context.Context, coord model.Coordinate) (string, error) {
	address, err := r.client.Get(ctx, redisKeyPrefix+reverseKey(coord)).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("Redisからの逆ジオコーディングキャッシュ取得失敗: %w", err)
	}
	return address, nil
}

func (r *RedisGeocodeCacheRepository) SetReverse(ctx context.Context, coord model.Coordinate, address string) error {
	if err := r.client.Set(ctx, redisKeyPrefix+reverseKey(coord), address, r.ttl).Err(); err != nil {
		return fmt.Errorf("Redisへの逆ジオコーディングキャッシュ保存失敗: %w", err)
	}
	return nil
}
