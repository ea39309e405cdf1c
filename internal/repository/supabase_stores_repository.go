package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"StoreMap-App/internal/domain/helper"
	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/repository"
	"StoreMap-App/internal/infrastructure/database"
)

type SupabaseStoresRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseStoresRepository(client *database.SupabaseClient) repository.StoresRepository {
	return &SupabaseStoresRepository{
		client: client,
	}
}

func (r *SupabaseStoresRepository) ListAll(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	data, count, err := r.client.GetClient().From("stores").Select("*", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("店舗一覧の取得失敗: %w", err)
	}
	_ = count

	if err := json.Unmarshal(data, &stores); err != nil {
		return nil, fmt.Errorf("店舗データのJSONアンマーシャル失敗: %w", err)
	}
	return stores, nil
}

func (r *SupabaseStoresRepository) GetByID(ctx context.Context, id string) (*model.Store, error) {
	var stores []model.Store
	data, count, err := r.client.GetClient().From("stores").Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("店舗データの取得失敗: %w", err)
	}
	_ = count

	if err := json.Unmarshal(data, &stores); err != nil {
		return nil, fmt.Errorf("店舗データのJSONアンマーシャル失敗: %w", err)
	}
	if len(stores) == 0 {
		return nil, fmt.Errorf("店舗 ID %s が見つかりません", id)
	}
	return &stores[0], nil
}

func (r *SupabaseStoresRepository) FindNearby(ctx context.Context, center model.Coordinate, thresholdDeg float64, limit int) ([]model.Store, error) {
	box := BoundToBoundingBox(helper.RangeBound(center, thresholdDeg))

	var stores []model.Store
	data, count, err := r.client.GetClient().From("stores").
		Select("*", "exact", false).
		Gt("latitude", formatDegree(box.MinLat)).
		Lt("latitude", formatDegree(box.MaxLat)).
		Gt("longitude", formatDegree(box.MinLng)).
		Lt("longitude", formatDegree(box.MaxLng)).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("周辺店舗データの取得失敗: %w", err)
	}
	_ = count

	if err := json.Unmarshal(data, &stores); err != nil {
		return nil, fmt.Errorf("店舗データのJSONアンマーシャル失敗: %w", err)
	}
	return stores, nil
}
