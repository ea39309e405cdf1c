package repository

import (
	"context"

	"StoreMap-App/internal/domain/model"
)

type StoresRepository interface {
	ListAll(ctx context.Context) ([]model.Store, error)
	GetByID(ctx context.Context, id string) (*model.Store, error)
	// 中心座標からしきい値(度)の矩形内にある店舗を検索
	FindNearby(ctx context.Context, center model.Coordinate, thresholdDeg float64, limit int) ([]model.Store, error)
}
