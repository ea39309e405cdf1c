package repository

import (
	"context"
	"database/sql"
	"fmt"

	"StoreMap-App/internal/domain/helper"
	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/repository"
	"StoreMap-App/internal/infrastructure/database"
)

type PostgresStoresRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresStoresRepository(client *database.PostgreSQLClient) repository.StoresRepository {
	return &PostgresStoresRepository{
		client: client,
	}
}

// StoreRow storesテーブルの行
type StoreRow struct {
	ID        string
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Phone     sql.NullString
}

// ToStore StoreRowをmodel.Storeに変換
func (sr *StoreRow) ToStore() model.Store {
	store := model.Store{
		ID:        sr.ID,
		Name:      sr.Name,
		Address:   sr.Address,
		Latitude:  sr.Latitude,
		Longitude: sr.Longitude,
	}
	if sr.Phone.Valid {
		phone := sr.Phone.String
		store.Phone = &phone
	}
	return store
}

const storeColumns = `id, name, address, latitude, longitude, phone`

func (r *PostgresStoresRepository) ListAll(ctx context.Context) ([]model.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores ORDER BY id`
	rows, err := r.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("店舗一覧の取得失敗: %w", err)
	}
	defer rows.Close()
	return scanStores(rows)
}

func (r *PostgresStoresRepository) GetByID(ctx context.Context, id string) (*model.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = $1`
	row := r.client.DB.QueryRowContext(ctx, query, id)

	var result StoreRow
	err := row.Scan(&result.ID, &result.Name, &result.Address, &result.Latitude, &result.Longitude, &result.Phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("店舗 ID %s が見つかりません", id)
		}
		return nil, fmt.Errorf("店舗データの取得失敗: %w", err)
	}
	store := result.ToStore()
	return &store, nil
}

// FindNearby 矩形（IsWithinRangeと同じ厳密な不等号）で絞り込む
func (r *PostgresStoresRepository) FindNearby(ctx context.Context, center model.Coordinate, thresholdDeg float64, limit int) ([]model.Store, error) {
	box := BoundToBoundingBox(helper.RangeBound(center, thresholdDeg))
	query := `
		SELECT ` + storeColumns + `
		FROM stores
		WHERE latitude > $1 AND latitude < $2
		  AND longitude > $3 AND longitude < $4
		LIMIT $5
	`
	rows, err := r.client.DB.QueryContext(ctx, query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, limit)
	if err != nil {
		return nil, fmt.Errorf("周辺店舗検索失敗: %w", err)
	}
	defer rows.Close()
	return scanStores(rows)
}

func scanStores(rows *sql.Rows) ([]model.Store, error) {
	var stores []model.Store
	for rows.Next() {
		var result StoreRow
		if err := rows.Scan(&result.ID, &result.Name, &result.Address, &result.Latitude, &result.Longitude, &result.Phone); err != nil {
			return nil, fmt.Errorf("店舗データスキャンエラー: %w", err)
		}
		stores = append(stores, result.ToStore())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("店舗データ読み込みエラー: %w", err)
	}
	return stores, nil
}
