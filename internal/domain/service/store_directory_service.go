package service

import (
	"context"
	"log"
	"sync"

	"StoreMap-App/internal/domain/helper"
	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/repository"
	"StoreMap-App/internal/infrastructure/metrics"
)

// RemoteStoreLookup ローカル候補が空の時に使う近隣店舗のリモート検索
type RemoteStoreLookup interface {
	FindNearbyStores(ctx context.Context, center model.Coordinate, thresholdDeg float64) ([]model.Store, error)
}

// StoreDirectoryService 近傍店舗検索（ローカル絞り込み→リモート→距離付与→ソート）
type StoreDirectoryService interface {
	// FetchNearbyStores 距離の昇順に並んだ店舗を返す。失敗時は空スライス
	FetchNearbyStores(ctx context.Context, center model.Coordinate, thresholdDeg float64) []model.Store
}

type storeDirectoryServiceImpl struct {
	catalog *StoreCatalog
	remote  RemoteStoreLookup
}

// NewStoreDirectoryService 新しいStoreDirectoryServiceを作成
func NewStoreDirectoryService(catalog *StoreCatalog, remote RemoteStoreLookup) StoreDirectoryService {
	if catalog == nil {
		catalog = NewStoreCatalog(nil)
	}
	return &storeDirectoryServiceImpl{
		catalog: catalog,
		remote:  remote,
	}
}

func (s *storeDirectoryServiceImpl) FetchNearbyStores(ctx context.Context, center model.Coordinate, thresholdDeg float64) []model.Store {
	if thresholdDeg <= 0 {
		thresholdDeg = model.DefaultRangeThreshold
	}

	// 1. ローカル候補を矩形で絞り込み
	stores := helper.FilterStoresWithinRange(center, s.catalog.Snapshot(), thresholdDeg)
	source := "local"

	// 2. ローカルに一件もなければリモート検索
	if len(stores) == 0 {
		source = "remote"
		stores = s.fetchRemote(ctx, center, thresholdDeg)
	}
	if len(stores) == 0 {
		metrics.StoreQueries.WithLabelValues("empty").Inc()
		return []model.Store{}
	}
	metrics.StoreQueries.WithLabelValues(source).Inc()

	// 3. 距離を付与して 4. 昇順に安定ソート
	result := helper.AnnotateDistances(center, stores)
	helper.SortStoresByDistance(result)

	log.Printf("🏪 近隣店舗 %d件 (%s)", len(result), source)
	return result
}

func (s *storeDirectoryServiceImpl) fetchRemote(ctx context.Context, center model.Coordinate, thresholdDeg float64) (stores []model.Store) {
	if s.remote == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ リモート店舗検索でpanic: %v", r)
			stores = nil
		}
	}()

	stores, err := s.remote.FindNearbyStores(ctx, center, thresholdDeg)
	if err != nil {
		log.Printf("❌ リモート店舗検索失敗: %v", err)
		return nil
	}
	return stores
}

// StoreCatalog ローカルに保持する店舗候補
type StoreCatalog struct {
	mu     sync.RWMutex
	stores []model.Store
}

// NewStoreCatalog 新しいStoreCatalogを作成
func NewStoreCatalog(stores []model.Store) *StoreCatalog {
	c := &StoreCatalog{}
	c.Replace(stores)
	return c
}

// Replace 候補を丸ごと置き換える
func (c *StoreCatalog) Replace(stores []model.Store) {
	copied := make([]model.Store, len(stores))
	copy(copied, stores)
	c.mu.Lock()
	c.stores = copied
	c.mu.Unlock()
}

// Snapshot 候補のコピーを返す
func (c *StoreCatalog) Snapshot() []model.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	copied := make([]model.Store, len(c.stores))
	copy(copied, c.stores)
	return copied
}

// Len 候補数
func (c *StoreCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stores)
}

// Load リポジトリから全店舗を読み込む
func (c *StoreCatalog) Load(ctx context.Context, repo repository.StoresRepository) error {
	stores, err := repo.ListAll(ctx)
	if err != nil {
		return err
	}
	c.Replace(stores)
	log.Printf("✅ 店舗カタログ読み込み完了: %d件", len(stores))
	return nil
}

// RepositoryStoreLookup StoresRepository を直接使うリモート検索
type RepositoryStoreLookup struct {
	repo  repository.StoresRepository
	limit int
}

// NewRepositoryStoreLookup 新しいRepositoryStoreLookupを作成
func NewRepositoryStoreLookup(repo repository.StoresRepository, limit int) *RepositoryStoreLookup {
	if limit <= 0 {
		limit = 50
	}
	return &RepositoryStoreLookup{repo: repo, limit: limit}
}

func (l *RepositoryStoreLookup) FindNearbyStores(ctx context.Context, center model.Coordinate, thresholdDeg float64) ([]model.Store, error) {
	return l.repo.FindNearby(ctx, center, thresholdDeg, l.limit)
}
