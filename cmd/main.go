package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"StoreMap-App/internal/config"
	"StoreMap-App/internal/domain/repository"
	"StoreMap-App/internal/domain/service"
	"StoreMap-App/internal/handler"
	"StoreMap-App/internal/infrastructure/api"
	"StoreMap-App/internal/infrastructure/database"
	fsinfra "StoreMap-App/internal/infrastructure/firestore"
	"StoreMap-App/internal/infrastructure/maps"
	redisinfra "StoreMap-App/internal/infrastructure/redis"
	repoimpl "StoreMap-App/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	ctx := context.Background()
	health := map[string]handler.HealthChecker{}

	// 店舗データ
	storesRepo, closeStores, err := setupStoresRepository(cfg, health)
	if err != nil {
		log.Fatalf("店舗リポジトリ初期化失敗: %v", err)
	}
	defer closeStores()

	catalog := service.NewStoreCatalog(nil)
	if storesRepo != nil {
		loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := catalog.Load(loadCtx, storesRepo); err != nil {
			log.Printf("⚠️  店舗カタログの読み込みに失敗しました。リモート検索のみで動作します: %v", err)
		}
		cancel()
	}

	var lookup service.RemoteStoreLookup
	switch {
	case cfg.StoreAPIBaseURL != "":
		lookup = api.NewNearbyStoresClient(cfg.StoreAPIBaseURL)
		log.Printf("🌐 店舗検索API: %s", cfg.StoreAPIBaseURL)
	case storesRepo != nil:
		lookup = service.NewRepositoryStoreLookup(storesRepo, cfg.StoreLookupLimit)
	default:
		log.Printf("⚠️  店舗検索のリモート提供元がありません")
	}
	directory := service.NewStoreDirectoryService(catalog, lookup)

	// ジオコーディング
	cache, closeCache, err := setupGeocodeCache(ctx, cfg, health)
	if err != nil {
		log.Fatalf("ジオコーディングキャッシュ初期化失敗: %v", err)
	}
	defer closeCache()

	provider := maps.NewKakaoLocalProvider(cfg.KakaoRestAPIKey, cfg.GeocodeRatePerSec)
	geocoding := service.NewGeocodingService(provider, cache)

	router := handler.NewRouter(handler.Handlers{
		Stores:  handler.NewRepositoryStoresHandler(storesRepo, cfg.StoreLookupLimit),
		Geocode: handler.NewGeocodeHandler(geocoding),
		Map: handler.NewMapSurfaceHandler(geocoding, directory, handler.MapSurfaceConfig{
			KakaoJSKey:      cfg.KakaoJSAPIKey,
			LoadTimeout:     cfg.RendererLoadTimeout,
			LocationTimeout: cfg.LocationTimeout,
			SettleDelay:     cfg.SettleDelay,
			PanelDuration:   cfg.PanelAnimation,
			ZoomLevel:       cfg.DefaultZoomLevel,
			RangeThreshold:  cfg.StoreRangeDegrees,
			DefaultCenter:   cfg.DefaultCenter,
		}),
		Health: health,
	})

	log.Printf("🚀 StoreMap-App server starting on :%s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("サーバー起動失敗: %v", err)
	}
}

func setupStoresRepository(cfg *config.Config, health map[string]handler.HealthChecker) (repository.StoresRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		dsn := cfg.DatabaseURL
		if dsn == "" {
			var err error
			dsn, err = database.BuildSupabaseDSN(cfg.SupabaseURL, cfg.SupabaseDBPass)
			if err != nil {
				return nil, nil, err
			}
		}
		client, err := database.NewPostgreSQLClientWithRetry(dsn, 5, 2*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("PostgreSQL接続失敗: %w", err)
		}
		health["postgres"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.HealthCheck(ctx)
		}
		log.Printf("✅ PostgreSQL connection successful!")
		return repoimpl.NewPostgresStoresRepository(client), func() { client.Close() }, nil

	case config.StoreBackendSupabase:
		client, err := database.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if err != nil {
			return nil, nil, fmt.Errorf("Supabaseクライアント初期化失敗: %w", err)
		}
		health["supabase"] = client.HealthCheck
		log.Printf("✅ Supabase client ready: %s", client.URL())
		return repoimpl.NewSupabaseStoresRepository(client), func() {}, nil
	}
	return nil, func() {}, nil
}

func setupGeocodeCache(ctx context.Context, cfg *config.Config, health map[string]handler.HealthChecker) (repository.GeocodeCacheRepository, func(), error) {
	switch cfg.GeocodeCache {
	case config.GeocodeCacheRedis:
		client, err := redisinfra.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		health["redis"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.GetClient().Ping(pingCtx).Err()
		}
		return repoimpl.NewRedisGeocodeCacheRepository(client.GetClient(), cfg.GeocodeCacheTTL), func() { client.Close() }, nil

	case config.GeocodeCacheFirestore:
		client, err := fsinfra.NewFirestoreClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentials)
		if err != nil {
			return nil, nil, err
		}
		return repoimpl.NewFirestoreGeocodeCacheRepository(client.GetClient(), cfg.GeocodeCacheTTL), func() { client.Close() }, nil
	}
	return repoimpl.NewMemoryGeocodeCacheRepository(cfg.GeocodeCacheTTL), func() {}, nil
}
