package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"StoreMap-App/internal/domain/model"
)

// 店舗データのバックエンド
const (
	StoreBackendPostgres = "postgres"
	StoreBackendSupabase = "supabase"
	StoreBackendNone     = "none"
)

// ジオコーディング結果のキャッシュ
const (
	GeocodeCacheMemory    = "memory"
	GeocodeCacheRedis     = "redis"
	GeocodeCacheFirestore = "firestore"
)

// Config アプリケーション設定
type Config struct {
	Port string

	KakaoRestAPIKey   string
	KakaoJSAPIKey     string
	GeocodeRatePerSec float64

	StoreBackend      string
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseDBPass    string
	DatabaseURL       string
	StoreAPIBaseURL   string
	StoreLookupLimit  int
	StoreRangeDegrees float64

	GeocodeCache         string
	GeocodeCacheTTL      time.Duration
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	FirestoreProjectID   string
	FirestoreCredentials string

	LocationTimeout     time.Duration
	PanelAnimation      time.Duration
	SettleDelay         time.Duration
	RendererLoadTimeout time.Duration
	DefaultCenter       model.Coordinate
	DefaultZoomLevel    int
}

// Load .env と環境変数から設定を読み込む
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  .envファイルが見つかりません。システム環境変数を使用します")
	}
	return FromEnv()
}

// FromEnv 環境変数のみから設定を読み込む
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		KakaoRestAPIKey:      os.Getenv("KAKAO_REST_API_KEY"),
		KakaoJSAPIKey:        os.Getenv("KAKAO_JS_API_KEY"),
		GeocodeRatePerSec:    getEnvFloat("GEOCODE_RATE_PER_SEC", 10),
		StoreBackend:         strings.ToLower(getEnv("STORE_BACKEND", StoreBackendNone)),
		SupabaseURL:          os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:      os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseDBPass:       os.Getenv("SUPABASE_DB_PASSWORD"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		StoreAPIBaseURL:      os.Getenv("STORE_API_BASE_URL"),
		StoreLookupLimit:     getEnvInt("STORE_LOOKUP_LIMIT", 50),
		StoreRangeDegrees:    getEnvFloat("STORE_RANGE_DEGREES", model.DefaultRangeThreshold),
		GeocodeCache:         strings.ToLower(getEnv("GEOCODE_CACHE", GeocodeCacheMemory)),
		GeocodeCacheTTL:      getEnvDuration("GEOCODE_CACHE_TTL_MS", 24*time.Hour),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		FirestoreProjectID:   os.Getenv("FIRESTORE_PROJECT_ID"),
		FirestoreCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		LocationTimeout:      getEnvDuration("LOCATION_TIMEOUT_MS", 5*time.Second),
		PanelAnimation:       getEnvDuration("PANEL_ANIMATION_MS", 350*time.Millisecond),
		SettleDelay:          getEnvDuration("SETTLE_DELAY_MS", 500*time.Millisecond),
		RendererLoadTimeout:  getEnvDuration("RENDERER_LOAD_TIMEOUT_MS", 12*time.Second),
		DefaultZoomLevel:     getEnvInt("DEFAULT_ZOOM_LEVEL", model.DefaultZoomLevel),
	}
	cfg.DefaultCenter = model.Coordinate{
		Latitude:  getEnvFloat("LOCATION_FALLBACK_LAT", model.DefaultLatitude),
		Longitude: getEnvFloat("LOCATION_FALLBACK_LON", model.DefaultLongitude),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 必須項目と組み合わせを検証する
func (c *Config) Validate() error {
	if c.KakaoRestAPIKey == "" {
		return fmt.Errorf("KAKAO_REST_API_KEY is required")
	}
	if c.KakaoJSAPIKey == "" {
		return fmt.Errorf("KAKAO_JS_API_KEY is required")
	}

	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" && (c.SupabaseURL == "" || c.SupabaseDBPass == "") {
			return fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL or SUPABASE_URL and SUPABASE_DB_PASSWORD")
		}
	case StoreBackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("STORE_BACKEND=supabase requires SUPABASE_URL and SUPABASE_ANON_KEY")
		}
	case StoreBackendNone:
	default:
		return fmt.Errorf("unknown STORE_BACKEND: %q", c.StoreBackend)
	}

	switch c.GeocodeCache {
	case GeocodeCacheMemory, GeocodeCacheRedis:
	case GeocodeCacheFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("GEOCODE_CACHE=firestore requires FIRESTORE_PROJECT_ID")
		}
	default:
		return fmt.Errorf("unknown GEOCODE_CACHE: %q", c.GeocodeCache)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  %s の値が不正です (%q)。デフォルト値 %d を使用します", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("⚠️  %s の値が不正です (%q)。デフォルト値 %v を使用します", key, v, fallback)
		return fallback
	}
	return f
}

// getEnvDuration ミリ秒指定の環境変数を読む
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	ms := getEnvInt(key, -1)
	if ms < 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
