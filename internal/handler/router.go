package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"StoreMap-App/internal/infrastructure/metrics"
)

// HealthChecker 依存サービスの疎通確認
type HealthChecker func() error

// Handlers ルーターに登録するハンドラー群
type Handlers struct {
	Stores  *StoresHandler
	Geocode *GeocodeHandler
	Map     *MapSurfaceHandler
	Health  map[string]HealthChecker
}

// NewRouter Ginルーターのセットアップ
func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), MetricsMiddleware())

	r.GET("/api/health", healthHandler(h.Health))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if h.Stores != nil {
		stores := r.Group("/stores")
		{
			stores.GET("/nearby", h.Stores.GetNearbyStores)
			stores.GET("/:id", h.Stores.GetStore)
		}
	}

	if h.Geocode != nil {
		geocode := r.Group("/geocode")
		{
			geocode.GET("", h.Geocode.Geocode)
			geocode.GET("/reverse", h.Geocode.ReverseGeocode)
		}
	}

	if h.Map != nil {
		r.GET(MapSurfacePath, h.Map.GetSurface)
		r.GET(MapSocketPath, h.Map.Connect)
		r.GET("/map/sessions", h.Map.ListSessions)
		r.GET("/map/sessions/:id", h.Map.GetSessionState)
	}

	return r
}

func healthHandler(checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		results := gin.H{}
		for name, check := range checks {
			if err := check(); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":  state,
			"service": "StoreMap-App",
			"checks":  results,
		})
	}
}
