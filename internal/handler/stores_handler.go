package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/repository"
	"StoreMap-App/internal/domain/service"
)

// StoresHandler 店舗検索のHTTPハンドラー。地図画面のリモート検索の提供元でもある
type StoresHandler struct {
	lookup service.RemoteStoreLookup
	repo   repository.StoresRepository
}

// NewStoresHandler StoresHandlerの新しいインスタンスを作成。repo は nil でもよい
func NewStoresHandler(lookup service.RemoteStoreLookup, repo repository.StoresRepository) *StoresHandler {
	return &StoresHandler{
		lookup: lookup,
		repo:   repo,
	}
}

// NewRepositoryStoresHandler 店舗リポジトリを直接引くStoresHandlerを作成。
// repo が nil なら周辺検索・詳細とも 503 を返す
func NewRepositoryStoresHandler(repo repository.StoresRepository, limit int) *StoresHandler {
	if repo == nil {
		return NewStoresHandler(nil, nil)
	}
	return NewStoresHandler(service.NewRepositoryStoreLookup(repo, limit), repo)
}

// GetNearbyStores GET /stores/nearby - 座標周辺の店舗一覧
func (h *StoresHandler) GetNearbyStores(c *gin.Context) {
	center, ok := parseCoordinate(c)
	if !ok {
		return
	}

	threshold := model.DefaultRangeThreshold
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "invalid_parameter",
				"message": "threshold must be a number in (0, 1]",
			})
			return
		}
		threshold = v
	}

	if h.lookup == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "unavailable",
			"message": "store directory is not configured",
		})
		return
	}

	stores, err := h.lookup.FindNearbyStores(c.Request.Context(), center, threshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "internal_error",
			"message": "Failed to find stores: " + err.Error(),
		})
		return
	}
	if stores == nil {
		stores = []model.Store{}
	}

	c.JSON(http.StatusOK, model.NearbyStoresResponse{
		Success: true,
		Stores:  stores,
	})
}

// GetStore GET /stores/:id - 店舗の詳細
func (h *StoresHandler) GetStore(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "unavailable",
			"message": "store repository is not configured",
		})
		return
	}

	id := c.Param("id")
	store, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Store not found: " + id,
		})
		return
	}
	c.JSON(http.StatusOK, store)
}

// parseCoordinate lat/lon クエリを読む。不正なら400を書き込んで false を返す
func parseCoordinate(c *gin.Context) (model.Coordinate, bool) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid_parameter",
			"message": "lat and lon must be numbers",
		})
		return model.Coordinate{}, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid_parameter",
			"message": "lat/lon out of range",
		})
		return model.Coordinate{}, false
	}
	return model.Coordinate{Latitude: lat, Longitude: lon}, true
}
