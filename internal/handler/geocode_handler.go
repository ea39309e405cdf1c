package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/service"
)

// GeocodeHandler 住所と座標の変換API
type GeocodeHandler struct {
	geocoding service.GeocodingService
}

// NewGeocodeHandler GeocodeHandlerの新しいインスタンスを作成
func NewGeocodeHandler(geocoding service.GeocodingService) *GeocodeHandler {
	return &GeocodeHandler{geocoding: geocoding}
}

// Geocode GET /geocode?query= - 住所から座標
func (h *GeocodeHandler) Geocode(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "query parameter is required",
		})
		return
	}

	result := h.geocoding.GeocodeAddress(c.Request.Context(), query)
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": model.AddressNotFound,
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ReverseGeocode GET /geocode/reverse?lat=&lon= - 座標から住所
func (h *GeocodeHandler) ReverseGeocode(c *gin.Context) {
	coord, ok := parseCoordinate(c)
	if !ok {
		return
	}
	address := h.geocoding.ReverseGeocode(c.Request.Context(), coord)
	c.JSON(http.StatusOK, gin.H{
		"latitude":  coord.Latitude,
		"longitude": coord.Longitude,
		"address":   address,
		"found":     address != model.AddressNotFound,
	})
}
