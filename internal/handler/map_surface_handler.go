package handler

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"StoreMap-App/internal/bridge"
	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/service"
	"StoreMap-App/internal/infrastructure/metrics"
	"StoreMap-App/internal/usecase"
)

// MapSurfacePath / MapSocketPath 地図ページとブリッジの接続先
const (
	MapSurfacePath = "/map"
	MapSocketPath  = "/map/ws"
)

// MapSurfaceConfig 地図画面セッションの設定
type MapSurfaceConfig struct {
	KakaoJSKey      string
	LoadTimeout     time.Duration
	LocationTimeout time.Duration
	SettleDelay     time.Duration
	PanelDuration   time.Duration
	ZoomLevel       int
	RangeThreshold  float64
	DefaultCenter   model.Coordinate
}

// MapSurfaceHandler 地図ページの配信と、ページごとの地図画面セッションを管理する
type MapSurfaceHandler struct {
	geocoding service.GeocodingService
	directory service.StoreDirectoryService
	cfg       MapSurfaceConfig
	upgrader  websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]usecase.MapScreenUseCase
}

// NewMapSurfaceHandler MapSurfaceHandlerの新しいインスタンスを作成
func NewMapSurfaceHandler(geocoding service.GeocodingService, directory service.StoreDirectoryService, cfg MapSurfaceConfig) *MapSurfaceHandler {
	return &MapSurfaceHandler{
		geocoding: geocoding,
		directory: directory,
		cfg:       cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		sessions: make(map[string]usecase.MapScreenUseCase),
	}
}

// GetSurface GET /map - 地図SDKを読み込むページ
func (h *MapSurfaceHandler) GetSurface(c *gin.Context) {
	html, err := bridge.RenderSurface(bridge.SurfaceParams{
		KakaoJSKey:    h.cfg.KakaoJSKey,
		WebSocketPath: MapSocketPath,
		SearchAddress: c.Query("searchAddress"),
		DefaultLat:    h.cfg.DefaultCenter.Latitude,
		DefaultLon:    h.cfg.DefaultCenter.Longitude,
		DefaultZoom:   h.cfg.ZoomLevel,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to render map surface: " + err.Error(),
		})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// Connect GET /map/ws - ページとのブリッジを確立し、切断まで地図画面セッションを実行する
func (h *MapSurfaceHandler) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ WebSocketアップグレード失敗: %v", err)
		return
	}

	sessionID := uuid.New().String()
	b := bridge.NewBridge(bridge.NewWebSocketTransport(conn), bridge.Options{LoadTimeout: h.cfg.LoadTimeout})
	defer b.Close()

	location := service.NewLocationProvider(bridge.NewPositionSource(b), h.cfg.LocationTimeout)
	center := h.cfg.DefaultCenter
	screen := usecase.NewMapScreenUseCase(b, location, h.geocoding, h.directory, usecase.MapScreenConfig{
		SessionID:      sessionID,
		SearchAddress:  c.Query("searchAddress"),
		SettleDelay:    h.cfg.SettleDelay,
		ZoomLevel:      h.cfg.ZoomLevel,
		RangeThreshold: h.cfg.RangeThreshold,
		DefaultCenter:  &center,
		PanelDuration:  h.cfg.PanelDuration,
	})

	h.register(sessionID, screen)
	defer h.unregister(sessionID)

	err = screen.Run(c.Request.Context())
	switch {
	case err == nil, errors.Is(err, bridge.ErrClosed):
		log.Printf("🔌 セッション切断: %s", sessionID)
	case errors.Is(err, usecase.ErrRendererFailed):
		log.Printf("🔙 地図の読み込み失敗により画面を閉じました: %s", sessionID)
	default:
		log.Printf("⚠️  セッション異常終了 (%s): %v", sessionID, err)
	}
}

// GetSessionState GET /map/sessions/:id - セッションの画面状態
func (h *MapSurfaceHandler) GetSessionState(c *gin.Context) {
	h.mu.RLock()
	screen, ok := h.sessions[c.Param("id")]
	h.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Session not found",
		})
		return
	}
	c.JSON(http.StatusOK, screen.State())
}

// ListSessions GET /map/sessions - 接続中のセッションID
func (h *MapSurfaceHandler) ListSessions(c *gin.Context) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"sessions": ids})
}

func (h *MapSurfaceHandler) register(id string, screen usecase.MapScreenUseCase) {
	h.mu.Lock()
	h.sessions[id] = screen
	h.mu.Unlock()
	metrics.ActiveSessions.Inc()
	log.Printf("🆕 地図画面セッション開始: %s", id)
}

func (h *MapSurfaceHandler) unregister(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
	metrics.ActiveSessions.Dec()
}
