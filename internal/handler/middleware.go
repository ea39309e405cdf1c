package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"StoreMap-App/internal/infrastructure/metrics"
)

// MetricsMiddleware リクエスト数と処理時間を記録する
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
