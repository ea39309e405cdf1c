package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BridgeCommands レンダラーへ送信したコマンド数
	BridgeCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storemap",
		Subsystem: "bridge",
		Name:      "commands_total",
		Help:      "Commands written to the render surface, by type and delivery (direct|queued|drained).",
	}, []string{"type", "delivery"})

	// BridgeEvents レンダラーから受信したイベント数
	BridgeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storemap",
		Subsystem: "bridge",
		Name:      "events_total",
		Help:      "Events received from the render surface, by type.",
	}, []string{"type"})

	// GeocodeFailures ジオコーディングの失敗数
	GeocodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storemap",
		Subsystem: "geocode",
		Name:      "failures_total",
		Help:      "Geocoding calls that fell back to a sentinel value.",
	}, []string{"op"})

	// StoreQueries 近傍店舗検索の結果ソース
	StoreQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storemap",
		Subsystem: "stores",
		Name:      "queries_total",
		Help:      "Proximity queries by result source (local|remote|empty|stale).",
	}, []string{"source"})

	// ActiveSessions 接続中の地図画面セッション数
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "storemap",
		Name:      "active_sessions",
		Help:      "Connected map screen sessions.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storemap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storemap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "path"})
)

// Handler /metrics 用のハンドラー
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP HTTPリクエスト1件を記録する。path はルートのテンプレートを渡す
func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
