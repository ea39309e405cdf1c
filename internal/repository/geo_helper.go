package repository

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"

	"StoreMap-App/internal/domain/model"
)

// BoundingBox SQL/PostgRESTのフィルタに使う矩形
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoundToBoundingBox orb.Bound を緯度経度の最小・最大値に変換
func BoundToBoundingBox(bound orb.Bound) BoundingBox {
	return BoundingBox{
		MinLat: bound.Min.Lat(),
		MaxLat: bound.Max.Lat(),
		MinLng: bound.Min.Lon(),
		MaxLng: bound.Max.Lon(),
	}
}

// formatDegree PostgRESTのクエリ値として座標を文字列化
func formatDegree(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// coordinateCacheKey 逆ジオコーディングのキャッシュキー。
// 小数点以下5桁（約1m）に丸めて近い地点のタップを同一視する
func coordinateCacheKey(coord model.Coordinate) string {
	p := orb.Point{coord.Longitude, coord.Latitude}
	return fmt.Sprintf("%.5f,%.5f", p.Lat(), p.Lon())
}
