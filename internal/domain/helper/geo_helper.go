package helper

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"StoreMap-App/internal/domain/model"
)

const earthRadiusKm = 6371.0

// DistanceKm は2地点間の距離をハバーサイン公式で計算する (km)
func DistanceKm(a, b model.Coordinate) float64 {
	if a == b {
		return 0
	}
	lat1 := a.Latitude * math.Pi / 180
	lng1 := a.Longitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	lng2 := b.Longitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := lng2 - lng1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// DistanceToStore は基準座標から店舗までの距離を計算する (km)
func DistanceToStore(origin model.Coordinate, store model.Store) float64 {
	return DistanceKm(origin, store.Coordinate())
}

// IsWithinRange は緯度・経度の差がどちらもしきい値未満かを判定する。
// 真の半径ではなく矩形による安価な事前フィルタ
func IsWithinRange(center, target model.Coordinate, thresholdDeg float64) bool {
	if thresholdDeg <= 0 {
		thresholdDeg = model.DefaultRangeThreshold
	}
	return math.Abs(center.Latitude-target.Latitude) < thresholdDeg &&
		math.Abs(center.Longitude-target.Longitude) < thresholdDeg
}

// RangeBound は IsWithinRange と同じ矩形を orb.Bound として返す
func RangeBound(center model.Coordinate, thresholdDeg float64) orb.Bound {
	if thresholdDeg <= 0 {
		thresholdDeg = model.DefaultRangeThreshold
	}
	return orb.Bound{Min: center.Point(), Max: center.Point()}.Pad(thresholdDeg)
}

// FilterStoresWithinRange は範囲内の店舗のみを抽出する
func FilterStoresWithinRange(center model.Coordinate, stores []model.Store, thresholdDeg float64) []model.Store {
	var filtered []model.Store
	for _, s := range stores {
		if IsWithinRange(center, s.Coordinate(), thresholdDeg) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// AnnotateDistances は各店舗に基準座標からの距離を設定したコピーを返す
func AnnotateDistances(origin model.Coordinate, stores []model.Store) []model.Store {
	result := make([]model.Store, 0, len(stores))
	for _, s := range stores {
		result = append(result, s.WithDistance(DistanceToStore(origin, s)))
	}
	return result
}

// SortStoresByDistance は距離の昇順で安定ソートする。距離のない店舗は末尾
func SortStoresByDistance(stores []model.Store) {
	sort.SliceStable(stores, func(i, j int) bool {
		di, dj := stores[i].Distance, stores[j].Distance
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return *di < *dj
	})
}

// FindStoreByID はIDで店舗を探す
func FindStoreByID(stores []model.Store, id string) (model.Store, bool) {
	for _, s := range stores {
		if s.ID == id {
			return s, true
		}
	}
	return model.Store{}, false
}
