package model

import "github.com/paulmach/orb"

// デフォルトの地図設定
const (
	DefaultLatitude       = 37.4979
	DefaultLongitude      = 127.0276
	DefaultZoomLevel      = 3
	DefaultRangeThreshold = 0.05 // 度単位の近傍判定しきい値
)

// AddressNotFound は逆ジオコーディングで住所が得られなかった時に表示する文字列
const AddressNotFound = "주소를 찾을 수 없습니다"

// Coordinate 緯度経度を表す値型
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DefaultCoordinate 位置情報も検索住所もない場合の初期表示座標
func DefaultCoordinate() Coordinate {
	return Coordinate{Latitude: DefaultLatitude, Longitude: DefaultLongitude}
}

// Point orb.Point に変換する（[lon, lat] の順）
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// CoordinateFromPoint orb.Point から Coordinate を作成
func CoordinateFromPoint(p orb.Point) Coordinate {
	return Coordinate{Latitude: p.Lat(), Longitude: p.Lon()}
}

// GeocodeResult 住所検索の結果
type GeocodeResult struct {
	Coordinate
	Address string `json:"address"`
}

// ClickedLocation 地図上でタップされた地点
type ClickedLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   *string `json:"address,omitempty"`
}

// Coordinate タップ地点の座標を返す
func (c ClickedLocation) Coordinate() Coordinate {
	return Coordinate{Latitude: c.Latitude, Longitude: c.Longitude}
}

// GetAddress 住所が存在する場合は値を、存在しない場合は空文字列を返す
func (c ClickedLocation) GetAddress() string {
	if c.Address != nil {
		return *c.Address
	}
	return ""
}
