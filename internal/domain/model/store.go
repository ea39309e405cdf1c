package model

// Store 地図上に表示する店舗
type Store struct {
	ID        string   `json:"id" db:"id"`
	Name      string   `json:"name" db:"name"`
	Address   string   `json:"address" db:"address"`
	Latitude  float64  `json:"latitude" db:"latitude"`
	Longitude float64  `json:"longitude" db:"longitude"`
	Phone     *string  `json:"phone,omitempty" db:"phone"`
	Distance  *float64 `json:"distance,omitempty" db:"-"` // 近傍検索時のみ設定される (km)
}

// Coordinate 店舗の位置を返す
func (s Store) Coordinate() Coordinate {
	return Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}

// WithDistance 距離を設定したコピーを返す。元の値は変更しない
func (s Store) WithDistance(km float64) Store {
	d := km
	s.Distance = &d
	return s
}

// GetPhone 電話番号が存在する場合は値を、存在しない場合は空文字列を返す
func (s Store) GetPhone() string {
	if s.Phone != nil {
		return *s.Phone
	}
	return ""
}

// HasDistance 距離が設定されているかチェック
func (s Store) HasDistance() bool {
	return s.Distance != nil
}

// NearbyStoresResponse 近隣店舗APIのレスポンス
type NearbyStoresResponse struct {
	Success bool    `json:"success"`
	Stores  []Store `json:"stores"`
	Message string  `json:"message,omitempty"`
}
