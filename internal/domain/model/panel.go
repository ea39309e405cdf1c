package model

import "fmt"

// PanelKind 地図画面に重なるパネルの種類
type PanelKind int

const (
	PanelAddressSearch PanelKind = iota
	PanelClickedLocation
	PanelStoreDetail
	PanelStoreList
)

// PrimaryPanels 同時に一つしか開けない「主フォーカス」パネル
var PrimaryPanels = []PanelKind{PanelClickedLocation, PanelStoreDetail, PanelStoreList}

// IsPrimary 主フォーカスパネルかどうか
func (k PanelKind) IsPrimary() bool {
	return k == PanelClickedLocation || k == PanelStoreDetail || k == PanelStoreList
}

func (k PanelKind) String() string {
	switch k {
	case PanelAddressSearch:
		return "address_search"
	case PanelClickedLocation:
		return "clicked_location"
	case PanelStoreDetail:
		return "store_detail"
	case PanelStoreList:
		return "store_list"
	}
	return "unknown"
}

// AllPanelKinds すべてのパネル種別
var AllPanelKinds = []PanelKind{PanelAddressSearch, PanelClickedLocation, PanelStoreDetail, PanelStoreList}

// ParsePanelKind 名前からパネル種別を得る
func ParsePanelKind(name string) (PanelKind, bool) {
	for _, kind := range AllPanelKinds {
		if kind.String() == name {
			return kind, true
		}
	}
	return 0, false
}

// MarshalText JSON のキーや値を "store_list" のような名前にする
func (k PanelKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PanelKind) UnmarshalText(text []byte) error {
	kind, ok := ParsePanelKind(string(text))
	if !ok {
		return fmt.Errorf("unknown panel kind: %q", text)
	}
	*k = kind
	return nil
}

// PanelVisibility パネル表示状態のスナップショット
type PanelVisibility struct {
	AddressSearchOpen   bool                  `json:"address_search_open"`
	ClickedLocationOpen bool                  `json:"clicked_location_open"`
	StoreDetailOpen     bool                  `json:"store_detail_open"`
	StoreListOpen       bool                  `json:"store_list_open"`
	ClickedLocation     *ClickedLocation      `json:"clicked_location,omitempty"`
	SelectedStore       *Store                `json:"selected_store,omitempty"`
	Stores              []Store               `json:"stores,omitempty"`
	Offsets             map[PanelKind]float64 `json:"offsets"`
}

// IsOpen 指定パネルが開いているか
func (v PanelVisibility) IsOpen(kind PanelKind) bool {
	switch kind {
	case PanelAddressSearch:
		return v.AddressSearchOpen
	case PanelClickedLocation:
		return v.ClickedLocationOpen
	case PanelStoreDetail:
		return v.StoreDetailOpen
	case PanelStoreList:
		return v.StoreListOpen
	}
	return false
}

// OpenPrimaryCount 開いている主フォーカスパネルの数
func (v PanelVisibility) OpenPrimaryCount() int {
	n := 0
	for _, k := range PrimaryPanels {
		if v.IsOpen(k) {
			n++
		}
	}
	return n
}

// PanelSelector CloseAll で閉じるパネルの指定
type PanelSelector struct {
	AddressSearch   bool
	ClickedLocation bool
	StoreDetail     bool
	StoreList       bool
}

// AllPanels すべてのパネルを選択
var AllPanels = PanelSelector{AddressSearch: true, ClickedLocation: true, StoreDetail: true, StoreList: true}

// AllPrimaryPanels 主フォーカスパネルのみ選択
var AllPrimaryPanels = PanelSelector{ClickedLocation: true, StoreDetail: true, StoreList: true}

// Kinds 選択されているパネル種別を返す
func (s PanelSelector) Kinds() []PanelKind {
	var kinds []PanelKind
	if s.AddressSearch {
		kinds = append(kinds, PanelAddressSearch)
	}
	if s.ClickedLocation {
		kinds = append(kinds, PanelClickedLocation)
	}
	if s.StoreDetail {
		kinds = append(kinds, PanelStoreDetail)
	}
	if s.StoreList {
		kinds = append(kinds, PanelStoreList)
	}
	return kinds
}
