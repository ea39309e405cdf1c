package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"StoreMap-App/internal/domain/model"
)

// ErrUnknownMessage 不明な type のメッセージ
var ErrUnknownMessage = errors.New("unknown bridge message")

// CommandType ホスト→レンダラーのコマンド種別
type CommandType string

const (
	CommandInit                 CommandType = "init"
	CommandUserLocation         CommandType = "userLocation"
	CommandUserLocationWithZoom CommandType = "userLocationWithZoom"
	CommandMapNavigation        CommandType = "mapNavigation"
	CommandAddStores            CommandType = "addStores"
	CommandClearMarkers         CommandType = "clearMarkers"
	CommandClearAllMarkers      CommandType = "clearAllMarkers"
	CommandHighlightStore       CommandType = "highlightStore"
	CommandShowClickMarker      CommandType = "showClickMarker"
	CommandRequestPermission    CommandType = "requestPermission"
	CommandRequestPosition      CommandType = "requestPosition"
	CommandPanelState           CommandType = "panelState"
	CommandAlert                CommandType = "alert"
	CommandNavigateBack         CommandType = "navigateBack"
)

// Immediate レンダラーの準備完了を待たずに送ってよいコマンドか。
// SDKが無くてもページ側で処理できるものに限る
func (t CommandType) Immediate() bool {
	switch t {
	case CommandInit, CommandRequestPermission, CommandRequestPosition, CommandAlert, CommandNavigateBack:
		return true
	}
	return false
}

// EventType レンダラー→ホストのイベント種別
type EventType string

const (
	EventReady          EventType = "ready"
	EventMapReady       EventType = "mapReady"
	EventStoreSelected  EventType = "storeSelected"
	EventMapClicked     EventType = "mapClicked"
	EventKakaoLoadError EventType = "kakaoLoadError"
	EventPermission     EventType = "permission"
	EventPosition       EventType = "position"
	EventPositionError  EventType = "positionError"
	EventUserAction     EventType = "userAction"
	EventLog            EventType = "log"
)

// UserAction ページ上のUI操作
type UserAction string

const (
	ActionRecenter           UserAction = "recenter"
	ActionSearchAddress      UserAction = "searchAddress"
	ActionSelectStore        UserAction = "selectStore"
	ActionClosePanel         UserAction = "closePanel"
	ActionOpenAddressSearch  UserAction = "openAddressSearch"
	ActionCloseAddressSearch UserAction = "closeAddressSearch"
	ActionAcknowledgeAlert   UserAction = "acknowledgeAlert"
	ActionNavigateBack       UserAction = "navigateBack"
	ActionDragPanel          UserAction = "dragPanel"
	ActionReleasePanel       UserAction = "releasePanel"
	ActionExpandPanel        UserAction = "expandPanel"
)

// Command ホストからレンダラーへ送るメッセージ
type Command struct {
	Type      CommandType
	Latitude  float64
	Longitude float64
	Zoom      int
	Stores    []model.Store
	StoreID   string
	RequestID string
	Fresh     bool
	Panels    *model.PanelVisibility
	Alert     *model.Alert
}

// Init 初期化コマンド
func Init() Command { return Command{Type: CommandInit} }

// UserLocation ユーザー位置マーカーを置く
func UserLocation(c model.Coordinate) Command {
	return Command{Type: CommandUserLocation, Latitude: c.Latitude, Longitude: c.Longitude}
}

// UserLocationWithZoom ユーザー位置マーカーを置きズームを設定する。完了時に mapReady が返る
func UserLocationWithZoom(c model.Coordinate, zoom int) Command {
	return Command{Type: CommandUserLocationWithZoom, Latitude: c.Latitude, Longitude: c.Longitude, Zoom: zoom}
}

// MapNavigation マーカーを作らずに表示位置だけ移動する
func MapNavigation(c model.Coordinate, zoom int) Command {
	return Command{Type: CommandMapNavigation, Latitude: c.Latitude, Longitude: c.Longitude, Zoom: zoom}
}

// AddStores 店舗マーカーをすべて置き換える
func AddStores(stores []model.Store) Command {
	copied := make([]model.Store, len(stores))
	copy(copied, stores)
	return Command{Type: CommandAddStores, Stores: copied}
}

// ClearMarkers 店舗マーカーのみ削除
func ClearMarkers() Command { return Command{Type: CommandClearMarkers} }

// ClearAllMarkers 店舗マーカーとタップ地点マーカーを削除
func ClearAllMarkers() Command { return Command{Type: CommandClearAllMarkers} }

// HighlightStore 指定店舗のマーカーを選択状態にする
func HighlightStore(storeID string) Command {
	return Command{Type: CommandHighlightStore, StoreID: storeID}
}

// ShowClickMarker タップ地点にマーカーを置く
func ShowClickMarker(c model.Coordinate) Command {
	return Command{Type: CommandShowClickMarker, Latitude: c.Latitude, Longitude: c.Longitude}
}

// PanelState パネル表示状態をページに通知する
func PanelState(v model.PanelVisibility) Command {
	return Command{Type: CommandPanelState, Panels: &v}
}

// ShowAlert アラートを表示する
func ShowAlert(a model.Alert) Command {
	return Command{Type: CommandAlert, Alert: &a}
}

// NavigateBack 画面を閉じて前の画面に戻る
func NavigateBack() Command { return Command{Type: CommandNavigateBack} }

// EncodeCommand コマンドをJSONにする。種別ごとに必要なフィールドのみ出力する
func EncodeCommand(cmd Command) ([]byte, error) {
	msg := map[string]interface{}{"type": cmd.Type}
	switch cmd.Type {
	case CommandInit, CommandClearMarkers, CommandClearAllMarkers, CommandNavigateBack:
	case CommandUserLocation, CommandShowClickMarker:
		msg["lat"] = cmd.Latitude
		msg["lon"] = cmd.Longitude
	case CommandUserLocationWithZoom, CommandMapNavigation:
		msg["lat"] = cmd.Latitude
		msg["lon"] = cmd.Longitude
		msg["zoom"] = cmd.Zoom
	case CommandAddStores:
		stores := cmd.Stores
		if stores == nil {
			stores = []model.Store{}
		}
		msg["stores"] = stores
	case CommandHighlightStore:
		msg["storeId"] = cmd.StoreID
	case CommandRequestPermission:
		msg["requestId"] = cmd.RequestID
	case CommandRequestPosition:
		msg["requestId"] = cmd.RequestID
		msg["fresh"] = cmd.Fresh
	case CommandPanelState:
		if cmd.Panels == nil {
			return nil, fmt.Errorf("panelState: panels is required")
		}
		msg["panels"] = panelStatePayload(*cmd.Panels)
	case CommandAlert:
		if cmd.Alert == nil {
			return nil, fmt.Errorf("alert: alert is required")
		}
		msg["title"] = cmd.Alert.Title
		msg["message"] = cmd.Alert.Message
	default:
		return nil, fmt.Errorf("%w: command %q", ErrUnknownMessage, cmd.Type)
	}
	return json.Marshal(msg)
}

func panelStatePayload(v model.PanelVisibility) map[string]interface{} {
	return map[string]interface{}{
		"addressSearch":   v.AddressSearchOpen,
		"clickedLocation": v.ClickedLocationOpen,
		"storeDetail":     v.StoreDetailOpen,
		"storeList":       v.StoreListOpen,
		"clicked":         v.ClickedLocation,
		"selectedStore":   v.SelectedStore,
		"stores":          v.Stores,
		"offsets":         v.Offsets,
	}
}

// Event レンダラーから受け取るメッセージ
type Event struct {
	Type      EventType
	Latitude  float64
	Longitude float64
	Store     *model.Store
	Reason    string
	RequestID string
	Status    model.PermissionStatus
	Code      int
	Message   string
	Action    UserAction
	Query     string
	StoreID   string
	Panel     string
	// dragPanel の移動量（px、下向きが正）
	Delta float64
}

// Coordinate イベントの座標
func (e Event) Coordinate() model.Coordinate {
	return model.Coordinate{Latitude: e.Latitude, Longitude: e.Longitude}
}

// DecodeEvent JSONをイベントにする。type を先に読み、種別ごとに必要なフィールドを検証する
func DecodeEvent(raw []byte) (Event, error) {
	if !gjson.ValidBytes(raw) {
		return Event{}, fmt.Errorf("invalid bridge message: %s", truncate(raw))
	}
	typ := gjson.GetBytes(raw, "type")
	if !typ.Exists() {
		return Event{}, fmt.Errorf("%w: missing type", ErrUnknownMessage)
	}

	ev := Event{Type: EventType(typ.String())}
	switch ev.Type {
	case EventReady, EventMapReady:
	case EventMapClicked:
		lat, lon := gjson.GetBytes(raw, "lat"), gjson.GetBytes(raw, "lon")
		if !lat.Exists() || !lon.Exists() {
			return Event{}, fmt.Errorf("mapClicked: lat/lon is required")
		}
		ev.Latitude, ev.Longitude = lat.Float(), lon.Float()
	case EventStoreSelected:
		store := gjson.GetBytes(raw, "store")
		if !store.IsObject() {
			return Event{}, fmt.Errorf("storeSelected: store is required")
		}
		var s model.Store
		if err := json.Unmarshal([]byte(store.Raw), &s); err != nil {
			return Event{}, fmt.Errorf("storeSelected: %w", err)
		}
		if s.ID == "" {
			return Event{}, fmt.Errorf("storeSelected: store.id is required")
		}
		ev.Store = &s
	case EventKakaoLoadError:
		ev.Reason = gjson.GetBytes(raw, "reason").String()
	case EventPermission:
		ev.RequestID = gjson.GetBytes(raw, "requestId").String()
		ev.Status = model.PermissionStatus(gjson.GetBytes(raw, "status").String())
	case EventPosition:
		ev.RequestID = gjson.GetBytes(raw, "requestId").String()
		ev.Latitude = gjson.GetBytes(raw, "lat").Float()
		ev.Longitude = gjson.GetBytes(raw, "lon").Float()
	case EventPositionError:
		ev.RequestID = gjson.GetBytes(raw, "requestId").String()
		ev.Code = int(gjson.GetBytes(raw, "code").Int())
		ev.Message = gjson.GetBytes(raw, "message").String()
	case EventUserAction:
		ev.Action = UserAction(gjson.GetBytes(raw, "action").String())
		ev.Query = gjson.GetBytes(raw, "query").String()
		ev.StoreID = gjson.GetBytes(raw, "storeId").String()
		ev.Panel = gjson.GetBytes(raw, "panel").String()
		ev.Delta = gjson.GetBytes(raw, "delta").Float()
	case EventLog:
		ev.Message = gjson.GetBytes(raw, "message").String()
	default:
		return Event{}, fmt.Errorf("%w: event %q", ErrUnknownMessage, ev.Type)
	}
	return ev, nil
}

// EncodeEvent イベントをJSONにする（レンダラー側の実装やテストで使用）
func EncodeEvent(ev Event) ([]byte, error) {
	msg := map[string]interface{}{"type": ev.Type}
	switch ev.Type {
	case EventReady, EventMapReady:
	case EventMapClicked:
		msg["lat"] = ev.Latitude
		msg["lon"] = ev.Longitude
	case EventStoreSelected:
		msg["store"] = ev.Store
	case EventKakaoLoadError:
		msg["reason"] = ev.Reason
	case EventPermission:
		msg["requestId"] = ev.RequestID
		msg["status"] = ev.Status
	case EventPosition:
		msg["requestId"] = ev.RequestID
		msg["lat"] = ev.Latitude
		msg["lon"] = ev.Longitude
	case EventPositionError:
		msg["requestId"] = ev.RequestID
		msg["code"] = ev.Code
		msg["message"] = ev.Message
	case EventUserAction:
		msg["action"] = ev.Action
		msg["query"] = ev.Query
		msg["storeId"] = ev.StoreID
		msg["panel"] = ev.Panel
		msg["delta"] = ev.Delta
	case EventLog:
		msg["message"] = ev.Message
	default:
		return nil, fmt.Errorf("%w: event %q", ErrUnknownMessage, ev.Type)
	}
	return json.Marshal(msg)
}

// DecodeCommand JSONをコマンドにする（レンダラー側の実装やテストで使用）
func DecodeCommand(raw []byte) (Command, error) {
	if !gjson.ValidBytes(raw) {
		return Command{}, fmt.Errorf("invalid bridge message: %s", truncate(raw))
	}
	cmd := Command{Type: CommandType(gjson.GetBytes(raw, "type").String())}
	switch cmd.Type {
	case CommandInit, CommandClearMarkers, CommandClearAllMarkers, CommandNavigateBack:
	case CommandUserLocation, CommandShowClickMarker, CommandUserLocationWithZoom, CommandMapNavigation:
		cmd.Latitude = gjson.GetBytes(raw, "lat").Float()
		cmd.Longitude = gjson.GetBytes(raw, "lon").Float()
		cmd.Zoom = int(gjson.GetBytes(raw, "zoom").Int())
	case CommandAddStores:
		cmd.Stores = []model.Store{}
		if stores := gjson.GetBytes(raw, "stores"); stores.IsArray() {
			if err := json.Unmarshal([]byte(stores.Raw), &cmd.Stores); err != nil {
				return Command{}, fmt.Errorf("addStores: %w", err)
			}
		}
	case CommandHighlightStore:
		cmd.StoreID = gjson.GetBytes(raw, "storeId").String()
	case CommandRequestPermission, CommandRequestPosition:
		cmd.RequestID = gjson.GetBytes(raw, "requestId").String()
		cmd.Fresh = gjson.GetBytes(raw, "fresh").Bool()
	case CommandPanelState:
		p := gjson.GetBytes(raw, "panels")
		cmd.Panels = &model.PanelVisibility{
			AddressSearchOpen:   p.Get("addressSearch").Bool(),
			ClickedLocationOpen: p.Get("clickedLocation").Bool(),
			StoreDetailOpen:     p.Get("storeDetail").Bool(),
			StoreListOpen:       p.Get("storeList").Bool(),
			Offsets:             make(map[model.PanelKind]float64),
		}
		p.Get("offsets").ForEach(func(key, value gjson.Result) bool {
			if kind, ok := model.ParsePanelKind(key.String()); ok {
				cmd.Panels.Offsets[kind] = value.Float()
			}
			return true
		})
	case CommandAlert:
		cmd.Alert = &model.Alert{
			Title:   gjson.GetBytes(raw, "title").String(),
			Message: gjson.GetBytes(raw, "message").String(),
		}
	default:
		return Command{}, fmt.Errorf("%w: command %q", ErrUnknownMessage, cmd.Type)
	}
	return cmd, nil
}

func truncate(raw []byte) string {
	const max = 120
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
