package model

// PermissionStatus 位置情報の権限状態
type PermissionStatus string

const (
	PermissionGranted PermissionStatus = "granted"
	PermissionDenied  PermissionStatus = "denied"
)

// LocationState 位置情報取得の状態遷移
type LocationState string

const (
	LocationUnrequested         LocationState = "unrequested"
	LocationPermissionRequested LocationState = "permission_requested"
	LocationGranted             LocationState = "granted"
	LocationDenied              LocationState = "denied"
)

// Alert ユーザーに表示するアラート
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ScreenState 地図画面セッションの状態スナップショット
type ScreenState struct {
	SessionID      string          `json:"session_id"`
	LocationReady  bool            `json:"location_ready"`
	RendererLoaded bool            `json:"renderer_loaded"`
	MapReady       bool            `json:"map_ready"`
	Placed         bool            `json:"placed"`
	UserLocation   *Coordinate     `json:"user_location,omitempty"`
	Center         *Coordinate     `json:"center,omitempty"`
	Fatal          bool            `json:"fatal"`
	Panels         PanelVisibility `json:"panels"`
}
