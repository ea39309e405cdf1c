package model

// LocationStateNameMap は位置情報の状態から日本語名へのマッピング
var LocationStateNameMap = map[LocationState]string{
	LocationUnrequested:         "未要求",
	LocationPermissionRequested: "権限確認中",
	LocationGranted:             "許可済み",
	LocationDenied:              "拒否",
}

// PermissionNameMap は権限状態から日本語名へのマッピング
var PermissionNameMap = map[PermissionStatus]string{
	PermissionGranted: "許可",
	PermissionDenied:  "拒否",
}

// GetLocationStateJapaneseName は状態から日本語名を取得する
func GetLocationStateJapaneseName(s LocationState) string {
	if name, ok := LocationStateNameMap[s]; ok {
		return name
	}
	return string(s) // デフォルトはそのまま返す
}

// GetPermissionJapaneseName は権限状態から日本語名を取得する
func GetPermissionJapaneseName(s PermissionStatus) string {
	if name, ok := PermissionNameMap[s]; ok {
		return name
	}
	return string(s)
}
