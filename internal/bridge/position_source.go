package bridge

import (
	"context"
	"fmt"

	"StoreMap-App/internal/domain/model"
)

// Geolocation API の PositionError.code
const (
	positionPermissionDenied = 1
	positionUnavailable      = 2
	positionTimeout          = 3
)

// PositionSource レンダーサーフェス（ブラウザのGeolocation API）から端末位置を取得する
type PositionSource struct {
	bridge *Bridge
}

// NewPositionSource 新しいPositionSourceを作成
func NewPositionSource(b *Bridge) *PositionSource {
	return &PositionSource{bridge: b}
}

func (s *PositionSource) RequestPermission(ctx context.Context) (model.PermissionStatus, error) {
	ev, err := s.bridge.Request(ctx, Command{Type: CommandRequestPermission})
	if err != nil {
		return model.PermissionDenied, err
	}
	if ev.Status == model.PermissionGranted {
		return model.PermissionGranted, nil
	}
	return model.PermissionDenied, nil
}

// LastKnownPosition キャッシュ済みの位置のみ返す。無ければ nil
func (s *PositionSource) LastKnownPosition(ctx context.Context) (*model.Coordinate, error) {
	return s.position(ctx, false)
}

func (s *PositionSource) CurrentPosition(ctx context.Context) (*model.Coordinate, error) {
	return s.position(ctx, true)
}

func (s *PositionSource) position(ctx context.Context, fresh bool) (*model.Coordinate, error) {
	ev, err := s.bridge.Request(ctx, Command{Type: CommandRequestPosition, Fresh: fresh})
	if err != nil {
		return nil, err
	}
	switch ev.Type {
	case EventPosition:
		c := ev.Coordinate()
		return &c, nil
	case EventPositionError:
		if !fresh && (ev.Code == positionTimeout || ev.Code == positionUnavailable) {
			return nil, nil
		}
		return nil, fmt.Errorf("位置情報の取得失敗 (code=%d): %s", ev.Code, ev.Message)
	}
	return nil, fmt.Errorf("unexpected response: %s", ev.Type)
}
