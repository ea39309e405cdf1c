package service

import (
	"context"
	"log"
	"sync"
	"time"

	"StoreMap-App/internal/domain/helper"
	"StoreMap-App/internal/domain/model"
)

// DefaultLocationTimeout 現在地取得のタイムアウト
const DefaultLocationTimeout = 5 * time.Second

// PositionSource 端末の位置情報を取得する手段
type PositionSource interface {
	RequestPermission(ctx context.Context) (model.PermissionStatus, error)
	// キャッシュされた最終位置。存在しない場合は nil
	LastKnownPosition(ctx context.Context) (*model.Coordinate, error)
	CurrentPosition(ctx context.Context) (*model.Coordinate, error)
}

// LocationProvider は権限確認と最終位置/現在位置のフォールバックで端末位置を解決する
type LocationProvider struct {
	source  PositionSource
	timeout time.Duration

	mu    sync.Mutex
	state model.LocationState
}

// NewLocationProvider 新しいLocationProviderを作成。timeout が0以下ならデフォルト値
func NewLocationProvider(source PositionSource, timeout time.Duration) *LocationProvider {
	if timeout <= 0 {
		timeout = DefaultLocationTimeout
	}
	return &LocationProvider{
		source:  source,
		timeout: timeout,
		state:   model.LocationUnrequested,
	}
}

// State 現在の状態を返す
func (p *LocationProvider) State() model.LocationState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *LocationProvider) setState(s model.LocationState) {
	p.mu.Lock()
	prev := p.state
	p.state = s
	p.mu.Unlock()
	if prev != s {
		log.Printf("📡 位置情報の状態: %s → %s", model.GetLocationStateJapaneseName(prev), model.GetLocationStateJapaneseName(s))
	}
}

// Resolve は端末位置を解決する。権限拒否・タイムアウト・エラー時は nil。
// 権限確認から現在位置の取得までが一つの期限を共有するため、どの経路でも timeout 程度で必ず戻る
func (p *LocationProvider) Resolve(ctx context.Context) *model.Coordinate {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.setState(model.LocationPermissionRequested)

	status := helper.ResolveWithin(ctx, p.timeout, model.PermissionDenied, p.source.RequestPermission)
	if status != model.PermissionGranted {
		p.setState(model.LocationDenied)
		log.Printf("🚫 位置情報の権限: %s", model.GetPermissionJapaneseName(status))
		return nil
	}
	p.setState(model.LocationGranted)

	// 1. キャッシュされた最終位置（高速パス）
	if last := helper.ResolveWithin(ctx, p.timeout, (*model.Coordinate)(nil), p.source.LastKnownPosition); last != nil {
		log.Printf("📍 最終位置を使用: (%.6f, %.6f)", last.Latitude, last.Longitude)
		return last
	}

	// 2. 新しい位置をタイムアウト付きで取得
	start := time.Now()
	current := helper.ResolveWithin(ctx, p.timeout, (*model.Coordinate)(nil), p.source.CurrentPosition)
	if current == nil {
		log.Printf("⏱️  現在地の取得に失敗またはタイムアウト (%v)", time.Since(start))
		return nil
	}
	log.Printf("📍 現在地を取得: (%.6f, %.6f)", current.Latitude, current.Longitude)
	return current
}

// StaticPositionSource 固定の応答を返すPositionSource。
// Position が nil なら位置なし、Permission が空なら許可とみなす
type StaticPositionSource struct {
	Permission model.PermissionStatus
	Position   *model.Coordinate
}

func (s StaticPositionSource) RequestPermission(ctx context.Context) (model.PermissionStatus, error) {
	if s.Permission == "" {
		return model.PermissionGranted, nil
	}
	return s.Permission, nil
}

func (s StaticPositionSource) LastKnownPosition(ctx context.Context) (*model.Coordinate, error) {
	return s.Position, nil
}

func (s StaticPositionSource) CurrentPosition(ctx context.Context) (*model.Coordinate, error) {
	return s.Position, nil
}
