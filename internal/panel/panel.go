package panel

import (
	"context"
	"math"
	"sync"
	"time"

	"StoreMap-App/internal/domain/model"
)

// オフセットは画面下端からの移動量。0 が通常表示位置
const (
	OpenOffset            = 0.0
	DefaultClosedOffset   = 400.0
	DefaultExpandedOffset = -240.0
)

// Geometry パネルの移動範囲
type Geometry struct {
	Closed   float64
	Expanded float64
}

// DefaultGeometry 標準の移動範囲
var DefaultGeometry = Geometry{Closed: DefaultClosedOffset, Expanded: DefaultExpandedOffset}

// Panel 1枚のパネル。開閉フラグとオフセットを持つ
type Panel struct {
	kind     model.PanelKind
	geometry Geometry
	duration time.Duration
	anim     *Animator

	mu   sync.Mutex
	open bool
	// Open のたびに進む。閉じ完了時に後続の Open があれば閉じ扱いにしない
	opens uint64
}

// NewPanel 閉じた状態のパネルを作成
func NewPanel(kind model.PanelKind, geometry Geometry, duration time.Duration) *Panel {
	return &Panel{
		kind:     kind,
		geometry: geometry,
		duration: duration,
		anim:     NewAnimator(geometry.Closed),
	}
}

func (p *Panel) Kind() model.PanelKind {
	return p.kind
}

// IsOpen 開きアニメーション開始から閉じアニメーション完了までの間 true
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Offset 現在のオフセット
func (p *Panel) Offset() float64 {
	return p.anim.Current()
}

// Open 開く。閉じた位置から 0 まで動かす
func (p *Panel) Open(ctx context.Context) error {
	p.mu.Lock()
	p.open = true
	p.opens++
	p.mu.Unlock()
	return p.anim.AnimateTo(ctx, OpenOffset, p.duration)
}

// Close 閉じる。アニメーションが完了した時点で閉じた扱いになる
func (p *Panel) Close(ctx context.Context) error {
	p.mu.Lock()
	opens := p.opens
	p.mu.Unlock()

	if err := p.anim.AnimateTo(ctx, p.geometry.Closed, p.duration); err != nil {
		return err
	}

	p.mu.Lock()
	if p.opens == opens {
		p.open = false
	}
	p.mu.Unlock()
	return nil
}

// Expand 拡大位置まで動かす。閉じている場合は何もしない
func (p *Panel) Expand(ctx context.Context) error {
	if !p.IsOpen() {
		return nil
	}
	return p.anim.AnimateTo(ctx, p.geometry.Expanded, p.duration)
}

// DragBy ドラッグ量だけオフセットを動かす
func (p *Panel) DragBy(delta float64) {
	if !p.IsOpen() {
		return
	}
	next := p.anim.Current() + delta
	next = math.Max(p.geometry.Expanded, math.Min(p.geometry.Closed, next))
	p.anim.SetOffset(next)
}

// Release ドラッグ終了。拡大・通常・閉じのうち最も近い位置へ吸着する
func (p *Panel) Release(ctx context.Context) error {
	if !p.IsOpen() {
		return nil
	}
	current := p.anim.Current()
	target := OpenOffset
	for _, candidate := range []float64{p.geometry.Expanded, p.geometry.Closed} {
		if math.Abs(candidate-current) < math.Abs(target-current) {
			target = candidate
		}
	}
	if target == p.geometry.Closed {
		return p.Close(ctx)
	}
	return p.anim.AnimateTo(ctx, target, p.duration)
}

// Stop アニメーションを止める
func (p *Panel) Stop() {
	p.anim.Stop()
}
