package panel

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// FrameInterval アニメーションの1フレームの間隔（約60fps）
const FrameInterval = 16 * time.Millisecond

// ErrInterrupted 後から開始したアニメーションに置き換えられた
var ErrInterrupted = errors.New("animation interrupted")

// Animator 1つのスカラー値（パネルのオフセット）を時間で動かす。
// 現在値は毎フレーム更新され、ジェスチャー処理とアニメーションの両方から読まれる
type Animator struct {
	mu      sync.Mutex
	current float64
	gen     uint64
	cancel  context.CancelFunc
}

// NewAnimator 初期値を指定してAnimatorを作成
func NewAnimator(initial float64) *Animator {
	return &Animator{current: initial}
}

// Current 現在値
func (a *Animator) Current() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// SetOffset 実行中のアニメーションを止めて値を直接設定する（ドラッグ用）
func (a *Animator) SetOffset(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.current = v
}

// Stop 実行中のアニメーションを現在値で止める
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *Animator) stopLocked() {
	a.gen++
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// AnimateTo 現在値から target まで duration かけて ease-out で動かし、完了まで待つ。
// 別のアニメーションに置き換えられた場合は ErrInterrupted を返す
func (a *Animator) AnimateTo(ctx context.Context, target float64, duration time.Duration) error {
	animCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	a.stopLocked()
	gen := a.gen
	a.cancel = cancel
	from := a.current
	if duration <= 0 || from == target {
		a.current = target
		a.cancel = nil
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	start := time.Now()
	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-animCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrInterrupted
		case now := <-ticker.C:
			t := float64(now.Sub(start)) / float64(duration)
			done := t >= 1
			if done {
				t = 1
			}

			a.mu.Lock()
			if a.gen != gen {
				a.mu.Unlock()
				return ErrInterrupted
			}
			a.current = from + (target-from)*easeOutCubic(t)
			if done {
				a.current = target
				a.cancel = nil
			}
			a.mu.Unlock()

			if done {
				return nil
			}
		}
	}
}

func easeOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}
