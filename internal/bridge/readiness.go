package bridge

import (
	"context"
	"sync"
)

// Readiness レンダラーの2段階の準備状態。一度立ったら画面の寿命の間は戻らない
type Readiness struct {
	mu             sync.Mutex
	rendererLoaded bool
	mapReady       bool
	loadedCh       chan struct{}
	mapReadyCh     chan struct{}
}

// NewReadiness 新しいReadinessを作成
func NewReadiness() *Readiness {
	return &Readiness{
		loadedCh:   make(chan struct{}),
		mapReadyCh: make(chan struct{}),
	}
}

// MarkRendererLoaded ready を受信した。初回のみ true を返す
func (r *Readiness) MarkRendererLoaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rendererLoaded {
		return false
	}
	r.rendererLoaded = true
	close(r.loadedCh)
	return true
}

// MarkMapReady mapReady を受信した。初回のみ true を返す
func (r *Readiness) MarkMapReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mapReady {
		return false
	}
	r.mapReady = true
	close(r.mapReadyCh)
	return true
}

func (r *Readiness) RendererLoaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rendererLoaded
}

func (r *Readiness) MapReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mapReady
}

// Loaded ready 受信時に閉じられるチャネル
func (r *Readiness) Loaded() <-chan struct{} {
	return r.loadedCh
}

// WaitRendererLoaded ready を受信するまで待つ
func (r *Readiness) WaitRendererLoaded(ctx context.Context) error {
	select {
	case <-r.loadedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitMapReady mapReady を受信するまで待つ
func (r *Readiness) WaitMapReady(ctx context.Context) error {
	select {
	case <-r.mapReadyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
