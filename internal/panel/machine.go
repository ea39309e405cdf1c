package panel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"StoreMap-App/internal/domain/model"
)

// DefaultDuration 開閉アニメーションの長さ
const DefaultDuration = 350 * time.Millisecond

// Option Machineの設定
type Option func(*Machine)

// WithDuration 開閉アニメーションの長さを指定する
func WithDuration(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.duration = d
		}
	}
}

// WithGeometry パネルの移動範囲を指定する
func WithGeometry(g Geometry) Option {
	return func(m *Machine) { m.geometry = g }
}

// WithOnChange 表示状態が変わるたびに呼ばれるコールバックを指定する
func WithOnChange(fn func(model.PanelVisibility)) Option {
	return func(m *Machine) { m.onChange = fn }
}

// Machine 地図画面のパネル群の状態機械。
// 主フォーカスパネル（タップ地点・店舗詳細・店舗一覧）は同時に1枚しか開かない
type Machine struct {
	duration time.Duration
	geometry Geometry
	onChange func(model.PanelVisibility)

	panels map[model.PanelKind]*Panel

	// 主フォーカスの遷移を直列化する
	focusMu sync.Mutex

	mu       sync.Mutex
	clicked  *model.ClickedLocation
	selected *model.Store
	stores   []model.Store
}

// NewMachine すべて閉じた状態のMachineを作成
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		duration: DefaultDuration,
		geometry: DefaultGeometry,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.panels = make(map[model.PanelKind]*Panel, 4)
	for _, kind := range model.AllPanelKinds {
		m.panels[kind] = NewPanel(kind, m.geometry, m.duration)
	}
	return m
}

// Drag ドラッグ中のオフセット更新。閉じているパネルは動かない
func (m *Machine) Drag(kind model.PanelKind, delta float64) {
	p, ok := m.panels[kind]
	if !ok || !p.IsOpen() {
		return
	}
	p.DragBy(delta)
	m.notify()
}

// Release ドラッグ終了。閉じ位置へ吸着した場合もパネルは閉じた扱いになる
func (m *Machine) Release(ctx context.Context, kind model.PanelKind) error {
	p, ok := m.panels[kind]
	if !ok {
		return fmt.Errorf("unknown panel: %s", kind)
	}
	if kind.IsPrimary() {
		m.focusMu.Lock()
		defer m.focusMu.Unlock()
	}
	return m.transition(ctx, p.Release)
}

// Expand 開いているパネルを拡大位置まで動かす
func (m *Machine) Expand(ctx context.Context, kind model.PanelKind) error {
	p, ok := m.panels[kind]
	if !ok {
		return fmt.Errorf("unknown panel: %s", kind)
	}
	return m.transition(ctx, p.Expand)
}

// OpenAddressSearch 住所検索モーダルを開く。主フォーカスとは独立
func (m *Machine) OpenAddressSearch(ctx context.Context) error {
	return m.transition(ctx, m.panels[model.PanelAddressSearch].Open)
}

// CloseAddressSearch 住所検索モーダルを閉じる
func (m *Machine) CloseAddressSearch(ctx context.Context) error {
	return m.transition(ctx, m.panels[model.PanelAddressSearch].Close)
}

// OpenClickedLocation タップ地点パネルを開く
func (m *Machine) OpenClickedLocation(ctx context.Context, loc model.ClickedLocation) error {
	return m.openPrimary(ctx, model.PanelClickedLocation, func() {
		m.clicked = &loc
	})
}

// OpenStoreDetail 店舗詳細パネルを開く
func (m *Machine) OpenStoreDetail(ctx context.Context, store model.Store) error {
	return m.openPrimary(ctx, model.PanelStoreDetail, func() {
		m.selected = &store
	})
}

// OpenStoreList 店舗一覧パネルを開く
func (m *Machine) OpenStoreList(ctx context.Context, stores []model.Store) error {
	copied := make([]model.Store, len(stores))
	copy(copied, stores)
	return m.openPrimary(ctx, model.PanelStoreList, func() {
		m.stores = copied
	})
}

// openPrimary 他の主フォーカスパネルを閉じ終えてから target を開く。
// すでに開いている場合は表示内容だけ差し替える
func (m *Machine) openPrimary(ctx context.Context, target model.PanelKind, setPayload func()) error {
	m.focusMu.Lock()
	defer m.focusMu.Unlock()

	m.mu.Lock()
	setPayload()
	m.mu.Unlock()

	panel := m.panels[target]
	if panel.IsOpen() {
		m.notify()
		return nil
	}

	var others []model.PanelKind
	for _, kind := range model.PrimaryPanels {
		if kind != target && m.panels[kind].IsOpen() {
			others = append(others, kind)
		}
	}
	if err := m.closeKinds(ctx, others); err != nil {
		return fmt.Errorf("%s を開く前のクローズに失敗: %w", target, err)
	}

	return m.transition(ctx, panel.Open)
}

// Close 指定パネルを閉じる
func (m *Machine) Close(ctx context.Context, kind model.PanelKind) error {
	if kind.IsPrimary() {
		m.focusMu.Lock()
		defer m.focusMu.Unlock()
	}
	return m.closeKinds(ctx, []model.PanelKind{kind})
}

// CloseAll 選択されたパネルを並行に閉じ、すべての完了を待つ
func (m *Machine) CloseAll(ctx context.Context, selector model.PanelSelector) error {
	m.focusMu.Lock()
	defer m.focusMu.Unlock()
	return m.closeKinds(ctx, selector.Kinds())
}

func (m *Machine) closeKinds(ctx context.Context, kinds []model.PanelKind) error {
	var open []*Panel
	for _, kind := range kinds {
		if p, ok := m.panels[kind]; ok && p.IsOpen() {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, len(open))
	for i, p := range open {
		wg.Add(1)
		go func(i int, p *Panel) {
			defer wg.Done()
			errs[i] = p.Close(ctx)
		}(i, p)
	}
	m.notify()
	wg.Wait()
	m.notify()

	return errors.Join(errs...)
}

func (m *Machine) transition(ctx context.Context, step func(context.Context) error) error {
	m.notify()
	err := step(ctx)
	m.notify()
	return err
}

// Snapshot 現在の表示状態。閉じているパネルの内容は含めない
func (m *Machine) Snapshot() model.PanelVisibility {
	v := model.PanelVisibility{
		AddressSearchOpen:   m.panels[model.PanelAddressSearch].IsOpen(),
		ClickedLocationOpen: m.panels[model.PanelClickedLocation].IsOpen(),
		StoreDetailOpen:     m.panels[model.PanelStoreDetail].IsOpen(),
		StoreListOpen:       m.panels[model.PanelStoreList].IsOpen(),
		Offsets:             make(map[model.PanelKind]float64, len(m.panels)),
	}
	for kind, p := range m.panels {
		v.Offsets[kind] = p.Offset()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ClickedLocationOpen && m.clicked != nil {
		c := *m.clicked
		v.ClickedLocation = &c
	}
	if v.StoreDetailOpen && m.selected != nil {
		s := *m.selected
		v.SelectedStore = &s
	}
	if v.StoreListOpen {
		v.Stores = make([]model.Store, len(m.stores))
		copy(v.Stores, m.stores)
	}
	return v
}

// Shutdown すべてのアニメーションを止める。画面破棄時に呼ぶ
func (m *Machine) Shutdown() {
	for _, p := range m.panels {
		p.Stop()
	}
	log.Printf("🧹 パネルのアニメーションを停止しました")
}

func (m *Machine) notify() {
	if m.onChange != nil {
		m.onChange(m.Snapshot())
	}
}
