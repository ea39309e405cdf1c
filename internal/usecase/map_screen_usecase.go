package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"StoreMap-App/internal/bridge"
	"StoreMap-App/internal/domain/helper"
	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/service"
	"StoreMap-App/internal/infrastructure/metrics"
	"StoreMap-App/internal/panel"
)

var (
	// ErrAddressNotFound 住所検索で候補が見つからなかった
	ErrAddressNotFound = errors.New("address not found")
	// ErrRendererFailed 地図の読み込みに失敗し画面を閉じた
	ErrRendererFailed = errors.New("map renderer failed to load")
	// ErrStoreNotFound 一覧に存在しない店舗が指定された
	ErrStoreNotFound = errors.New("store not found")
)

// DefaultSettleDelay 初回配置前に地図側のレイアウト完了を待つ時間
const DefaultSettleDelay = 500 * time.Millisecond

// DefaultLoadErrorAlert 地図の読み込み失敗時に表示するアラート
var DefaultLoadErrorAlert = model.Alert{
	Title:   "지도 로드 실패",
	Message: "지도를 불러오지 못했습니다. 이전 화면으로 돌아갑니다.",
}

// RendererBridge レンダーサーフェスとの通信経路
type RendererBridge interface {
	Run(ctx context.Context) error
	Send(ctx context.Context, cmd bridge.Command) error
	Events() <-chan bridge.Event
	Readiness() *bridge.Readiness
}

// LocationResolver 端末位置の解決。取得できなければ nil
type LocationResolver interface {
	Resolve(ctx context.Context) *model.Coordinate
}

// MapScreenConfig 地図画面セッションの設定
type MapScreenConfig struct {
	SessionID      string
	SearchAddress  string
	SettleDelay    time.Duration
	ZoomLevel      int
	RangeThreshold float64
	DefaultCenter  *model.Coordinate
	PanelDuration  time.Duration
	LoadErrorAlert *model.Alert
}

type MapScreenUseCase interface {
	// Run はセッションを開始し、切断・キャンセル・読み込み失敗の確認まで処理を続ける
	Run(ctx context.Context) error

	// State は現在の画面状態を返す
	State() model.ScreenState

	// Alerts はユーザーに表示するアラートを流す
	Alerts() <-chan model.Alert

	SearchAddress(ctx context.Context, text string) error
	Recenter(ctx context.Context) error
	SelectStoreFromList(ctx context.Context, storeID string) error
	ClosePanel(ctx context.Context, kind model.PanelKind) error
	OpenAddressSearch(ctx context.Context) error
	CloseAddressSearch(ctx context.Context) error

	// DragPanel / ReleasePanel / ExpandPanel はパネルのドラッグ操作
	DragPanel(kind model.PanelKind, delta float64)
	ReleasePanel(ctx context.Context, kind model.PanelKind) error
	ExpandPanel(ctx context.Context, kind model.PanelKind) error

	// NavigateBack は戻るボタン。前の画面へ戻りセッションを終える
	NavigateBack()

	// AcknowledgeAlert は読み込み失敗アラートの確認。画面を閉じる
	AcknowledgeAlert()
}

// mapScreenUseCaseImpl はMapScreenUseCaseの実装
type mapScreenUseCaseImpl struct {
	bridge    RendererBridge
	location  LocationResolver
	geocoding service.GeocodingService
	directory service.StoreDirectoryService
	panels    *panel.Machine
	cfg       MapScreenConfig

	mu            sync.Mutex
	ctx           context.Context
	locationReady bool
	userLocation  *model.Coordinate
	center        *model.Coordinate
	placed        bool
	fatal         bool
	stores        []model.Store

	// 一覧の反映とパネル遷移を含む区間を直列化する
	pipelineMu sync.Mutex

	queryGen atomic.Uint64
	clickGen atomic.Uint64

	placeOnce sync.Once
	ackOnce   sync.Once
	backOnce  sync.Once
	alerts    chan model.Alert
	ack       chan struct{}
	back      chan struct{}
	wg        sync.WaitGroup
}

// NewMapScreenUseCase は新しいMapScreenUseCaseインスタンスを作成
func NewMapScreenUseCase(
	b RendererBridge,
	location LocationResolver,
	geocoding service.GeocodingService,
	directory service.StoreDirectoryService,
	cfg MapScreenConfig,
) MapScreenUseCase {
	return newMapScreenUseCase(b, location, geocoding, directory, cfg)
}

func newMapScreenUseCase(
	b RendererBridge,
	location LocationResolver,
	geocoding service.GeocodingService,
	directory service.StoreDirectoryService,
	cfg MapScreenConfig,
) *mapScreenUseCaseImpl {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.ZoomLevel <= 0 {
		cfg.ZoomLevel = model.DefaultZoomLevel
	}
	if cfg.RangeThreshold <= 0 {
		cfg.RangeThreshold = model.DefaultRangeThreshold
	}
	if cfg.DefaultCenter == nil {
		c := model.DefaultCoordinate()
		cfg.DefaultCenter = &c
	}
	if cfg.PanelDuration == 0 {
		cfg.PanelDuration = panel.DefaultDuration
	}
	if cfg.LoadErrorAlert == nil {
		a := DefaultLoadErrorAlert
		cfg.LoadErrorAlert = &a
	}

	u := &mapScreenUseCaseImpl{
		bridge:    b,
		location:  location,
		geocoding: geocoding,
		directory: directory,
		cfg:       cfg,
		alerts:    make(chan model.Alert, 1),
		ack:       make(chan struct{}),
		back:      make(chan struct{}),
	}
	u.panels = panel.NewMachine(
		panel.WithDuration(cfg.PanelDuration),
		panel.WithOnChange(func(v model.PanelVisibility) {
			u.send(u.sessionContext(), bridge.PanelState(v))
		}),
	)
	return u
}

// Run はレンダラーの読み込みと位置情報の取得を並行に進め、両方が揃ったら初回配置を行う
func (u *mapScreenUseCaseImpl) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	u.mu.Lock()
	u.ctx = ctx
	u.mu.Unlock()

	log.Printf("🗺️  地図画面セッション開始: %s", u.cfg.SessionID)

	bridgeDone := make(chan error, 1)
	go func() { bridgeDone <- u.bridge.Run(ctx) }()

	defer func() {
		cancel()
		u.wg.Wait()
		u.panels.Shutdown()
		log.Printf("👋 地図画面セッション終了: %s", u.cfg.SessionID)
	}()

	if err := u.bridge.Send(ctx, bridge.Init()); err != nil {
		return fmt.Errorf("レンダラーの初期化に失敗: %w", err)
	}

	u.spawn(func() { u.resolveLocation(ctx) })

	events := u.bridge.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return <-bridgeDone
			}
			u.handleEvent(ctx, ev)
		case <-u.ack:
			u.send(ctx, bridge.NavigateBack())
			return ErrRendererFailed
		case <-u.back:
			log.Printf("🔙 戻るボタンで画面を閉じます: %s", u.cfg.SessionID)
			u.send(ctx, bridge.NavigateBack())
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (u *mapScreenUseCaseImpl) handleEvent(ctx context.Context, ev bridge.Event) {
	if u.isFatal() && !(ev.Type == bridge.EventUserAction && ev.Action == bridge.ActionAcknowledgeAlert) {
		return
	}

	switch ev.Type {
	case bridge.EventReady:
		center := *u.cfg.DefaultCenter
		if loc := u.currentUserLocation(); loc != nil {
			center = *loc
		}
		u.send(ctx, bridge.UserLocationWithZoom(center, u.cfg.ZoomLevel))
	case bridge.EventMapReady:
		u.tryFirstPlacement(ctx)
	case bridge.EventMapClicked:
		coord := ev.Coordinate()
		u.spawn(func() { u.handleMapClick(ctx, coord) })
	case bridge.EventStoreSelected:
		store := *ev.Store
		u.spawn(func() { u.logErr("店舗選択", u.selectStore(ctx, store)) })
	case bridge.EventKakaoLoadError:
		u.handleLoadError(ctx, ev.Reason)
	case bridge.EventUserAction:
		u.handleUserAction(ctx, ev)
	}
}

func (u *mapScreenUseCaseImpl) handleUserAction(ctx context.Context, ev bridge.Event) {
	switch ev.Action {
	case bridge.ActionRecenter:
		u.spawn(func() { u.logErr("現在地へ移動", u.Recenter(ctx)) })
	case bridge.ActionSearchAddress:
		query := ev.Query
		u.spawn(func() {
			err := u.SearchAddress(ctx, query)
			if errors.Is(err, ErrAddressNotFound) && strings.TrimSpace(query) != "" {
				u.send(ctx, bridge.ShowAlert(model.Alert{Title: "주소 검색", Message: model.AddressNotFound}))
				return
			}
			u.logErr("住所検索", err)
		})
	case bridge.ActionSelectStore:
		id := ev.StoreID
		u.spawn(func() { u.logErr("一覧から店舗選択", u.SelectStoreFromList(ctx, id)) })
	case bridge.ActionClosePanel:
		kind, ok := model.ParsePanelKind(ev.Panel)
		u.spawn(func() {
			if !ok {
				u.logErr("パネルを閉じる", u.panels.CloseAll(ctx, model.AllPrimaryPanels))
				return
			}
			u.logErr("パネルを閉じる", u.ClosePanel(ctx, kind))
		})
	case bridge.ActionOpenAddressSearch:
		u.spawn(func() { u.logErr("住所検索を開く", u.OpenAddressSearch(ctx)) })
	case bridge.ActionCloseAddressSearch:
		u.spawn(func() { u.logErr("住所検索を閉じる", u.CloseAddressSearch(ctx)) })
	case bridge.ActionAcknowledgeAlert:
		u.AcknowledgeAlert()
	case bridge.ActionNavigateBack:
		u.NavigateBack()
	case bridge.ActionDragPanel, bridge.ActionReleasePanel, bridge.ActionExpandPanel:
		kind, ok := model.ParsePanelKind(ev.Panel)
		if !ok {
			log.Printf("⚠️  不明なパネル: %q (%s)", ev.Panel, ev.Action)
			return
		}
		switch ev.Action {
		case bridge.ActionDragPanel:
			u.DragPanel(kind, ev.Delta)
		case bridge.ActionReleasePanel:
			u.spawn(func() { u.logErr("パネルのドラッグ終了", u.ReleasePanel(ctx, kind)) })
		case bridge.ActionExpandPanel:
			u.spawn(func() { u.logErr("パネルの拡大", u.ExpandPanel(ctx, kind)) })
		}
	default:
		log.Printf("⚠️  不明なユーザー操作: %q", ev.Action)
	}
}

func (u *mapScreenUseCaseImpl) resolveLocation(ctx context.Context) {
	coord := u.location.Resolve(ctx)

	u.mu.Lock()
	u.locationReady = true
	u.userLocation = coord
	u.mu.Unlock()

	if coord != nil {
		u.send(ctx, bridge.UserLocation(*coord))
	}
	u.tryFirstPlacement(ctx)
}

// tryFirstPlacement 位置情報と地図の両方が準備できていれば一度だけ初回配置を行う
func (u *mapScreenUseCaseImpl) tryFirstPlacement(ctx context.Context) {
	u.mu.Lock()
	ready := u.locationReady && !u.fatal
	u.mu.Unlock()
	if !ready || !u.bridge.Readiness().MapReady() {
		return
	}
	u.placeOnce.Do(func() {
		u.spawn(func() { u.firstPlacement(ctx) })
	})
}

func (u *mapScreenUseCaseImpl) firstPlacement(ctx context.Context) {
	if err := helper.Sleep(ctx, u.cfg.SettleDelay); err != nil {
		return
	}

	center := u.entryCenter(ctx)
	log.Printf("📍 初回配置: (%.6f, %.6f)", center.Latitude, center.Longitude)
	u.navigate(ctx, center)

	u.mu.Lock()
	u.placed = true
	u.mu.Unlock()

	u.logErr("初回の店舗検索", u.refreshStores(ctx, center))
}

// entryCenter 初回配置の座標。指定住所、端末位置、既定座標の順に使う
func (u *mapScreenUseCaseImpl) entryCenter(ctx context.Context) model.Coordinate {
	if addr := strings.TrimSpace(u.cfg.SearchAddress); addr != "" {
		if result := u.geocoding.GeocodeAddress(ctx, addr); result != nil {
			return result.Coordinate
		}
		log.Printf("⚠️  指定住所が見つからないため現在地を使用: %s", addr)
	}
	if loc := u.currentUserLocation(); loc != nil {
		return *loc
	}
	return *u.cfg.DefaultCenter
}

// refreshStores 周辺店舗を取得して地図と一覧に反映する。
// 後から開始した検索がある場合、この結果は捨てる
func (u *mapScreenUseCaseImpl) refreshStores(ctx context.Context, center model.Coordinate) error {
	gen := u.queryGen.Add(1)
	stores := u.directory.FetchNearbyStores(ctx, center, u.cfg.RangeThreshold)

	u.pipelineMu.Lock()
	defer u.pipelineMu.Unlock()

	if gen != u.queryGen.Load() {
		metrics.StoreQueries.WithLabelValues("stale").Inc()
		log.Printf("🗑️  古い店舗検索結果を破棄 (gen=%d, current=%d)", gen, u.queryGen.Load())
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	u.mu.Lock()
	u.stores = stores
	u.mu.Unlock()

	log.Printf("🏪 周辺店舗: %d件", len(stores))
	u.send(ctx, bridge.AddStores(stores))
	return u.panels.OpenStoreList(ctx, stores)
}

func (u *mapScreenUseCaseImpl) handleMapClick(ctx context.Context, coord model.Coordinate) {
	gen := u.clickGen.Add(1)
	u.send(ctx, bridge.ShowClickMarker(coord))

	address := u.geocoding.ReverseGeocode(ctx, coord)
	if gen != u.clickGen.Load() {
		return
	}

	loc := model.ClickedLocation{Latitude: coord.Latitude, Longitude: coord.Longitude, Address: &address}
	u.pipelineMu.Lock()
	defer u.pipelineMu.Unlock()
	u.logErr("タップ地点パネル", u.panels.OpenClickedLocation(ctx, loc))
}

func (u *mapScreenUseCaseImpl) selectStore(ctx context.Context, store model.Store) error {
	// 処理中の地図タップより店舗選択を優先する
	u.clickGen.Add(1)

	u.pipelineMu.Lock()
	defer u.pipelineMu.Unlock()

	u.send(ctx, bridge.HighlightStore(store.ID))
	return u.panels.OpenStoreDetail(ctx, store)
}

// SearchAddress は住所を検索し、見つかった地点の周辺店舗を表示する。
// 見つからない場合は表示を変えずに ErrAddressNotFound を返す。空の入力は住所検索を閉じるだけ
func (u *mapScreenUseCaseImpl) SearchAddress(ctx context.Context, text string) error {
	query := strings.TrimSpace(text)
	if query == "" {
		if err := u.panels.CloseAddressSearch(ctx); err != nil {
			return fmt.Errorf("住所検索のクローズに失敗: %w", err)
		}
		return ErrAddressNotFound
	}
	log.Printf("🔍 住所検索: %s", query)

	if err := u.panels.CloseAll(ctx, model.AllPanels); err != nil {
		return fmt.Errorf("パネルのクローズに失敗: %w", err)
	}

	result := u.geocoding.GeocodeAddress(ctx, query)
	if result == nil {
		return fmt.Errorf("%w: %s", ErrAddressNotFound, query)
	}

	u.navigate(ctx, result.Coordinate)
	return u.refreshStores(ctx, result.Coordinate)
}

// Recenter は端末位置へ戻り、周辺店舗を再検索する
func (u *mapScreenUseCaseImpl) Recenter(ctx context.Context) error {
	if err := u.panels.CloseAll(ctx, model.AllPrimaryPanels); err != nil {
		return fmt.Errorf("パネルのクローズに失敗: %w", err)
	}

	loc := u.currentUserLocation()
	if loc == nil {
		if loc = u.location.Resolve(ctx); loc != nil {
			u.mu.Lock()
			u.userLocation = loc
			u.mu.Unlock()
		}
	}

	center := *u.cfg.DefaultCenter
	if loc != nil {
		center = *loc
		u.send(ctx, bridge.UserLocation(center))
	}
	u.navigate(ctx, center)
	return u.refreshStores(ctx, center)
}

// SelectStoreFromList は一覧の店舗を選択して詳細を開く
func (u *mapScreenUseCaseImpl) SelectStoreFromList(ctx context.Context, storeID string) error {
	u.mu.Lock()
	store, ok := helper.FindStoreByID(u.stores, storeID)
	u.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrStoreNotFound, storeID)
	}

	u.send(ctx, bridge.MapNavigation(store.Coordinate(), u.cfg.ZoomLevel))
	return u.selectStore(ctx, store)
}

func (u *mapScreenUseCaseImpl) ClosePanel(ctx context.Context, kind model.PanelKind) error {
	return u.panels.Close(ctx, kind)
}

func (u *mapScreenUseCaseImpl) OpenAddressSearch(ctx context.Context) error {
	return u.panels.OpenAddressSearch(ctx)
}

func (u *mapScreenUseCaseImpl) CloseAddressSearch(ctx context.Context) error {
	return u.panels.CloseAddressSearch(ctx)
}

func (u *mapScreenUseCaseImpl) DragPanel(kind model.PanelKind, delta float64) {
	u.panels.Drag(kind, delta)
}

func (u *mapScreenUseCaseImpl) ReleasePanel(ctx context.Context, kind model.PanelKind) error {
	return u.panels.Release(ctx, kind)
}

func (u *mapScreenUseCaseImpl) ExpandPanel(ctx context.Context, kind model.PanelKind) error {
	return u.panels.Expand(ctx, kind)
}

func (u *mapScreenUseCaseImpl) NavigateBack() {
	u.backOnce.Do(func() { close(u.back) })
}

func (u *mapScreenUseCaseImpl) handleLoadError(ctx context.Context, reason string) {
	u.mu.Lock()
	if u.fatal {
		u.mu.Unlock()
		return
	}
	u.fatal = true
	u.mu.Unlock()

	log.Printf("❌ 地図の読み込みに失敗しました: %s", reason)
	alert := *u.cfg.LoadErrorAlert
	select {
	case u.alerts <- alert:
	default:
	}
	u.send(ctx, bridge.ShowAlert(alert))
}

func (u *mapScreenUseCaseImpl) AcknowledgeAlert() {
	if !u.isFatal() {
		return
	}
	u.ackOnce.Do(func() { close(u.ack) })
}

func (u *mapScreenUseCaseImpl) Alerts() <-chan model.Alert {
	return u.alerts
}

func (u *mapScreenUseCaseImpl) State() model.ScreenState {
	u.mu.Lock()
	state := model.ScreenState{
		SessionID:     u.cfg.SessionID,
		LocationReady: u.locationReady,
		Placed:        u.placed,
		Fatal:         u.fatal,
	}
	if u.userLocation != nil {
		c := *u.userLocation
		state.UserLocation = &c
	}
	if u.center != nil {
		c := *u.center
		state.Center = &c
	}
	u.mu.Unlock()

	readiness := u.bridge.Readiness()
	state.RendererLoaded = readiness.RendererLoaded()
	state.MapReady = readiness.MapReady()
	state.Panels = u.panels.Snapshot()
	return state
}

func (u *mapScreenUseCaseImpl) navigate(ctx context.Context, center model.Coordinate) {
	u.mu.Lock()
	u.center = &center
	u.mu.Unlock()
	u.send(ctx, bridge.MapNavigation(center, u.cfg.ZoomLevel))
}

func (u *mapScreenUseCaseImpl) send(ctx context.Context, cmd bridge.Command) {
	if err := u.bridge.Send(ctx, cmd); err != nil {
		log.Printf("⚠️  コマンド送信失敗 (%s): %v", cmd.Type, err)
	}
}

func (u *mapScreenUseCaseImpl) spawn(fn func()) {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		fn()
	}()
}

func (u *mapScreenUseCaseImpl) currentUserLocation() *model.Coordinate {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.userLocation == nil {
		return nil
	}
	c := *u.userLocation
	return &c
}

func (u *mapScreenUseCaseImpl) isFatal() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.fatal
}

func (u *mapScreenUseCaseImpl) sessionContext() context.Context {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.ctx == nil {
		return context.Background()
	}
	return u.ctx
}

func (u *mapScreenUseCaseImpl) logErr(op string, err error) {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, panel.ErrInterrupted) {
		return
	}
	log.Printf("⚠️  %s に失敗: %v", op, err)
}
