package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"StoreMap-App/internal/infrastructure/metrics"
)

// DefaultLoadTimeout ready を待つ上限。ページ側のSDKポーリング（100回×100ms）より長くとる
const DefaultLoadTimeout = 12 * time.Second

// LoadTimeoutReason ウォッチドッグによる読み込み失敗の理由
const LoadTimeoutReason = "timeout"

// ErrDrainFailed ready 後の待機コマンド送信に失敗した。セッションは続行できない
var ErrDrainFailed = errors.New("failed to deliver queued commands")

// Options Bridgeの設定
type Options struct {
	LoadTimeout time.Duration
	EventBuffer int
}

// Bridge ホストとレンダーサーフェス間のメッセージチャネル。
// 書き込みはコントローラーのみ、読み込みは Run のみが行う
type Bridge struct {
	transport Transport
	readiness *Readiness
	queue     *CommandQueue

	// ready 判定とキュー投入、ready 設定とキュー排出を排他にする
	sendMu sync.Mutex

	events chan Event

	pendingMu sync.Mutex
	pending   map[string]chan Event

	loadTimeout time.Duration
}

// NewBridge 新しいBridgeを作成
func NewBridge(transport Transport, opts Options) *Bridge {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	return &Bridge{
		transport:   transport,
		readiness:   NewReadiness(),
		queue:       NewCommandQueue(),
		events:      make(chan Event, opts.EventBuffer),
		pending:     make(map[string]chan Event),
		loadTimeout: opts.LoadTimeout,
	}
}

// Readiness 準備状態
func (b *Bridge) Readiness() *Readiness {
	return b.readiness
}

// Events レンダラーからのイベント（応答系を除く）を受信順に流す。Run 終了時に閉じられる
func (b *Bridge) Events() <-chan Event {
	return b.events
}

// Pending ready 待ちのコマンド数
func (b *Bridge) Pending() int {
	return b.queue.Len()
}

// Send コマンドを送る。ready 前の通常コマンドはキューに積み、ready 後に順に送る
func (b *Bridge) Send(ctx context.Context, cmd Command) error {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	if !cmd.Type.Immediate() && !b.readiness.RendererLoaded() {
		b.queue.Push(cmd)
		metrics.BridgeCommands.WithLabelValues(string(cmd.Type), "queued").Inc()
		return nil
	}
	return b.write(ctx, cmd, "direct")
}

func (b *Bridge) write(ctx context.Context, cmd Command, delivery string) error {
	raw, err := EncodeCommand(cmd)
	if err != nil {
		return err
	}
	if err := b.transport.Send(ctx, raw); err != nil {
		return fmt.Errorf("コマンド送信失敗 (%s): %w", cmd.Type, err)
	}
	metrics.BridgeCommands.WithLabelValues(string(cmd.Type), delivery).Inc()
	return nil
}

// Request requestId 付きの即時コマンドを送り、対応する応答イベントを待つ
func (b *Bridge) Request(ctx context.Context, cmd Command) (Event, error) {
	if !cmd.Type.Immediate() {
		return Event{}, fmt.Errorf("request: %s is not an immediate command", cmd.Type)
	}
	cmd.RequestID = uuid.New().String()
	reply := make(chan Event, 1)

	b.pendingMu.Lock()
	b.pending[cmd.RequestID] = reply
	b.pendingMu.Unlock()
	defer func() {
		b.pendingMu.Lock()
		delete(b.pending, cmd.RequestID)
		b.pendingMu.Unlock()
	}()

	if err := b.Send(ctx, cmd); err != nil {
		return Event{}, err
	}

	select {
	case ev := <-reply:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Run トランスポートからの受信ループ。ctx のキャンセルか切断で終了する
func (b *Bridge) Run(ctx context.Context) error {
	defer close(b.events)

	msgs := make(chan []byte)
	errs := make(chan error, 1)
	go func() {
		for {
			raw, err := b.transport.Receive(ctx)
			if err != nil {
				errs <- err
				return
			}
			select {
			case msgs <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	watchdog := time.NewTimer(b.loadTimeout)
	defer watchdog.Stop()
	watchdogC := watchdog.C

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
				return ErrClosed
			}
			return err
		case <-watchdogC:
			watchdogC = nil
			if !b.readiness.RendererLoaded() {
				log.Printf("⏱️  レンダラーの読み込みがタイムアウトしました (%v)", b.loadTimeout)
				b.emit(ctx, Event{Type: EventKakaoLoadError, Reason: LoadTimeoutReason})
			}
		case raw := <-msgs:
			if err := b.dispatch(ctx, raw); err != nil {
				if errors.Is(err, ErrDrainFailed) {
					log.Printf("❌ %v", err)
					return err
				}
				log.Printf("⚠️  ブリッジメッセージ処理エラー: %v", err)
			}
		}
	}
}

func (b *Bridge) dispatch(ctx context.Context, raw []byte) error {
	ev, err := DecodeEvent(raw)
	if err != nil {
		return err
	}
	metrics.BridgeEvents.WithLabelValues(string(ev.Type)).Inc()

	switch ev.Type {
	case EventReady:
		if err := b.markReadyAndDrain(ctx); err != nil {
			return err
		}
	case EventMapReady:
		b.readiness.MarkMapReady()
	case EventPermission, EventPosition, EventPositionError:
		b.resolvePending(ev)
		return nil
	case EventLog:
		log.Printf("🗺️  renderer: %s", ev.Message)
		return nil
	}

	b.emit(ctx, ev)
	return nil
}

// markReadyAndDrain ready を立て、キューのコマンドを投入順に一度だけ送る
func (b *Bridge) markReadyAndDrain(ctx context.Context) error {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	if !b.readiness.MarkRendererLoaded() {
		return nil
	}
	queued := b.queue.Drain()
	if len(queued) > 0 {
		log.Printf("📤 待機中のコマンドを送信: %d件", len(queued))
	}
	for i, cmd := range queued {
		if err := b.write(ctx, cmd, "drained"); err != nil {
			return fmt.Errorf("%w (%d/%d件目): %v", ErrDrainFailed, i+1, len(queued), err)
		}
	}
	return nil
}

func (b *Bridge) resolvePending(ev Event) {
	b.pendingMu.Lock()
	reply, ok := b.pending[ev.RequestID]
	b.pendingMu.Unlock()
	if !ok {
		log.Printf("⚠️  対応するリクエストがない応答: %s (%s)", ev.Type, ev.RequestID)
		return
	}
	select {
	case reply <- ev:
	default:
	}
}

func (b *Bridge) emit(ctx context.Context, ev Event) {
	select {
	case b.events <- ev:
	case <-ctx.Done():
	}
}

// Close トランスポートを閉じる
func (b *Bridge) Close() error {
	return b.transport.Close()
}
