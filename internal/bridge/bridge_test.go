package bridge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StoreMap-App/internal/domain/model"
)

// fakePage レンダーサーフェス側のテスト用実装
type fakePage struct {
	t  *testing.T
	tr Transport
}

func (p *fakePage) next() Command {
	p.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	raw, err := p.tr.Receive(ctx)
	require.NoError(p.t, err)
	cmd, err := DecodeCommand(raw)
	require.NoError(p.t, err)
	return cmd
}

func (p *fakePage) assertSilent(d time.Duration) {
	p.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	raw, err := p.tr.Receive(ctx)
	assert.ErrorIs(p.t, err, context.DeadlineExceeded, "unexpected message: %s", raw)
}

func (p *fakePage) emit(ev Event) {
	p.t.Helper()
	raw, err := EncodeEvent(ev)
	require.NoError(p.t, err)
	require.NoError(p.t, p.tr.Send(context.Background(), raw))
}

func startBridge(t *testing.T, opts Options) (*Bridge, *fakePage, chan error) {
	t.Helper()
	host, page := NewPipe()
	b := NewBridge(host, opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		b.Close()
	})
	return b, &fakePage{t: t, tr: page}, done
}

func nextEvent(t *testing.T, b *Bridge) Event {
	t.Helper()
	select {
	case ev, ok := <-b.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("イベントが届かない")
		return Event{}
	}
}

func TestBridge_QueueUntilReady(t *testing.T) {
	t.Run("ready 前のコマンドは ready 後に投入順で一度だけ送られる", func(t *testing.T) {
		b, page, _ := startBridge(t, Options{})
		ctx := context.Background()
		stores := []model.Store{{ID: "s1", Name: "역삼점", Latitude: 37.5, Longitude: 127.03}}

		require.NoError(t, b.Send(ctx, Init()))
		require.NoError(t, b.Send(ctx, AddStores(stores)))
		require.NoError(t, b.Send(ctx, HighlightStore("s1")))

		assert.Equal(t, CommandInit, page.next().Type)
		page.assertSilent(50 * time.Millisecond)
		assert.Equal(t, 2, b.Pending())

		page.emit(Event{Type: EventReady})
		first := page.next()
		assert.Equal(t, CommandAddStores, first.Type)
		require.Len(t, first.Stores, 1)
		assert.Equal(t, "s1", first.Stores[0].ID)
		assert.Equal(t, CommandHighlightStore, page.next().Type)
		assert.Equal(t, EventReady, nextEvent(t, b).Type)
		assert.Equal(t, 0, b.Pending())

		// 2回目の ready では再送しない
		page.emit(Event{Type: EventReady})
		assert.Equal(t, EventReady, nextEvent(t, b).Type)
		page.assertSilent(50 * time.Millisecond)

		require.NoError(t, b.Send(ctx, ClearMarkers()))
		assert.Equal(t, CommandClearMarkers, page.next().Type)
	})

	t.Run("即時コマンドはキューを経由しない", func(t *testing.T) {
		b, page, _ := startBridge(t, Options{})
		require.NoError(t, b.Send(context.Background(), ShowAlert(model.Alert{Title: "t", Message: "m"})))
		require.NoError(t, b.Send(context.Background(), NavigateBack()))

		alert := page.next()
		assert.Equal(t, CommandAlert, alert.Type)
		assert.Equal(t, "m", alert.Alert.Message)
		assert.Equal(t, CommandNavigateBack, page.next().Type)
		assert.Equal(t, 0, b.Pending())
	})
}

func TestBridge_Readiness(t *testing.T) {
	t.Run("mapReady でラッチされる", func(t *testing.T) {
		b, page, _ := startBridge(t, Options{})
		page.emit(Event{Type: EventReady})
		page.emit(Event{Type: EventMapReady})
		assert.Equal(t, EventReady, nextEvent(t, b).Type)
		assert.Equal(t, EventMapReady, nextEvent(t, b).Type)
		assert.True(t, b.Readiness().RendererLoaded())
		assert.True(t, b.Readiness().MapReady())
	})

	t.Run("ready が来なければウォッチドッグが読み込み失敗を通知する", func(t *testing.T) {
		b, _, _ := startBridge(t, Options{LoadTimeout: 30 * time.Millisecond})
		ev := nextEvent(t, b)
		assert.Equal(t, EventKakaoLoadError, ev.Type)
		assert.Equal(t, LoadTimeoutReason, ev.Reason)
		assert.False(t, b.Readiness().RendererLoaded())
	})

	t.Run("ready 後はウォッチドッグが発火しない", func(t *testing.T) {
		b, page, _ := startBridge(t, Options{LoadTimeout: 30 * time.Millisecond})
		page.emit(Event{Type: EventReady})
		assert.Equal(t, EventReady, nextEvent(t, b).Type)
		select {
		case ev := <-b.Events():
			t.Fatalf("unexpected event: %s", ev.Type)
		case <-time.After(100 * time.Millisecond):
		}
	})
}

func TestBridge_Request(t *testing.T) {
	t.Run("requestId で応答を対応付ける", func(t *testing.T) {
		b, page, _ := startBridge(t, Options{})
		src := NewPositionSource(b)

		go func() {
			cmd := page.next()
			assert.Equal(t, CommandRequestPermission, cmd.Type)
			assert.NotEmpty(t, cmd.RequestID)
			page.emit(Event{Type: EventPermission, RequestID: "other", Status: model.PermissionDenied})
			page.emit(Event{Type: EventPermission, RequestID: cmd.RequestID, Status: model.PermissionGranted})
		}()

		status, err := src.RequestPermission(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.PermissionGranted, status)
	})

	t.Run("最新位置の取得", func(t *testing.T) {
		b, page, _ := startBridge(t, Options{})
		src := NewPositionSource(b)

		go func() {
			cmd := page.next()
			assert.True(t, cmd.Fresh)
			page.emit(Event{Type: EventPosition, RequestID: cmd.RequestID, Latitude: 37.51, Longitude: 127.04})
		}()

		pos, err := src.CurrentPosition(context.Background())
		require.NoError(t, err)
		require.NotNil(t, pos)
		assert.Equal(t, 37.51, pos.Latitude)
		assert.Equal(t, 127.04, pos.Longitude)
	})

	t.Run("キャッシュ位置が無ければ nil", func(t *testing.T) {
		b, page, _ := startBridge(t, Options{})
		src := NewPositionSource(b)

		go func() {
			cmd := page.next()
			assert.False(t, cmd.Fresh)
			page.emit(Event{Type: EventPositionError, RequestID: cmd.RequestID, Code: positionTimeout})
		}()

		pos, err := src.LastKnownPosition(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, pos)
	})

	t.Run("応答が無ければ ctx で打ち切る", func(t *testing.T) {
		b, _, _ := startBridge(t, Options{})
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		_, err := NewPositionSource(b).CurrentPosition(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("即時コマンド以外は使えない", func(t *testing.T) {
		b, _, _ := startBridge(t, Options{})
		_, err := b.Request(context.Background(), ClearMarkers())
		assert.Error(t, err)
	})
}

// brokenSendTransport broken が立つと送信に失敗するトランスポート
type brokenSendTransport struct {
	Transport
	broken atomic.Bool
}

func (tr *brokenSendTransport) Send(ctx context.Context, msg []byte) error {
	if tr.broken.Load() {
		return errors.New("write: broken pipe")
	}
	return tr.Transport.Send(ctx, msg)
}

func TestBridge_Run(t *testing.T) {
	t.Run("切断で ErrClosed を返しイベントを閉じる", func(t *testing.T) {
		b, page, done := startBridge(t, Options{})
		require.NoError(t, page.tr.Close())

		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrClosed)
		case <-time.After(time.Second):
			t.Fatal("Run が終了しない")
		}
		_, ok := <-b.Events()
		assert.False(t, ok)
	})

	t.Run("待機コマンドの送信に失敗したらセッションを終了する", func(t *testing.T) {
		host, pageEnd := NewPipe()
		tr := &brokenSendTransport{Transport: host}
		b := NewBridge(tr, Options{})
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(func() {
			cancel()
			b.Close()
		})
		done := make(chan error, 1)
		go func() { done <- b.Run(ctx) }()

		require.NoError(t, b.Send(ctx, ClearMarkers()))
		require.NoError(t, b.Send(ctx, HighlightStore("s1")))
		tr.broken.Store(true)

		page := &fakePage{t: t, tr: pageEnd}
		page.emit(Event{Type: EventReady})

		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrDrainFailed)
		case <-time.After(time.Second):
			t.Fatal("Run が終了しない")
		}
		_, ok := <-b.Events()
		assert.False(t, ok, "ready は通知されない")
	})

	t.Run("不正なメッセージは無視して継続する", func(t *testing.T) {
		b, page, _ := startBridge(t, Options{})
		require.NoError(t, page.tr.Send(context.Background(), []byte(`{"type":"bogus"}`)))
		require.NoError(t, page.tr.Send(context.Background(), []byte(`not json`)))
		page.emit(Event{Type: EventMapClicked, Latitude: 37.5, Longitude: 127.03})

		ev := nextEvent(t, b)
		assert.Equal(t, EventMapClicked, ev.Type)
		assert.Equal(t, model.Coordinate{Latitude: 37.5, Longitude: 127.03}, ev.Coordinate())
	})
}
