package bridge

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// WebSocketTransport gorilla/websocket の接続をTransportとして扱う
type WebSocketTransport struct {
	conn     *websocket.Conn
	writeMu  sync.Mutex
	incoming chan []byte
	done     chan struct{}
	once     sync.Once
}

// NewWebSocketTransport 読み込みループとpingループを開始する
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	t := &WebSocketTransport{
		conn:     conn,
		incoming: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go t.readLoop()
	go t.pingLoop()
	return t
}

func (t *WebSocketTransport) readLoop() {
	defer close(t.incoming)
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️  WebSocket読み込みエラー: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		select {
		case t.incoming <- data:
		case <-t.done:
			return
		}
	}
}

func (t *WebSocketTransport) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.writeMu.Lock()
			t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := t.conn.WriteMessage(websocket.PingMessage, nil)
			t.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-t.done:
			return
		}
	}
}

func (t *WebSocketTransport) Send(ctx context.Context, msg []byte) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.conn.SetWriteDeadline(deadline)
	if err := t.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return ErrClosed
		}
		return err
	}
	return nil
}

func (t *WebSocketTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg, ok := <-t.incoming:
		if !ok {
			return nil, ErrClosed
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *WebSocketTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		t.writeMu.Lock()
		t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}
