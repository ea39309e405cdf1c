package bridge

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed トランスポートが閉じられた
var ErrClosed = errors.New("bridge transport closed")

// Transport ホストとレンダラー間でJSONメッセージをやりとりする経路
type Transport interface {
	Send(ctx context.Context, msg []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// pipeEnd インメモリの片側。送信はブロックしない
type pipeEnd struct {
	in   *mailbox
	out  *mailbox
	once sync.Once
}

// NewPipe 相互に接続されたインメモリのトランスポートを2つ返す
func NewPipe() (Transport, Transport) {
	a, b := newMailbox(), newMailbox()
	return &pipeEnd{in: a, out: b}, &pipeEnd{in: b, out: a}
}

func (p *pipeEnd) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	copied := make([]byte, len(msg))
	copy(copied, msg)
	return p.out.put(copied)
}

func (p *pipeEnd) Receive(ctx context.Context) ([]byte, error) {
	return p.in.take(ctx)
}

func (p *pipeEnd) Close() error {
	p.once.Do(func() {
		p.in.close()
		p.out.close()
	})
	return nil
}

// mailbox 上限なしのFIFO
type mailbox struct {
	mu     sync.Mutex
	items  [][]byte
	notify chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) put(msg []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.items = append(m.items, msg)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

func (m *mailbox) take(ctx context.Context) ([]byte, error) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			msg := m.items[0]
			m.items = m.items[1:]
			m.mu.Unlock()
			return msg, nil
		}
		if m.closed {
			m.mu.Unlock()
			return nil, ErrClosed
		}
		m.mu.Unlock()

		select {
		case <-m.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}
