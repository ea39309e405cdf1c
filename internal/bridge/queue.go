package bridge

import "sync"

// CommandQueue ready 前に発行されたコマンドを保持するFIFOキュー
type CommandQueue struct {
	mu    sync.Mutex
	items []Command
}

// NewCommandQueue 新しいCommandQueueを作成
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

// Push 末尾に追加
func (q *CommandQueue) Push(cmd Command) {
	q.mu.Lock()
	q.items = append(q.items, cmd)
	q.mu.Unlock()
}

// Drain 保持しているコマンドを投入順にすべて取り出す。取り出したものは二度と返らない
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len 保持しているコマンド数
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
