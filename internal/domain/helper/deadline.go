package helper

import (
	"context"
	"time"
)

// ResolveWithin は op を実行し、d 以内に完了しなければ fallback を返す。
// op がエラーを返した場合も fallback を返す。op には期限付きのコンテキストが渡される
func ResolveWithin[T any](ctx context.Context, d time.Duration, fallback T, op func(ctx context.Context) (T, error)) T {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := op(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return fallback
		}
		return r.value
	case <-ctx.Done():
		return fallback
	}
}

// Sleep はコンテキストがキャンセルされるまで最大 d 待機する
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
