package manager

import "context"

// detach runs fn to completion regardless of ctx. If ctx ends first the caller gets
// ctx.Err() and the result is dropped; fn keeps running with a context that carries
// ctx's values but never cancels. fn is responsible for releasing any slot it holds.
func detach[T any](ctx context.Context, fn func(context.Context) T) (T, error) {
	done := make(chan T, 1)
	go func() { done <- fn(context.WithoutCancel(ctx)) }()
	select {
	case out := <-done:
		return out, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
