package studyai

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"
)

// Result carries the outcome of a background AI call.
type Result[T any] struct {
	Value T
	Err   error
}

// Async runs fn off the caller's goroutine and delivers exactly one Result on
// the returned channel, so the caller can apply it on its own goroutine.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	lifecycle.Go(ctx, func(ctx context.Context) (err error) {
		var res Result[T]
		defer func() {
			if r := recover(); r != nil {
				res = Result[T]{Err: fmt.Errorf("ai call panicked: %v", r)}
			}
			out <- res
			close(out)
		}()
		res.Value, res.Err = fn(ctx)
		return nil
	})
	return out
}
