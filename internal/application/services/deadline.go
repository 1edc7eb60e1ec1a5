package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
)

// RunWithDeadline runs fn in its own goroutine and waits for whichever settles first:
// fn's result or the timeout. fn receives a context that is canceled when the deadline
// passes, but cancellation is cooperative only. If fn ignores it, fn keeps running after
// RunWithDeadline has returned, and its side effects may still land.
//
// The work context is detached from ctx's cancellation so a client disconnect does not
// abort a publish halfway; ctx values (trace spans, request ids) are preserved.
func RunWithDeadline[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() {
			if r := recover(); r != nil {
				o.err = confession.NewError(confession.KindInternal, "unexpected failure", fmt.Errorf("panic: %v", r))
			}
			done <- o
		}()
		o.val, o.err = fn(workCtx)
	}()

	select {
	case o := <-done:
		// fn gave up because the deadline passed
		if o.err != nil && errors.Is(workCtx.Err(), context.DeadlineExceeded) {
			return o.val, timeoutError(workCtx)
		}
		return o.val, o.err
	case <-workCtx.Done():
		var zero T
		return zero, timeoutError(workCtx)
	}
}

func timeoutError(ctx context.Context) error {
	return confession.NewError(confession.KindTimeout, "Request timed out", ctx.Err())
}
