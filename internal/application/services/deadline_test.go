package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	impl "github.com/avatarctic/anonymous-confessions/internal/application/services"
	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRunWithDeadline_ReturnsResultFirst(t *testing.T) {
	defer goleak.VerifyNone(t)

	v, err := impl.RunWithDeadline(context.Background(), time.Second, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", v)
}

func TestRunWithDeadline_PropagatesError(t *testing.T) {
	defer goleak.VerifyNone(t)

	want := errors.New("boom")
	_, err := impl.RunWithDeadline(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, want
	})
	require.ErrorIs(t, err, want)
	require.False(t, confession.IsKind(err, confession.KindTimeout))
}

func TestRunWithDeadline_TimesOutWithinBound(t *testing.T) {
	defer goleak.VerifyNone(t)

	stopped := make(chan struct{})
	start := time.Now()
	_, err := impl.RunWithDeadline(context.Background(), 50*time.Millisecond, func(ctx context.Context) (int, error) {
		defer close(stopped)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(5 * time.Second):
			return 1, nil
		}
	})
	require.Less(t, time.Since(start), time.Second)
	require.True(t, confession.IsKind(err, confession.KindTimeout))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	<-stopped
}

func TestRunWithDeadline_IgnoresParentCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := impl.RunWithDeadline(ctx, time.Second, func(ctx context.Context) (int, error) {
		return 7, ctx.Err()
	})
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestRunWithDeadline_RecoversPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, err := impl.RunWithDeadline(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		panic("kaboom")
	})
	require.True(t, confession.IsKind(err, confession.KindInternal))
	require.ErrorContains(t, err, "kaboom")
}
