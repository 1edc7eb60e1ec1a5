package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	impl "github.com/avatarctic/anonymous-confessions/internal/application/services"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/repositories"
	"github.com/avatarctic/anonymous-confessions/test/mocks"
	"github.com/stretchr/testify/require"
)

func TestAllow_FourthRequestInWindowIsDenied(t *testing.T) {
	repo := repositories.NewRateLimitMemoryRepository(100)
	svc := impl.NewRateLimiterService(repo, &impl.RateLimiterConfig{RequestsPerWindow: 3, Window: time.Minute}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, limit, _, err := svc.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		require.True(t, allowed)
		require.Equal(t, 3, limit)
		require.Equal(t, 2-i, remaining)
	}
	allowed, remaining, _, reset, err := svc.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 0, remaining)
	require.True(t, reset.After(time.Now()))

	// Other identities are independent.
	allowed, _, _, _, err = svc.Allow(ctx, "203.0.113.8")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestAllow_FailsOpenOnRepositoryError(t *testing.T) {
	repo := &mocks.RateLimitRepositoryMock{IncrementWindowFn: func(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
		return 0, time.Now(), errors.New("store down")
	}}
	svc := impl.NewRateLimiterService(repo, nil, nil)
	allowed, _, limit, _, err := svc.Allow(context.Background(), "x")
	require.Error(t, err)
	require.True(t, allowed)
	require.Equal(t, 3, limit)
}

func TestAllow_HashesIdentityBeforeStorage(t *testing.T) {
	var seen string
	repo := &mocks.RateLimitRepositoryMock{IncrementWindowFn: func(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
		seen = key
		return 1, time.Now(), nil
	}}
	svc := impl.NewRateLimiterService(repo, nil, nil)
	_, _, _, _, _ = svc.Allow(context.Background(), "198.51.100.1")
	require.NotEmpty(t, seen)
	require.NotContains(t, seen, "198.51.100.1")
}

func TestAllow_GlobalThrottle(t *testing.T) {
	repo := repositories.NewRateLimitMemoryRepository(100)
	svc := impl.NewRateLimiterService(repo, &impl.RateLimiterConfig{RequestsPerWindow: 3, Window: time.Minute, PublishesPerMinute: 2}, nil)
	ctx := context.Background()

	allowed, _, _, _, _ := svc.Allow(ctx, "a")
	require.True(t, allowed)
	allowed, _, _, _, _ = svc.Allow(ctx, "b")
	require.True(t, allowed)
	allowed, _, _, _, _ = svc.Allow(ctx, "c")
	require.False(t, allowed, "burst of two exhausted across clients")
}
