package mocks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
)

// RateLimitRepositoryMock is a lightweight mock for RateLimitRepository
type RateLimitRepositoryMock struct {
	IncrementWindowFn func(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

func (m *RateLimitRepositoryMock) IncrementWindow(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	if m.IncrementWindowFn != nil {
		return m.IncrementWindowFn(ctx, key, window)
	}
	return 1, time.Now(), nil
}

// RateLimiterServiceMock allows everything unless AllowFn is set
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, identity string) (bool, int, int, time.Time, error)
}

func (m *RateLimiterServiceMock) Allow(ctx context.Context, identity string) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, identity)
	}
	return true, 2, 3, time.Now().Add(time.Minute), nil
}

// ImageRendererMock records rendered texts
type ImageRendererMock struct {
	RenderFn func(ctx context.Context, text string) (*confession.RenderedImage, error)

	mu    sync.Mutex
	Calls int
}

func (m *ImageRendererMock) Render(ctx context.Context, text string) (*confession.RenderedImage, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.RenderFn != nil {
		return m.RenderFn(ctx, text)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *ImageRendererMock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// PublisherMock records publish attempts
type PublisherMock struct {
	PublishFn func(ctx context.Context, text string, image *confession.RenderedImage) (*confession.PublishResult, error)

	mu    sync.Mutex
	Calls int
}

func (m *PublisherMock) Publish(ctx context.Context, text string, image *confession.RenderedImage) (*confession.PublishResult, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.PublishFn != nil {
		return m.PublishFn(ctx, text, image)
	}
	return &confession.PublishResult{StoryID: "story-1", PostID: "post-1"}, nil
}

func (m *PublisherMock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// SocialClientMock is a mock platform client
type SocialClientMock struct {
	LoginFn       func(ctx context.Context) error
	LogoutFn      func(ctx context.Context) error
	UploadStoryFn func(ctx context.Context, image io.Reader, prompt confession.StoryPrompt) (string, error)
	UploadPhotoFn func(ctx context.Context, image io.Reader, caption string) (string, error)
}

func (m *SocialClientMock) Login(ctx context.Context) error {
	if m.LoginFn != nil {
		return m.LoginFn(ctx)
	}
	return nil
}
func (m *SocialClientMock) Logout(ctx context.Context) error {
	if m.LogoutFn != nil {
		return m.LogoutFn(ctx)
	}
	return nil
}
func (m *SocialClientMock) UploadStory(ctx context.Context, image io.Reader, prompt confession.StoryPrompt) (string, error) {
	if m.UploadStoryFn != nil {
		return m.UploadStoryFn(ctx, image, prompt)
	}
	return "story-1", nil
}
func (m *SocialClientMock) UploadPhoto(ctx context.Context, image io.Reader, caption string) (string, error) {
	if m.UploadPhotoFn != nil {
		return m.UploadPhotoFn(ctx, image, caption)
	}
	return "post-1", nil
}

// ConfessionServiceMock is a mock for the pipeline service
type ConfessionServiceMock struct {
	SubmitFn func(ctx context.Context, text string) (*confession.PublishResult, error)
}

func (m *ConfessionServiceMock) Submit(ctx context.Context, text string) (*confession.PublishResult, error) {
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, text)
	}
	return &confession.PublishResult{StoryID: "story-1", PostID: "post-1"}, nil
}

// HealthCheckerMock reports Err from Check
type HealthCheckerMock struct {
	NameValue string
	Err       error
}

func (m *HealthCheckerMock) Name() string                    { return m.NameValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error { return m.Err }
