package ports

import (
	"context"
	"io"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
)

// Publisher posts a rendered confession to the social account.
// It consumes the image: the file is removed on every exit path.
type Publisher interface {
	Publish(ctx context.Context, text string, image *confession.RenderedImage) (*confession.PublishResult, error)
}

// SocialClient is the minimal surface of the platform client used by the publisher.
// Implementations are not required to be safe for concurrent Login calls.
type SocialClient interface {
	// Login establishes a session, reusing a cached one when available.
	Login(ctx context.Context) error
	// Logout drops the current session and any cached state.
	Logout(ctx context.Context) error
	// UploadStory posts image as a story. prompt is best effort: the Instagram client
	// cannot attach question stickers, so there the story is posted without it and
	// the prompt is only logged.
	UploadStory(ctx context.Context, image io.Reader, prompt confession.StoryPrompt) (string, error)
	UploadPhoto(ctx context.Context, image io.Reader, caption string) (string, error)
}

// ConfessionService runs the render and publish pipeline for validated text.
type ConfessionService interface {
	Submit(ctx context.Context, text string) (*confession.PublishResult, error)
}
