package ports

import (
	"context"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
)

// ImageRenderer turns confession text into a temporary image file.
// The caller owns the returned file and must remove it.
type ImageRenderer interface {
	Render(ctx context.Context, text string) (*confession.RenderedImage, error)
}
