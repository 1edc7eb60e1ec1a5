package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
	"github.com/avatarctic/anonymous-confessions/internal/core/ports"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

// PublisherConfig holds the fixed publishing options.
type PublisherConfig struct {
	Hashtags     []string
	StoryPrompt  confession.StoryPrompt
	// LoginTimeout bounds a shared login attempt; defaults to 20s.
	LoginTimeout time.Duration
}

// PublisherService posts a rendered confession as a story and as a feed post.
// It holds the process-wide platform session; concurrent logins are collapsed.
type PublisherService struct {
	client   ports.SocialClient
	config   PublisherConfig
	logger   *logrus.Logger
	login    singleflight.Group
	loggedIn atomic.Bool
}

func NewPublisherService(client ports.SocialClient, cfg *PublisherConfig, logger *logrus.Logger) *PublisherService {
	c := PublisherConfig{
		Hashtags:     []string{"#confession", "#anonymous", "#confessions"},
		StoryPrompt:  confession.DefaultStoryPrompt(""),
		LoginTimeout: 20 * time.Second,
	}
	if cfg != nil {
		if len(cfg.Hashtags) > 0 {
			c.Hashtags = cfg.Hashtags
		}
		if cfg.StoryPrompt.Question != "" {
			c.StoryPrompt = cfg.StoryPrompt
		}
		if cfg.LoginTimeout > 0 {
			c.LoginTimeout = cfg.LoginTimeout
		}
	}
	return &PublisherService{client: client, config: c, logger: logger}
}

// Publish uploads the story, then the feed post, and always removes the image file.
//
// The call is all-or-nothing from the caller's view only: if the story was posted and
// the feed post failed, the story stays on the platform and the call still fails.
func (p *PublisherService) Publish(ctx context.Context, text string, image *confession.RenderedImage) (res *confession.PublishResult, err error) {
	if image == nil {
		return nil, confession.NewError(confession.KindPublish, "no image to publish", nil)
	}
	defer p.removeImage(image)

	ctx, span := getTracer().Start(ctx, "confession.publish")
	span.SetAttributes(attribute.String("confession.image_id", image.ID.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := p.EnsureSession(ctx); err != nil {
		return nil, err
	}

	storyID, err := p.uploadStory(ctx, image)
	if err != nil {
		return nil, p.publishFailure(ctx, "story upload failed", err)
	}
	if err := checkContext(ctx); err != nil {
		p.logPartial(storyID, err)
		return nil, err
	}

	postID, err := p.uploadPost(ctx, text, image)
	if err != nil {
		p.logPartial(storyID, err)
		return nil, p.publishFailure(ctx, "feed post failed", err)
	}

	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{"story_id": storyID, "post_id": postID, "image_id": image.ID}).Info("confession published")
	}
	return &confession.PublishResult{StoryID: storyID, PostID: postID}, nil
}

// EnsureSession logs in once per process; concurrent callers share a single attempt.
// The shared login runs on its own deadline so one caller giving up does not fail
// the others; each caller still stops waiting when its own context ends.
func (p *PublisherService) EnsureSession(ctx context.Context) error {
	if p.loggedIn.Load() {
		return nil
	}
	ctx, span := getTracer().Start(ctx, "confession.login")
	defer span.End()

	ch := p.login.DoChan("login", func() (any, error) {
		if p.loggedIn.Load() {
			return nil, nil
		}
		loginCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.config.LoginTimeout)
		defer cancel()
		if err := p.client.Login(loginCtx); err != nil {
			return nil, err
		}
		p.loggedIn.Store(true)
		return nil, nil
	})

	var err error
	select {
	case r := <-ch:
		err = r.Err
	case <-ctx.Done():
		err = checkContext(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		if confession.IsKind(err, confession.KindTimeout) {
			return err
		}
		return wrapPublishError("login failed", err)
	}
	return nil
}

func (p *PublisherService) uploadStory(ctx context.Context, image *confession.RenderedImage) (string, error) {
	ctx, span := getTracer().Start(ctx, "confession.upload_story")
	defer span.End()

	f, err := os.Open(image.Path)
	if err != nil {
		return "", fmt.Errorf("open rendered image: %w", err)
	}
	defer f.Close()
	return p.client.UploadStory(ctx, f, p.config.StoryPrompt)
}

func (p *PublisherService) uploadPost(ctx context.Context, text string, image *confession.RenderedImage) (string, error) {
	ctx, span := getTracer().Start(ctx, "confession.upload_post")
	defer span.End()

	f, err := os.Open(image.Path)
	if err != nil {
		return "", fmt.Errorf("open rendered image: %w", err)
	}
	defer f.Close()
	return p.client.UploadPhoto(ctx, f, confession.Caption(text, p.config.Hashtags))
}

// publishFailure drops the session when the platform rejected it so the next
// request logs in again.
func (p *PublisherService) publishFailure(ctx context.Context, msg string, err error) error {
	if errors.Is(err, confession.ErrSessionInvalid) {
		p.loggedIn.Store(false)
		if lerr := p.client.Logout(ctx); lerr != nil && p.logger != nil {
			p.logger.WithError(lerr).Warn("failed to drop invalid platform session")
		}
	}
	return wrapPublishError(msg, err)
}

func (p *PublisherService) logPartial(storyID string, err error) {
	if p.logger != nil {
		p.logger.WithError(err).WithField("story_id", storyID).Error("partial publish: story posted but feed post did not complete")
	}
}

func (p *PublisherService) removeImage(image *confession.RenderedImage) {
	if err := os.Remove(image.Path); err != nil && !errors.Is(err, os.ErrNotExist) && p.logger != nil {
		p.logger.WithError(err).WithField("image_id", image.ID).Warn("failed to remove rendered image")
	}
}

func wrapPublishError(msg string, err error) error {
	var ce *confession.Error
	if errors.As(err, &ce) && ce.Kind == confession.KindPublish {
		return confession.NewError(confession.KindPublish, msg, err).WithDetail(ce.Detail)
	}
	return confession.NewError(confession.KindPublish, msg, err)
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return confession.NewError(confession.KindTimeout, "publish abandoned after deadline", err)
	}
	return nil
}
