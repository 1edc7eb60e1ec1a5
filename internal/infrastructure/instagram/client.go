package instagram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Davincible/goinsta/v3"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
	"github.com/avatarctic/anonymous-confessions/internal/core/ports"
	"github.com/avatarctic/anonymous-confessions/internal/utils"
)

// Config holds the account credentials. They come from process configuration only.
type Config struct {
	Username   string
	Password   string
	SessionTTL time.Duration
}

// Client adapts goinsta to ports.SocialClient and keeps the exported session in a cache
// so restarts do not trigger a fresh login.
type Client struct {
	cfg    Config
	cache  ports.Cache
	logger *logrus.Logger

	mu    sync.Mutex
	insta *goinsta.Instagram
}

func NewClient(cfg Config, cache ports.Cache, logger *logrus.Logger) (*Client, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("instagram credentials are not configured")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	return &Client{cfg: cfg, cache: cache, logger: logger}, nil
}

func (c *Client) sessionKey() string {
	return "instagram:session:" + utils.ShortHash(utils.HashIdentity(c.cfg.Username))
}

// Login restores a cached session when one exists, otherwise authenticates with the
// configured credentials and caches the resulting session.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.insta != nil {
		return nil
	}
	if c.cache != nil {
		state, ok, err := c.cache.Get(ctx, c.sessionKey())
		if err != nil && c.logger != nil {
			c.logger.WithError(err).Warn("instagram: session cache unavailable")
		}
		if ok {
			insta, err := goinsta.ImportFromBase64String(string(state), true)
			if err == nil {
				c.insta = insta
				if c.logger != nil {
					c.logger.Info("instagram: restored cached session")
				}
				return nil
			}
			if c.logger != nil {
				c.logger.WithError(err).Warn("instagram: discarding unreadable cached session")
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	insta := goinsta.New(c.cfg.Username, c.cfg.Password)
	if err := insta.Login(); err != nil {
		return platformError("authentication failed", err)
	}
	c.insta = insta
	if c.logger != nil {
		c.logger.Info("instagram: logged in")
	}

	if c.cache != nil {
		state, err := insta.ExportAsBase64String()
		if err == nil {
			err = c.cache.Set(ctx, c.sessionKey(), []byte(state), c.cfg.SessionTTL)
		}
		if err != nil && c.logger != nil {
			c.logger.WithError(err).Warn("instagram: failed to cache session")
		}
	}
	return nil
}

// Logout forgets the in-memory and cached session. It does not call the platform so
// that an already rejected session does not produce a second failure.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.insta = nil
	c.mu.Unlock()
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, c.sessionKey())
}

// UploadStory posts the image as a story.
//
// goinsta has no story sticker options, so the question prompt cannot be attached
// through this client; it is logged for the operator instead.
func (c *Client) UploadStory(ctx context.Context, image io.Reader, prompt confession.StoryPrompt) (string, error) {
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"question":            prompt.Question,
			"allow_answers":       prompt.AllowAnswers,
			"allow_new_questions": prompt.AllowNewQuestions,
		}).Debug("instagram: story prompt requested")
	}
	return c.upload(ctx, &goinsta.UploadOptions{File: image, IsStory: true})
}

// UploadPhoto posts the image to the feed with caption.
func (c *Client) UploadPhoto(ctx context.Context, image io.Reader, caption string) (string, error) {
	return c.upload(ctx, &goinsta.UploadOptions{File: image, Caption: caption})
}

func (c *Client) upload(ctx context.Context, opts *goinsta.UploadOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	insta := c.insta
	c.mu.Unlock()
	if insta == nil {
		return "", fmt.Errorf("upload: %w", confession.ErrSessionInvalid)
	}

	item, err := insta.Upload(opts)
	if err != nil {
		return "", platformError("upload rejected", err)
	}
	if item == nil {
		return "", confession.NewError(confession.KindPublish, "upload returned no media", nil)
	}
	return fmt.Sprint(item.ID), nil
}

// platformError keeps the platform's message as detail and flags rejected sessions.
func platformError(msg string, err error) error {
	cause := err
	if isSessionRejected(err) {
		cause = fmt.Errorf("%w: %v", confession.ErrSessionInvalid, err)
	}
	return confession.NewError(confession.KindPublish, msg, cause).WithDetail(err.Error())
}

func isSessionRejected(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "login_required") || strings.Contains(s, "challenge_required")
}
