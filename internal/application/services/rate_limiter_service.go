package services

import (
	"context"
	"time"

	"github.com/avatarctic/anonymous-confessions/internal/core/ports"
	"github.com/avatarctic/anonymous-confessions/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimiterService implements RateLimiterService with a per-identity fixed window
// and an optional process-wide publish throttle.
type RateLimiterService struct {
	repo   ports.RateLimitRepository
	limit  int
	window time.Duration
	global *rate.Limiter
	logger *logrus.Logger
}

// RateLimiterConfig groups configuration parameters for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	// PublishesPerMinute caps accepted submissions across all clients; 0 disables it.
	PublishesPerMinute int
}

func NewRateLimiterService(repo ports.RateLimitRepository, cfg *RateLimiterConfig, logger *logrus.Logger) *RateLimiterService {
	// Apply defaults
	l := 3
	w := time.Minute
	var global *rate.Limiter
	if cfg != nil {
		if cfg.RequestsPerWindow > 0 {
			l = cfg.RequestsPerWindow
		}
		if cfg.Window > 0 {
			w = cfg.Window
		}
		if cfg.PublishesPerMinute > 0 {
			global = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.PublishesPerMinute)), cfg.PublishesPerMinute)
		}
	}
	return &RateLimiterService{repo: repo, limit: l, window: w, global: global, logger: logger}
}

// Allow consumes one unit for identity. The N+1-th call inside a window is denied.
func (s *RateLimiterService) Allow(ctx context.Context, identity string) (bool, int, int, time.Time, error) {
	key := utils.HashIdentity(identity)
	count, windowStart, err := s.repo.IncrementWindow(ctx, key, s.window)
	reset := windowStart.Add(s.window)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"client": utils.ShortHash(key)}).WithError(err).Error("rate limiter: failed to increment window")
		}
		// fail open
		return true, s.limit, s.limit, reset, err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"client": utils.ShortHash(key), "count": count, "limit": s.limit}).Debug("rate limiter window state")
	}
	if count > s.limit {
		return false, 0, s.limit, reset, nil
	}
	if s.global != nil && !s.global.Allow() {
		if s.logger != nil {
			s.logger.Warn("rate limiter: global publish throttle engaged")
		}
		return false, 0, s.limit, reset, nil
	}
	return true, s.limit - count, s.limit, reset, nil
}
