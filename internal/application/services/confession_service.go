package services

import (
	"context"
	"time"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
	"github.com/avatarctic/anonymous-confessions/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// ConfessionServiceConfig configures the render and publish pipeline.
type ConfessionServiceConfig struct {
	Timeout time.Duration
	// PublishDuration is optional.
	PublishDuration prometheus.Observer
}

// ConfessionService renders a confession and publishes it under a hard deadline.
type ConfessionService struct {
	renderer  ports.ImageRenderer
	publisher ports.Publisher
	timeout   time.Duration
	duration  prometheus.Observer
	logger    *logrus.Logger
}

func NewConfessionService(renderer ports.ImageRenderer, publisher ports.Publisher, cfg *ConfessionServiceConfig, logger *logrus.Logger) *ConfessionService {
	s := &ConfessionService{renderer: renderer, publisher: publisher, timeout: 25 * time.Second, logger: logger}
	if cfg != nil {
		if cfg.Timeout > 0 {
			s.timeout = cfg.Timeout
		}
		s.duration = cfg.PublishDuration
	}
	return s
}

// Submit validates text, then races render+publish against the deadline.
// A timeout means the caller stopped waiting; the publish may still complete.
func (s *ConfessionService) Submit(ctx context.Context, text string) (*confession.PublishResult, error) {
	if err := confession.ValidateText(text); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := RunWithDeadline(ctx, s.timeout, func(ctx context.Context) (*confession.PublishResult, error) {
		img, err := s.renderer.Render(ctx, text)
		if err != nil {
			return nil, err
		}
		return s.publisher.Publish(ctx, text, img)
	})
	if s.duration != nil {
		s.duration.Observe(time.Since(start).Seconds())
	}
	if err != nil && confession.IsKind(err, confession.KindTimeout) && s.logger != nil {
		s.logger.WithField("timeout", s.timeout.String()).Warn("publish deadline exceeded; platform side effects may still complete")
	}
	return res, err
}
