package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
	"github.com/avatarctic/anonymous-confessions/internal/core/ports"
	"github.com/avatarctic/anonymous-confessions/internal/utils"
)

// TooManyRequestsMessage is returned to throttled clients.
const TooManyRequestsMessage = "Too many requests. Please try again later."

type RateLimitMiddleware struct {
	rateLimiter ports.RateLimiterService
	logger      *logrus.Logger
}

func NewRateLimitMiddleware(rateLimiter ports.RateLimiterService, logger *logrus.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{rateLimiter: rateLimiter, logger: logger}
}

// Handler limits submissions per client address. Only POST consumes quota so a
// rejected method never burns a client's allowance.
func (r *RateLimitMiddleware) Handler() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r.rateLimiter == nil || c.Request().Method != http.MethodPost {
				return next(c)
			}

			identity := utils.ClientAddress(c.Request(), confession.UnknownIdentity)
			allowed, remaining, limit, reset, rlErr := r.rateLimiter.Allow(c.Request().Context(), identity)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if rlErr != nil {
				if r.logger != nil {
					r.logger.WithError(rlErr).Warn("rate limiter error; allowing request (fail-open)")
				}
				return next(c)
			}

			if !allowed {
				if wait := time.Until(reset); wait > 0 {
					h.Set("Retry-After", strconv.Itoa(int(wait.Round(time.Second).Seconds())))
				}
				return confession.NewError(confession.KindRateLimited, TooManyRequestsMessage, nil)
			}
			return next(c)
		}
	}
}
