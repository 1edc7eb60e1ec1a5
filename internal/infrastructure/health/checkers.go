package health

import (
	"context"
	"os"

	"github.com/avatarctic/anonymous-confessions/internal/core/ports"
	"github.com/go-redis/redis/v8"
)

// renderDirHealthChecker verifies rendered images can still be written.
type renderDirHealthChecker struct{ dir string }

func (d *renderDirHealthChecker) Name() string { return "render_dir" }
func (d *renderDirHealthChecker) Check(ctx context.Context) error {
	f, err := os.CreateTemp(d.dir, ".healthcheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client *redis.Client }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// NewRenderDirHealthChecker creates a health checker for the render directory.
func NewRenderDirHealthChecker(dir string) ports.HealthChecker {
	return &renderDirHealthChecker{dir: dir}
}

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client *redis.Client) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}
