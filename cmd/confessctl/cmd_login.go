package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	config "github.com/avatarctic/anonymous-confessions/configs"
	"github.com/avatarctic/anonymous-confessions/internal/core/ports"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/cache"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/instagram"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/redis"
)

var loginReset bool

// loginCmd authenticates once and stores the session where the server will find it
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify Instagram credentials and warm the session cache",
	Long: `Log in with IG_USERNAME / IG_PASSWORD and store the session in Redis so the
server starts without a fresh login. Requires REDIS_HOST; without Redis the session
would only live in this process. Use --reset to discard a cached session first.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().BoolVar(&loginReset, "reset", false, "Drop any cached session before logging in")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Instagram.Username == "" || cfg.Instagram.Password == "" {
		return errors.New("IG_USERNAME and IG_PASSWORD must be set")
	}

	var sessionCache ports.Cache = cache.NewMemoryCache()
	if cfg.Redis.Enabled() {
		rc, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rc.Close()
		sessionCache = redis.NewRedisCache(rc, cfg.Redis.KeyPrefix)
	} else {
		logger.Warn("REDIS_HOST not set; the session will not outlive this command")
	}

	client, err := instagram.NewClient(instagram.Config{
		Username:   cfg.Instagram.Username,
		Password:   cfg.Instagram.Password,
		SessionTTL: cfg.Instagram.SessionTTL,
	}, sessionCache, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if loginReset {
		if err := client.Logout(ctx); err != nil {
			return fmt.Errorf("drop cached session: %w", err)
		}
	}
	if err := client.Login(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "login ok; session cached")
	return nil
}
