package configs

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Instagram InstagramConfig
	Redis     RedisConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Render    RenderConfig
	Publish   PublishConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
	Environment  string
}

type InstagramConfig struct {
	Username      string
	Password      string
	Hashtags      []string
	StoryQuestion string
	SessionTTL    time.Duration
}

// RedisConfig is optional; an empty Host keeps the session cache in memory.
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	KeyPrefix    string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (r RedisConfig) Enabled() bool { return r.Host != "" }

type LogConfig struct {
	Level  string
	Format string // json or text
}

type RateLimitConfig struct {
	Requests           int
	Window             time.Duration
	MaxKeys            int
	CleanupInterval    time.Duration
	PublishesPerMinute int
}

type RenderConfig struct {
	Dir string
}

type PublishConfig struct {
	Timeout time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:  getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:   getEnv("TLS_KEY_FILE", ""),
			Environment:  getEnv("APP_ENV", "production"),
		},
		Instagram: InstagramConfig{
			Username:      getEnv("IG_USERNAME", ""),
			Password:      getEnv("IG_PASSWORD", ""),
			Hashtags:      getListEnv("IG_HASHTAGS", []string{"#confession", "#anonymous", "#confessions", "#secrets"}),
			StoryQuestion: getEnv("IG_STORY_QUESTION", "React with an emoji 👇"),
			SessionTTL:    getDurationEnv("IG_SESSION_TTL", 30*24*time.Hour),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", ""),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "confessions"),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 4),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			Requests:           getIntEnv("RATE_LIMIT_REQUESTS", 3),
			Window:             getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			MaxKeys:            getIntEnv("RATE_LIMIT_MAX_KEYS", 10000),
			CleanupInterval:    getDurationEnv("RATE_LIMIT_CLEANUP_INTERVAL", 2*time.Minute),
			PublishesPerMinute: getIntEnv("PUBLISH_RATE_PER_MINUTE", 0),
		},
		Render: RenderConfig{
			Dir: getEnv("RENDER_DIR", os.TempDir()),
		},
		Publish: PublishConfig{
			Timeout: getDurationEnv("PUBLISH_TIMEOUT", 25*time.Second),
		},
	}

	return cfg, nil
}

// Validate reports settings the HTTP service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Instagram.Username == "" {
		errs = append(errs, errors.New("required environment variable IG_USERNAME is not set"))
	}
	if c.Instagram.Password == "" {
		errs = append(errs, errors.New("required environment variable IG_PASSWORD is not set"))
	}
	if c.Publish.Timeout <= 0 {
		errs = append(errs, errors.New("PUBLISH_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getListEnv splits a comma or space separated value.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return defaultValue
	}
	return fields
}
