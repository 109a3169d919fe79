package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment
// variables. Missing required values are startup errors, never runtime
// errors.
type Config struct {
	AppEnv string

	BotToken           string
	TelegramAPIBaseURL string

	ResolverURL     string
	ResolverMethod  string // "GET" or "POST"
	ResolverTimeout time.Duration

	FetchTimeout    time.Duration
	RequestDeadline time.Duration // 0 disables the aggregate deadline

	RequiredDomain string

	AlwaysFetchFirst      bool
	EnableRemoteReference bool
	EnableReupload        bool
	EnableLinkFallback    bool
	MaxUploadBytes        int64
}

// Load reads configuration from environment variables and applies
// defaults where needed.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		BotToken:              os.Getenv("BOT_TOKEN"),
		TelegramAPIBaseURL:    getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		ResolverURL:           os.Getenv("RESOLVER_API_URL"),
		ResolverMethod:        getEnv("RESOLVER_METHOD", "GET"),
		ResolverTimeout:       time.Second * time.Duration(getEnvInt("RESOLVER_TIMEOUT_SECONDS", 25)),
		FetchTimeout:          time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 120)),
		RequestDeadline:       time.Second * time.Duration(getEnvInt("REQUEST_DEADLINE_SECONDS", 0)),
		RequiredDomain:        os.Getenv("REQUIRED_DOMAIN"),
		AlwaysFetchFirst:      getEnvBool("ALWAYS_FETCH_FIRST", false),
		EnableRemoteReference: getEnvBool("ENABLE_REMOTE_REFERENCE", true),
		EnableReupload:        getEnvBool("ENABLE_REUPLOAD", true),
		EnableLinkFallback:    getEnvBool("ENABLE_LINK_FALLBACK", true),
		MaxUploadBytes:        int64(getEnvInt("MAX_UPLOAD_BYTES", 50<<20)),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	if cfg.ResolverURL == "" {
		return nil, fmt.Errorf("RESOLVER_API_URL is required")
	}

	if cfg.ResolverMethod != "GET" && cfg.ResolverMethod != "POST" {
		return nil, fmt.Errorf("RESOLVER_METHOD must be GET or POST, got %q", cfg.ResolverMethod)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
