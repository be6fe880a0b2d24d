// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// KV backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	DBPath         string
	AllowedOrigins []string
	KV             KVConfig
	LLM            LLMConfig
	RateLimit      RateLimitConfig
	MaxRequestBody int64
	LogLevel       string
	LogFile        string
	// Dev relaxes websocket origin checks for local extension builds.
	Dev bool
}

// KVConfig selects where scraped problem data and settings live.
type KVConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LLMConfig configures the model client and prompt assembly.
type LLMConfig struct {
	DefaultModel string
	Timeout      time.Duration
	HistoryLimit int
}

// RateLimitConfig bounds chat sends per tab.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "./data/assistant.db"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		KV: KVConfig{
			Backend:       strings.ToLower(getEnv("KV_BACKEND", BackendSQLite)),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		LLM: LLMConfig{
			DefaultModel: getEnv("DEFAULT_MODEL", "Gemini 2.5 Pro"),
			Timeout:      getEnvDuration("LLM_TIMEOUT", 2*time.Minute),
			HistoryLimit: getEnvInt("HISTORY_LIMIT", 10),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		MaxRequestBody: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 1<<20)),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
		Dev:            getEnvBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	switch c.KV.Backend {
	case BackendSQLite:
	case BackendRedis:
		if c.KV.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty when KV_BACKEND=redis")
		}
	default:
		return fmt.Errorf("KV_BACKEND must be %q or %q, got %q", BackendSQLite, BackendRedis, c.KV.Backend)
	}
	if c.LLM.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be > 0")
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("LLM_TIMEOUT cannot be negative")
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	if c.MaxRequestBody <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
