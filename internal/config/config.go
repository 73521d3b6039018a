// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Database settings
	DatabaseURL  string
	SQLitePath   string

	// JWT settings
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Responder settings
	GeminiAPIKey   string
	GeminiBaseURL  string
	GeminiModel    string
	GeminiTimeout  time.Duration
	MockClaudePath string

	// Daily chat quota per user
	DailyMessageLimit int

	// Rate limiting (per client address, distinct from the daily quota)
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// NATS settings (event publishing disabled when URL is empty)
	NATSURL   string
	NATSToken string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Database: postgres when DATABASE_URL is set, sqlite otherwise
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "chat.db"),

		// JWT
		JWTSecret:  getEnv("JWT_SECRET", "development-secret-change-in-production"),
		AccessTTL:  getDurationEnv("JWT_ACCESS_TTL", 12*time.Hour),
		RefreshTTL: getDurationEnv("JWT_REFRESH_TTL", 30*24*time.Hour),

		// Responder
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTimeout:  getDurationEnv("GEMINI_TIMEOUT", 30*time.Second),
		MockClaudePath: getEnv("MOCK_CLAUDE_PATH", "data/mock_claude.json"),

		// Quota
		DailyMessageLimit: getIntEnv("DAILY_MESSAGE_LIMIT", 20),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// NATS
		NATSURL:   getEnv("NATS_URL", ""),
		NATSToken: getEnv("NATS_TOKEN", ""),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
