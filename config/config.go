package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// API Configuration
	APIPort        string
	APIHost        string
	APIEnvironment string

	// MongoDB
	MongoURI         string
	RegistryDatabase string
	DefaultDatabase  string

	// Redis
	RedisURL string

	// JWT & Security
	JWTSecret            string
	JWTExpirationMinutes int
	StateSigningKey      string

	// CORS
	CORSAllowedOrigins []string

	// Rate Limiting
	RateLimitRequestsPerMinute int
	RateLimitBurst             int

	// Google Calendar OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Webhook sources
	FacebookAppSecret    string
	MagicbricksAuthToken string

	// 99acres sync
	AcresAPIBaseURL      string
	AcresMaxWindowHours  int
	AcresMaxLookbackDays int

	// Frontend
	FrontendURL string

	// Sentry
	SentryDSN         string
	SentryEnvironment string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// API
		APIPort:        getEnv("API_PORT", "8080"),
		APIHost:        getEnv("API_HOST", "0.0.0.0"),
		APIEnvironment: getEnv("API_ENVIRONMENT", "development"),

		// MongoDB
		MongoURI:         getEnv("MONGODB_URI", ""),
		RegistryDatabase: getEnv("REGISTRY_DB_NAME", "leadrabbit_registry"),
		DefaultDatabase:  getEnv("DEFAULT_DB_NAME", "leadrabbit"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		// JWT
		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTExpirationMinutes: getEnvAsInt("JWT_EXPIRATION_MINUTES", 60),
		StateSigningKey:      getEnv("STATE_SIGNING_KEY", ""),

		// CORS
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),

		// Rate Limiting
		RateLimitRequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
		RateLimitBurst:             getEnvAsInt("RATE_LIMIT_BURST", 10),

		// Google Calendar OAuth
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/calendar/callback"),

		// Webhook sources
		FacebookAppSecret:    getEnv("FACEBOOK_APP_SECRET", ""),
		MagicbricksAuthToken: getEnv("MAGICBRICKS_AUTH_TOKEN", ""),

		// 99acres
		AcresAPIBaseURL:      getEnv("ACRES_API_BASE_URL", "https://api.99acres.com/xnet/rest"),
		AcresMaxWindowHours:  getEnvAsInt("ACRES_MAX_WINDOW_HOURS", 24),
		AcresMaxLookbackDays: getEnvAsInt("ACRES_MAX_LOOKBACK_DAYS", 7),

		// Frontend
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Sentry
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "development"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
