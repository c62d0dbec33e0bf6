package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	// Server
	Port string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Ledger events; publishing is disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string

	// Internal endpoints (reconciliation); disabled when empty.
	InternalAPIKey string

	// Auth rate limit per client IP.
	AuthRatePerMinute int

	// Default category list cache.
	CategoryCacheTTL time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		Port: getEnv("PORT", "8080"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack.ledger"),

		InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),
	}

	config.JWTExpirationDur = getDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.CategoryCacheTTL = getDuration("CATEGORY_CACHE_TTL", 10*time.Minute)

	rateStr := getEnv("AUTH_RATE_PER_MIN", "20")
	rate, err := strconv.Atoi(rateStr)
	if err != nil || rate <= 0 {
		log.Printf("Warning: invalid AUTH_RATE_PER_MIN value '%s', falling back to 20\n", rateStr)
		rate = 20
	}
	config.AuthRatePerMinute = rate

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
