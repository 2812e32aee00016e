package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Security settings. Bearer tokens are only required when JWTSecret is set.
	JWTSecret      string
	DefaultUserID  string
	AllowedOrigins []string

	// Valuation settings
	BaseCurrency     string
	MovementCacheTTL time.Duration

	// Price capture settings
	MarketTimezone         string
	MarketOpenHour         int
	MarketCloseHour        int
	CaptureEnabled         bool
	CaptureMinute          int
	QuoteRequestsPerSecond float64
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	errEnv := godotenv.Load()

	// Running from a subdirectory (cmd/portfolioctl) is common during development.
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	Cfg = FromEnv()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, BaseCurrency=%s, AuthEnabled=%t",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.BaseCurrency, Cfg.AuthEnabled())
}

// FromEnv builds an AppConfig from the current process environment without touching .env files.
func FromEnv() *AppConfig {
	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret != "" && len(jwtSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters; bearer authentication stays disabled.")
		jwtSecret = ""
	}

	return &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./portfolio.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		JWTSecret:      jwtSecret,
		DefaultUserID:  getEnv("DEFAULT_USER_ID", "default"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"),

		BaseCurrency:     strings.ToUpper(getEnv("BASE_CURRENCY", "CAD")),
		MovementCacheTTL: getEnvAsDuration("MOVEMENT_CACHE_TTL", 5*time.Minute),

		MarketTimezone:         getEnv("MARKET_TIMEZONE", "America/New_York"),
		MarketOpenHour:         getEnvAsInt("MARKET_OPEN_HOUR", 9),
		MarketCloseHour:        getEnvAsInt("MARKET_CLOSE_HOUR", 17),
		CaptureEnabled:         getEnvAsBool("CAPTURE_ENABLED", true),
		CaptureMinute:          getEnvAsInt("CAPTURE_MINUTE", 5),
		QuoteRequestsPerSecond: getEnvAsFloat("QUOTE_REQUESTS_PER_SECOND", 4),
	}
}

// AuthEnabled reports whether requests must carry a bearer token.
func (c *AppConfig) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil && value > 0 {
		return value
	}
	log.Printf("Invalid number value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList retrieves and parses a comma-separated list.
func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}
