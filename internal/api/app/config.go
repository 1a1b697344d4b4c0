package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/staffroom/pkg/jwtx"
)

type Config struct {
	Issuer   string // Issuer claim stamped into every token (default: staffroom-api)
	Audience string // Audience claim (default: staffroom)
	Secret   string // HMAC signing secret; generated when JWT_SECRET is unset

	AccessTTL  time.Duration // Access token lifetime (default: 20m)
	RefreshTTL time.Duration // Refresh token lifetime (default: 7 days)

	DatabaseFile        string        // Path to SQLite database file (default: ./staffroom.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	SeedAdminEmail    string // First-run admin account (default: admin@test.com)
	SeedAdminPassword string
	SeedUserEmail     string // First-run regular account (default: user@test.com)
	SeedUserPassword  string
}

func LoadConfig() Config {
	return Config{
		Issuer:   getEnvOrDefault("AUTH_ISSUER", "staffroom-api"),
		Audience: getEnvOrDefault("AUTH_AUDIENCE", "staffroom"),
		Secret:   os.Getenv("JWT_SECRET"),

		AccessTTL:  getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),

		DatabaseFile:        getEnvOrDefault("DATABASE_FILE", "staffroom.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		SeedAdminEmail:    getEnvOrDefault("SEED_ADMIN_EMAIL", "admin@test.com"),
		SeedAdminPassword: getEnvOrDefault("SEED_ADMIN_PASSWORD", "Admin#2024!"),
		SeedUserEmail:     getEnvOrDefault("SEED_USER_EMAIL", "user@test.com"),
		SeedUserPassword:  getEnvOrDefault("SEED_USER_PASSWORD", "User#2024!"),
	}
}

// Validate rejects configurations that cannot produce a working session
// lifecycle.
func (c Config) Validate() error {
	if c.AccessTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive, got %s", c.AccessTTL)
	}
	if c.RefreshTTL <= c.AccessTTL {
		return fmt.Errorf("refresh token TTL (%s) must exceed access token TTL (%s)",
			c.RefreshTTL, c.AccessTTL)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
