package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DBHost string
	DBUser string
	DBPass string
	DBName string
	DBPort string

	RedisURL  string
	JWTSecret string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryUploadFolder string

	RateLimitPost    time.Duration
	RateLimitComment time.Duration

	NotificationFetchLimit int
	TrendingLimit          int
	TrendingRefreshCron    string
	SessionIdleTimeout     time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: os.Getenv("DB_PASS"),
		DBName: getEnv("DB_NAME", "feedsync"),
		DBPort: getEnv("DB_PORT", "5432"),

		RedisURL:  os.Getenv("REDIS_URL"),
		JWTSecret: getEnv("JWT_SECRET", "12345"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "feedsync"),

		TrendingRefreshCron: getEnv("TRENDING_REFRESH_CRON", "@every 5m"),
	}

	var err error
	cfg.RateLimitPost, err = parseDuration(getEnv("RATE_LIMIT_POST", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_POST: %w", err)
	}
	cfg.RateLimitComment, err = parseDuration(getEnv("RATE_LIMIT_COMMENT", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_COMMENT: %w", err)
	}
	cfg.SessionIdleTimeout, err = parseDuration(getEnv("SESSION_IDLE_TIMEOUT", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT: %w", err)
	}

	cfg.NotificationFetchLimit, err = parsePositiveInt(getEnv("NOTIFICATION_FETCH_LIMIT", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_FETCH_LIMIT: %w", err)
	}
	cfg.TrendingLimit, err = parsePositiveInt(getEnv("TRENDING_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRENDING_LIMIT: %w", err)
	}

	return cfg, nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
