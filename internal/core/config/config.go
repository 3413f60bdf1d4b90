package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	SecretKey   string
	WebhookURL  string
	Env         string

	// Lock tuning. Wait must stay well below Lease.
	LockWaitTimeout time.Duration
	LockLease       time.Duration
}

// LoadConfig reads .env file and returns a Config struct
func LoadConfig() *Config {
	// Try loading .env file (it might not exist in Production, which is fine)
	err := godotenv.Load()
	if err != nil {
		slog.Warn("No .env file found, relying on System Env Variables")
	}

	return &Config{
		Port:            getEnv("PORT", "3000"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SecretKey:       getEnv("SECRET_KEY", ""),
		WebhookURL:      getEnv("WEBHOOK_URL", ""),
		Env:             getEnv("ENV", "development"),
		LockWaitTimeout: getDuration("LOCK_WAIT_TIMEOUT", 30*time.Second),
		LockLease:       getDuration("LOCK_LEASE", 3*time.Minute),
	}
}

// Helper to get env with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in env, using default", "key", key, "value", value)
		return fallback
	}
	return d
}
