package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string

	DatabaseURL string

	RedisURL string

	JWTSecret string

	// Timezone is the home timezone; every day-level date computation in the
	// milestone scanner runs in it.
	Timezone          string
	MilestoneScanTime string

	EvolutionAPIURL string
	EvolutionAPIKey string
	BusinessAPIURL  string
	DefaultProvider string

	QueueWorkers     int
	QueueMaxAttempts int
	QueueBackoffBase time.Duration

	CORSOrigins string

	ResendAPIKey  string
	FromEmail     string
	OpsAlertEmail string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		Timezone:          getEnv("TIMEZONE", "America/Sao_Paulo"),
		MilestoneScanTime: getEnv("MILESTONE_SCAN_TIME", "22:00"),

		EvolutionAPIURL: getEnv("EVOLUTION_API_URL", "http://localhost:8084"),
		EvolutionAPIKey: getEnv("EVOLUTION_API_KEY", ""),
		BusinessAPIURL:  getEnv("BUSINESS_API_URL", "https://graph.facebook.com/v18.0"),
		DefaultProvider: getEnv("DEFAULT_PROVIDER", "evolution"),

		QueueWorkers:     getIntEnv("QUEUE_WORKERS", 2),
		QueueMaxAttempts: getIntEnv("QUEUE_MAX_ATTEMPTS", 3),
		QueueBackoffBase: getDurationEnv("QUEUE_BACKOFF_BASE", 5*time.Second),

		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),

		ResendAPIKey:  getEnv("RESEND_API_KEY", ""),
		FromEmail:     getEnv("FROM_EMAIL", "noreply@example.com"),
		OpsAlertEmail: getEnv("OPS_ALERT_EMAIL", ""),
	}
}

// Location resolves the configured home timezone, falling back to
// America/Sao_Paulo (and finally UTC) when the value cannot be loaded.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation("America/Sao_Paulo"); err == nil {
		return loc
	}
	return time.UTC
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
