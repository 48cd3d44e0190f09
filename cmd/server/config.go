package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// config is the process configuration read from the environment.
type config struct {
	Env      string
	Port     string
	LogLevel string

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	JWTSecret string
	JWTTTL    time.Duration

	CustomFieldCache       bool
	FilterStatementTimeout time.Duration
}

// loadConfig reads .env (when present) and then the environment. Variables
// already set in the environment win over .env entries.
func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := config{
		Env:                    getEnv("APP_ENV", "development"),
		Port:                   getEnv("APP_PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DBMaxConns:             int32(getEnvInt("DB_MAX_CONNS", 20)),
		DBMinConns:             int32(getEnvInt("DB_MIN_CONNS", 2)),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTTTL:                 getEnvDuration("JWT_TTL", 24*time.Hour),
		CustomFieldCache:       getEnvBool("CUSTOM_FIELD_CACHE", false),
		FilterStatementTimeout: getEnvDuration("FILTER_STATEMENT_TIMEOUT", 10*time.Second),
	}

	if cfg.DatabaseURL == "" {
		return config{}, fmt.Errorf("required environment variable DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		if cfg.Env != "development" {
			return config{}, fmt.Errorf("required environment variable JWT_SECRET not set")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func (c config) development() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
