package main

import (
	"fmt"
	"strconv"
	"time"
)

// Deficiency store backends.
const (
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Host        string
	Port        int
	Environment string
	LogLevel    string

	// Database settings
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Deficiency store settings
	DeficiencyStore          string
	FirestoreProjectID       string
	FirestoreCredentialsFile string

	// EligibilityTablePath optionally replaces the built-in eligibility
	// table with a YAML file.
	EligibilityTablePath string

	// Queue settings
	QueueWorkerCount     int
	QueuePollInterval    time.Duration
	QueueJobTimeout      time.Duration
	QueueShutdownTimeout time.Duration
	QueueMaxAttempts     int
	DeriverConcurrency   int

	// Rate limit settings
	RateLimitRPS   float64
	RateLimitBurst int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		// Server settings
		Host:        envString(getenv, "SERVER_HOST", "localhost"),
		Port:        envInt(getenv, "SERVER_PORT", 8080),
		Environment: envString(getenv, "ENVIRONMENT", "dev"),
		LogLevel:    envString(getenv, "LOG_LEVEL", "info"),

		// Database settings
		DBUser:     envString(getenv, "DB_USER", "postgres"),
		DBPassword: envString(getenv, "DB_PASSWORD", ""),
		DBHost:     envString(getenv, "DB_HOSTNAME", "localhost"),
		DBPort:     envString(getenv, "DB_PORT", "5432"),
		DBName:     envString(getenv, "DB_NAME", "postgres"),

		// Deficiency store settings
		DeficiencyStore:          envString(getenv, "DEFICIENCY_STORE", StorePostgres),
		FirestoreProjectID:       envString(getenv, "FIRESTORE_PROJECT_ID", ""),
		FirestoreCredentialsFile: envString(getenv, "FIRESTORE_CREDENTIALS_FILE", ""),

		EligibilityTablePath: envString(getenv, "ELIGIBILITY_TABLE_PATH", ""),

		// Queue settings
		QueueWorkerCount:     envInt(getenv, "QUEUE_WORKER_COUNT", 3),
		QueuePollInterval:    envDuration(getenv, "QUEUE_POLL_INTERVAL", time.Second),
		QueueJobTimeout:      envDuration(getenv, "QUEUE_JOB_TIMEOUT", 60*time.Second),
		QueueShutdownTimeout: envDuration(getenv, "QUEUE_SHUTDOWN_TIMEOUT", 10*time.Second),
		QueueMaxAttempts:     envInt(getenv, "QUEUE_MAX_ATTEMPTS", 5),
		DeriverConcurrency:   envInt(getenv, "DERIVER_CONCURRENCY", 8),

		// Rate limit settings
		RateLimitRPS:   envFloat(getenv, "RATE_LIMIT_RPS", 100),
		RateLimitBurst: envInt(getenv, "RATE_LIMIT_BURST", 200),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the daemon runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// validate checks settings that would fail later at startup.
func (c *Config) validate() error {
	switch c.DeficiencyStore {
	case StorePostgres:
	case StoreFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID must be set when DEFICIENCY_STORE=firestore")
		}
	default:
		return fmt.Errorf("DEFICIENCY_STORE must be %q or %q, got %q", StorePostgres, StoreFirestore, c.DeficiencyStore)
	}

	if c.QueueWorkerCount < 1 {
		return fmt.Errorf("QUEUE_WORKER_COUNT must be at least 1")
	}
	if c.QueueMaxAttempts < 1 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be at least 1")
	}

	if c.IsProduction() && c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD must be set in production environment")
	}
	return nil
}

// Helper functions for loading environment variables with defaults.

func envString(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(getenv func(string) string, key string, defaultValue int) int {
	if value := getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func envFloat(getenv func(string) string, key string, defaultValue float64) float64 {
	if value := getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func envDuration(getenv func(string) string, key string, defaultValue time.Duration) time.Duration {
	if value := getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
