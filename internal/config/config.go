package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all application configuration
type Config struct {
	// Deployment environment, APP_ENV
	Env string

	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// AI gateway configuration
	AI AIConfig

	// Rejection notification configuration
	Notify NotifyConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	BulkConcurrency int
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// AIConfig holds the OpenAI-compatible gateway settings
type AIConfig struct {
	GatewayURL        string
	APIKey            string
	Model             string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	RetryMax          int
	SentimentCacheTTL time.Duration
}

// NotifyConfig holds rejection e-mail settings
type NotifyConfig struct {
	ResendAPIKey     string
	ResendURL        string
	From             string
	AppName          string
	AppURL           string
	PrimaryRecipient string
	CopyRecipient    string
	Workers          int
	QueueSize        int
	SendTimeout      time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Env: getEnv("APP_ENV", EnvDevelopment),
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BulkConcurrency: getIntEnv("BULK_CONCURRENCY", 8),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "blog_comments"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		AI: AIConfig{
			GatewayURL:        getEnv("AI_GATEWAY_URL", "https://ai-gateway.vercel.sh/v1"),
			APIKey:            getEnv("AI_GATEWAY_API_KEY", ""),
			Model:             getEnv("AI_MODERATION_MODEL", "openai/gpt-5"),
			Temperature:       getFloatEnv("AI_TEMPERATURE", 0.3),
			MaxTokens:         getIntEnv("AI_MAX_TOKENS", 500),
			Timeout:           getDurationEnv("AI_TIMEOUT", 15*time.Second),
			RetryMax:          getIntEnv("AI_RETRY_MAX", 1),
			SentimentCacheTTL: getDurationEnv("AI_SENTIMENT_CACHE_TTL", time.Hour),
		},
		Notify: NotifyConfig{
			ResendAPIKey:     getEnv("RESEND_API_KEY", ""),
			ResendURL:        getEnv("RESEND_API_URL", "https://api.resend.com/emails"),
			From:             getEnv("RESEND_FROM_EMAIL", "notifications@raphauy.dev"),
			AppName:          getEnv("APP_NAME", "gabizimmer.com"),
			AppURL:           getEnv("APP_URL", "http://localhost:3000"),
			PrimaryRecipient: getEnv("NOTIFY_PRIMARY_RECIPIENT", "gabi@gabizimmer.com"),
			CopyRecipient:    getEnv("NOTIFY_COPY_RECIPIENT", ""),
			Workers:          getIntEnv("NOTIFY_WORKERS", 4),
			QueueSize:        getIntEnv("NOTIFY_QUEUE_SIZE", 100),
			SendTimeout:      getDurationEnv("NOTIFY_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether real notifications must be sent
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("AI_TEMPERATURE must be between 0 and 2")
	}
	if c.Server.BulkConcurrency < 1 {
		return fmt.Errorf("BULK_CONCURRENCY must be at least 1")
	}
	if c.Notify.Workers < 1 {
		return fmt.Errorf("NOTIFY_WORKERS must be at least 1")
	}
	if c.Notify.QueueSize < 1 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be at least 1")
	}
	if c.IsProduction() {
		if c.Notify.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required in production")
		}
		if c.Notify.PrimaryRecipient == "" || c.Notify.CopyRecipient == "" {
			return fmt.Errorf("NOTIFY_PRIMARY_RECIPIENT and NOTIFY_COPY_RECIPIENT are required in production")
		}
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
