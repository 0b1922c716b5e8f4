package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/korjavin/basketbot/pkg/logger"
)

// Config holds all configuration for the application
type Config struct {
	// Telegram Bot configuration
	BotToken string

	// OpenAI configuration
	OpenAIAPIBase string
	OpenAIAPIKey  string
	OpenAIModel   string

	// Application configuration
	DataDir      string
	ReminderHour int

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logger.Global.Warn("Error loading .env file: %v", err)
	}

	cfg := &Config{}

	// Required configurations
	cfg.BotToken = os.Getenv("BOT_TOKEN")
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	// Optional configurations with defaults
	cfg.OpenAIAPIBase = getEnvWithDefault("OPENAI_API_BASE", "https://api.openai.com/v1")
	cfg.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", "gpt-3.5-turbo")
	cfg.DataDir = getEnvWithDefault("DATA_DIR", "./data")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getEnvWithDefault("LOG_FORMAT", "text")

	hour, err := strconv.Atoi(getEnvWithDefault("REMINDER_HOUR", "17"))
	if err != nil || hour < 0 || hour > 23 {
		return nil, fmt.Errorf("REMINDER_HOUR must be an hour between 0 and 23")
	}
	cfg.ReminderHour = hour

	return cfg, nil
}

// Redacted returns a copy that is safe to log
func (c Config) Redacted() Config {
	if len(c.BotToken) > 8 {
		c.BotToken = c.BotToken[:8] + "...REDACTED..."
	}
	if len(c.OpenAIAPIKey) > 8 {
		c.OpenAIAPIKey = c.OpenAIAPIKey[:8] + "...REDACTED..."
	}
	return c
}

// getEnvWithDefault returns the value of the environment variable or the default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
