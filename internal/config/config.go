package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	BotToken    string
	BotPassword string
	Database    DatabaseConfig
	Learning    LearningConfig

	// MetricsAddr is the listen address of the /metrics endpoint, empty disables it
	MetricsAddr string
	// Debug enables development logging and strict invariant checks
	Debug bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// LearningConfig holds card scheduling settings
type LearningConfig struct {
	SettingsFile string
	SourceLang   string
	TargetLang   string
	TickInterval time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:    os.Getenv("BOT_TOKEN"),
		BotPassword: os.Getenv("BOT_PASSWORD"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "wordflash"),
			User:     getEnv("DB_USER", "wordflash"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Learning: LearningConfig{
			SettingsFile: getEnv("SETTINGS_FILE", "settings.yaml"),
			SourceLang:   getEnv("SOURCE_LANG", "en"),
			TargetLang:   getEnv("TARGET_LANG", "ru"),
		},
		MetricsAddr: os.Getenv("METRICS_ADDR"),
	}

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.BotPassword == "" {
		return nil, fmt.Errorf("BOT_PASSWORD is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	tick, err := time.ParseDuration(getEnv("TICK_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: %w", err)
	}
	if tick <= 0 {
		return nil, fmt.Errorf("TICK_INTERVAL must be positive")
	}
	cfg.Learning.TickInterval = tick

	debug, err := strconv.ParseBool(getEnv("DEBUG", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEBUG: %w", err)
	}
	cfg.Debug = debug

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
