package config

import (
	"fmt"
	"os"
)

type Config struct {
	DatabasePath    string
	ContentBaseURL  string
	ContentDataset  string
	ContentAPIToken string
	RelationBaseURL string
	RelationAPIKey  string
	SessionSecret   string
	PlanExportPath  string
	LogLevel        string
}

func Load() (Config, error) {
	config := Config{
		DatabasePath:    envOrDefault("DATABASE_PATH", "./data/helseapp.db"),
		ContentBaseURL:  os.Getenv("CONTENT_BASE_URL"),
		ContentDataset:  envOrDefault("CONTENT_DATASET", "production"),
		ContentAPIToken: os.Getenv("CONTENT_API_TOKEN"),
		RelationBaseURL: os.Getenv("RELATION_BASE_URL"),
		RelationAPIKey:  os.Getenv("RELATION_API_KEY"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		PlanExportPath:  os.Getenv("PLAN_EXPORT_PATH"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
	}

	if config.ContentBaseURL == "" {
		return Config{}, fmt.Errorf("CONTENT_BASE_URL is required")
	}
	if config.RelationBaseURL == "" {
		return Config{}, fmt.Errorf("RELATION_BASE_URL is required")
	}
	if config.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required")
	}

	return config, nil
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
