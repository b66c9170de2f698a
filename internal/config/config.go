package config

import (
	"fmt"
	"os"
)

type Config struct {
	// Vision identification API
	VisionAPIKey     string
	VisionAPIBaseURL string

	// Catalog seed data (optional XLSX workbook; embedded seed otherwise)
	CatalogXLSXPath string

	// Local storage
	UploadDir  string
	LedgerPath string

	// Optional Supabase storage mirror for uploaded photos
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseStorageBucket  string

	// Auth (optional; empty secret disables the bearer gate)
	AuthJWTSecret string

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	cfg := &Config{
		VisionAPIKey:     getEnv("VISION_API_KEY", ""),
		VisionAPIBaseURL: getEnv("VISION_API_BASE_URL", "https://api.gloveiq-vision.com/v1/"),

		CatalogXLSXPath: getEnv("CATALOG_XLSX", ""),

		UploadDir:  getEnv("UPLOAD_DIR", "data/uploads"),
		LedgerPath: getEnv("LEDGER_PATH", "data/ledger.jsonl"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "glove-photos"),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.VisionAPIKey == "" {
		return fmt.Errorf("VISION_API_KEY is required")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if c.LedgerPath == "" {
		return fmt.Errorf("LEDGER_PATH must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
