// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Port string

	UploadDir        string
	ConversationsDir string
	MaxUploadBytes   int64

	// Generation backend. An API key selects the Gemini API backend;
	// otherwise project+location select Vertex AI.
	APIKey       string
	GCPProjectID string
	GCPLocation  string
	TextModel    string
	VisionModel  string
	UseMockLLM   bool

	ArchiveBackend string // "files" or "firestore"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("RELAY_PORT", "8080"),

		UploadDir:        getEnv("RELAY_UPLOAD_DIR", "uploads"),
		ConversationsDir: getEnv("RELAY_CONVERSATIONS_DIR", "conversations"),
		MaxUploadBytes:   int64(getEnvInt("RELAY_MAX_UPLOAD_BYTES", 16*1024*1024)),

		APIKey:       getEnv("GEMINI_API_KEY", ""),
		GCPProjectID: getEnv("RELAY_GCP_PROJECT", ""),
		GCPLocation:  getEnv("RELAY_GCP_LOCATION", "us-central1"),
		TextModel:    getEnv("RELAY_TEXT_MODEL", "gemini-1.5-flash"),
		VisionModel:  getEnv("RELAY_VISION_MODEL", "gemini-1.5-pro"),
		UseMockLLM:   getEnvBool("RELAY_USE_MOCK_LLM", false),

		ArchiveBackend: getEnv("RELAY_ARCHIVE_BACKEND", "files"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("RELAY_PORT cannot be empty")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("RELAY_UPLOAD_DIR cannot be empty")
	}
	if c.ConversationsDir == "" {
		return fmt.Errorf("RELAY_CONVERSATIONS_DIR cannot be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("RELAY_MAX_UPLOAD_BYTES must be > 0")
	}
	if c.ArchiveBackend != "files" && c.ArchiveBackend != "firestore" {
		return fmt.Errorf("RELAY_ARCHIVE_BACKEND must be \"files\" or \"firestore\"")
	}
	if c.ArchiveBackend == "firestore" && c.GCPProjectID == "" {
		return fmt.Errorf("RELAY_GCP_PROJECT is required for the firestore archive backend")
	}
	if !c.UseMockLLM && c.APIKey == "" && c.GCPProjectID == "" {
		return fmt.Errorf("either GEMINI_API_KEY or RELAY_GCP_PROJECT must be set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
