package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// AppAddr is the listen address for the HTTP server, e.g. ":8080".
	AppAddr string

	// SurrealDB connection settings.
	DBUrl  string
	DBNs   string
	DBDb   string
	DBUser string
	DBPass string

	// SessionSecret signs the session cookies.
	SessionSecret string

	// MessagingBackend selects the message store implementation:
	// "surreal" (default) or "memory".
	MessagingBackend string

	// DocumentsDir is the on-disk root for uploaded document blobs.
	DocumentsDir string

	// ScreeningRulesDir holds the tengo screening rules for investments.
	// Empty disables screening.
	ScreeningRulesDir string
}

// New loads configuration from environment variables.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		AppAddr:           getEnv("APP_ADDR", ":8080"),
		DBUrl:             os.Getenv("SURREAL_URL"),
		DBUser:            os.Getenv("SURREAL_USER"),
		DBPass:            os.Getenv("SURREAL_PASS"),
		DBNs:              os.Getenv("SURREAL_NS"),
		DBDb:              os.Getenv("SURREAL_DB"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		MessagingBackend:  getEnv("MESSAGING_BACKEND", "surreal"),
		DocumentsDir:      getEnv("DOCUMENTS_DIR", "data/documents"),
		ScreeningRulesDir: os.Getenv("SCREENING_RULES_DIR"),
	}

	if cfg.SessionSecret == "" {
		log.Fatal("Required environment variable SESSION_SECRET is not set.")
	}
	if cfg.MessagingBackend != "memory" {
		if cfg.DBUrl == "" || cfg.DBNs == "" || cfg.DBDb == "" {
			log.Fatal("Required environment variables SURREAL_URL, SURREAL_NS, or SURREAL_DB are not set.")
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
