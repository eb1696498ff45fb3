package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const (
	StorageMemory    = "memory"
	StorageFirestore = "firestore"
)

type Config struct {
	Mode Mode

	Port     string
	LogLevel string
	// CORSOrigin is the allowed web origin, "*" when empty.
	CORSOrigin string

	// AppID namespaces every record: artifacts/{AppID}/users/{uid}/...
	AppID          string
	StorageBackend string // "memory" or "firestore"

	GCPProjectID string
	GCPLocation  string
	ModelName    string
	GeminiAPIKey string
	UseMockLLM   bool // true = use mock even on GCP
	AITimeout    time.Duration
	AIRatePerMin int

	// IdleTimeout is how long an unused conversation or timeline feed is kept.
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

// Load reads all env vars and builds the config
func Load() (*Config, error) {
	mode := ModeLocal
	if getEnv("FARUM_MODE", "local") == "gcp" {
		mode = ModeGCP
	}

	cfg := &Config{
		Mode: mode,

		Port:       getEnv("FARUM_PORT", getEnv("PORT", "8080")),
		LogLevel:   getEnv("FARUM_LOG_LEVEL", "info"),
		CORSOrigin: getEnv("FARUM_CORS_ORIGIN", ""),

		AppID:          getEnv("FARUM_APP_ID", "default-app-id"),
		StorageBackend: getEnv("FARUM_STORAGE_BACKEND", StorageMemory),

		GCPProjectID: getEnv("FARUM_GCP_PROJECT", ""),
		GCPLocation:  getEnv("FARUM_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("FARUM_MODEL_NAME", "gemini-2.0-flash"),
		GeminiAPIKey: getEnv("FARUM_GEMINI_API_KEY", ""),
		UseMockLLM:   getBoolEnv("FARUM_USE_MOCK_LLM", mode == ModeLocal),
	}

	var err error
	if cfg.AITimeout, err = getEnvDuration("FARUM_AI_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("FARUM_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.IdleTimeout, err = getEnvDuration("FARUM_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AIRatePerMin, err = getEnvInt("FARUM_AI_RATE_PER_MIN", 20); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		return errors.New("FARUM_GCP_PROJECT must be set in gcp mode")
	}
	switch c.StorageBackend {
	case StorageMemory:
	case StorageFirestore:
		if c.GCPProjectID == "" {
			return errors.New("FARUM_GCP_PROJECT is required for the firestore storage backend")
		}
	default:
		return fmt.Errorf("FARUM_STORAGE_BACKEND: unknown backend %q", c.StorageBackend)
	}
	if !c.UseMockLLM && c.GeminiAPIKey == "" && c.GCPProjectID == "" {
		return errors.New("FARUM_GEMINI_API_KEY or FARUM_GCP_PROJECT is required unless FARUM_USE_MOCK_LLM is set")
	}
	if c.IdleTimeout < time.Second {
		return errors.New("FARUM_IDLE_TIMEOUT must be at least 1s")
	}
	if c.AIRatePerMin < 0 {
		return errors.New("FARUM_AI_RATE_PER_MIN must not be negative")
	}
	return nil
}
