package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port           int
	Env            string
	LogLevel       string
	RequestTimeout time.Duration

	// Database; empty disables report persistence
	DatabaseURL string

	// GitHub
	GitHubToken string
	CloneDir    string

	Analysis AnalysisConfig
}

// AnalysisConfig bounds the per-file pipeline and the repository fan-out
type AnalysisConfig struct {
	Workers      int
	FileTimeout  time.Duration
	MaxFileBytes int
	SyntaxCheck  bool
	CacheEntries int
}

// DefaultAnalysisConfig returns the limits used when nothing is configured
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Workers:      runtime.NumCPU(),
		FileTimeout:  10 * time.Second,
		MaxFileBytes: 1 << 20,
		SyntaxCheck:  true,
		CacheEntries: 2048,
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	def := DefaultAnalysisConfig()
	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 120*time.Second),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		GitHubToken:    getEnv("GITHUB_TOKEN", ""),
		CloneDir:       getEnv("CLONE_DIR", os.TempDir()),

		Analysis: AnalysisConfig{
			Workers:      getEnvInt("ANALYSIS_WORKERS", def.Workers),
			FileTimeout:  getEnvDuration("ANALYSIS_FILE_TIMEOUT", def.FileTimeout),
			MaxFileBytes: getEnvInt("ANALYSIS_MAX_FILE_BYTES", def.MaxFileBytes),
			SyntaxCheck:  getEnvBool("ANALYSIS_SYNTAX_CHECK", def.SyntaxCheck),
			CacheEntries: getEnvInt("ANALYSIS_CACHE_ENTRIES", def.CacheEntries),
		},
	}

	return cfg, nil
}

// Validate checks that limits are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return c.Analysis.Validate()
}

// Validate checks that analysis limits are positive
func (a AnalysisConfig) Validate() error {
	if a.Workers <= 0 {
		return fmt.Errorf("ANALYSIS_WORKERS must be positive, got %d", a.Workers)
	}
	if a.FileTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_FILE_TIMEOUT must be positive")
	}
	if a.MaxFileBytes <= 0 {
		return fmt.Errorf("ANALYSIS_MAX_FILE_BYTES must be positive, got %d", a.MaxFileBytes)
	}
	if a.CacheEntries < 0 {
		return fmt.Errorf("ANALYSIS_CACHE_ENTRIES must not be negative, got %d", a.CacheEntries)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// PersistenceEnabled reports whether reports are stored
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
