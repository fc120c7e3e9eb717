package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubToken  string
	Organization string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// AnalysisConfig is the per-run configuration passed into each operation.
// The token and organization travel with the request rather than living in
// process-wide state, so one server can serve runs for different tokens.
type AnalysisConfig struct {
	Token        string `json:"token"`
	Organization string `json:"organization"`
}

// Validate checks that the per-run configuration is complete
func (c AnalysisConfig) Validate() error {
	if c.Token == "" {
		return &ConfigError{Field: "token", Message: "GitHub token is required"}
	}
	if c.Organization == "" {
		return &ConfigError{Field: "organization", Message: "organization name is required"}
	}
	return nil
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		GitHubToken:  getEnv("GITHUB_TOKEN", ""),
		Organization: getEnv("GITHUB_ORG", ""),
		APIPort:      getEnv("API_PORT", "8080"),
		APIHost:      getEnv("API_HOST", "localhost"),
		APIEndpoint:  getEnv("API_ENDPOINT", "http://localhost:8080"),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Analysis returns the per-run configuration derived from the environment
func (c *Config) Analysis() AnalysisConfig {
	return AnalysisConfig{
		Token:        c.GitHubToken,
		Organization: c.Organization,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
