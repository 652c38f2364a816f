// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Data       DataConfig
	Server     ServerConfig
	Auth       AuthConfig
	Pagination PaginationConfig
	RateLimit  RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds storage configuration.
type DataConfig struct {
	// BasePath is the directory holding the Badger database and the auth key.
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name          string
	Port          string        // Server port (default: 8080)
	PublicBaseURL string        // Base URL prepended to image links; empty means relative URLs
	ReadTimeout   time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout  time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout   time.Duration // HTTP idle timeout (default: 60s)
}

// AuthConfig holds token verification configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens, hex-encoded (64 chars).
	// Set from auth.LoadOrGenerateKey during bootstrap.
	AccessTokenKey string
	// AccessTokenDuration bounds dev-minted tokens (e.g., 15m).
	AccessTokenDuration time.Duration
}

// PaginationConfig holds the recognized listing defaults, resolved once at the
// boundary before a request enters the core.
type PaginationConfig struct {
	DefaultLimit     int    // Items per page when the caller omits limit (default: 20)
	MaxLimit         int    // Upper bound on requested limit (default: 100)
	DefaultSortOrder string // "asc" or "desc" by creation time (default: desc)
}

// RateLimitConfig holds vote-endpoint rate limiting configuration.
type RateLimitConfig struct {
	VotesPerSecond float64 // Sustained votes per second per user (default: 5)
	VoteBurst      int     // Burst allowance per user (default: 10)
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for data storage")
	serverName := flag.String("server-name", "", "Name for the server")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	publicBaseURL := flag.String("public-url", "", "Base URL prepended to image links")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	accessTokenDuration := flag.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	defaultLimit := flag.String("page-default-limit", "", "Default page size (default: 20)")
	maxLimit := flag.String("page-max-limit", "", "Maximum page size (default: 100)")
	defaultSortOrder := flag.String("page-sort-order", "", "Default sort order: asc or desc (default: desc)")
	votesPerSecond := flag.String("vote-rate", "", "Sustained votes per second per user (default: 5)")
	voteBurst := flag.String("vote-burst", "", "Vote burst allowance per user (default: 10)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Name:          getConfigValue(*serverName, "SERVER_NAME", "Quorum Server"),
			Port:          getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			PublicBaseURL: getConfigValue(*publicBaseURL, "PUBLIC_BASE_URL", ""),
		},
		Pagination: PaginationConfig{
			DefaultLimit:     getIntConfigValue(*defaultLimit, "PAGE_DEFAULT_LIMIT", 20),
			MaxLimit:         getIntConfigValue(*maxLimit, "PAGE_MAX_LIMIT", 100),
			DefaultSortOrder: getConfigValue(*defaultSortOrder, "PAGE_SORT_ORDER", "desc"),
		},
		RateLimit: RateLimitConfig{
			VotesPerSecond: getFloatConfigValue(*votesPerSecond, "VOTE_RATE", 5),
			VoteBurst:      getIntConfigValue(*voteBurst, "VOTE_BURST", 10),
		},
	}

	accessDurationStr := getConfigValue(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m")
	accessDuration, err := time.ParseDuration(accessDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid access token duration %q: %w", accessDurationStr, err)
	}
	cfg.Auth.AccessTokenDuration = accessDuration

	for name, raw := range map[string]*string{
		"read":  readTimeout,
		"write": writeTimeout,
		"idle":  idleTimeout,
	} {
		envKey := "SERVER_" + strings.ToUpper(name) + "_TIMEOUT"
		def := "15s"
		if name == "idle" {
			def = "60s"
		}
		str := getConfigValue(*raw, envKey, def)
		d, err := time.ParseDuration(str)
		if err != nil {
			return nil, fmt.Errorf("invalid %s timeout %q: %w", name, str, err)
		}
		switch name {
		case "read":
			cfg.Server.ReadTimeout = d
		case "write":
			cfg.Server.WriteTimeout = d
		case "idle":
			cfg.Server.IdleTimeout = d
		}
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if err := c.Pagination.validate(); err != nil {
		return err
	}

	if c.RateLimit.VotesPerSecond <= 0 {
		return fmt.Errorf("vote rate must be positive, got %v", c.RateLimit.VotesPerSecond)
	}
	if c.RateLimit.VoteBurst < 1 {
		return fmt.Errorf("vote burst must be at least 1, got %d", c.RateLimit.VoteBurst)
	}

	return nil
}

// validate checks the pagination defaults.
func (p *PaginationConfig) validate() error {
	if p.DefaultLimit < 1 {
		return fmt.Errorf("default page limit must be at least 1, got %d", p.DefaultLimit)
	}
	if p.MaxLimit < p.DefaultLimit {
		return fmt.Errorf("max page limit %d is below default limit %d", p.MaxLimit, p.DefaultLimit)
	}
	switch p.DefaultSortOrder {
	case "asc", "desc":
	default:
		return fmt.Errorf("invalid default sort order: %s (must be asc or desc)", p.DefaultSortOrder)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Quorum", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
