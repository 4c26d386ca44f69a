// Package config loads catalog configuration from command-line flags,
// environment variables, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Storage     StorageConfig
	Sync        SyncConfig
	Diagnostics DiagnosticsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	Reindex     bool // Rebuild the search index before serving
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds database and index locations and limits.
type StorageConfig struct {
	DataPath         string        // Directory holding catalog.db, search.bleve and the sync journal
	BusyTimeout      time.Duration // SQLite busy_timeout (default: 5s)
	OperationTimeout time.Duration // Upper bound for a single catalog operation (default: 10s)
}

// SyncConfig tunes the search index sync coordinator.
type SyncConfig struct {
	Workers        int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int     // 0 retries forever
	IndexRate      float64 // index writes per second per document kind, 0 disables throttling
	IndexBurst     int
}

// DiagnosticsConfig controls the metrics and health endpoint.
type DiagnosticsConfig struct {
	Enabled bool
	Addr    string
}

// DatabasePath is the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Storage.DataPath, "catalog.db")
}

// SearchPath is the Bleve index directory inside the data directory.
func (c *Config) SearchPath() string {
	return filepath.Join(c.Storage.DataPath, "search")
}

// JournalPath is the Badger directory holding pending sync tasks.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Storage.DataPath, "sync-journal")
}

// LoadConfig loads configuration from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the database, search index and sync journal")
	busyTimeout := fs.String("db-busy-timeout", "", "SQLite busy timeout (default: 5s)")
	opTimeout := fs.String("operation-timeout", "", "Timeout for a single catalog operation (default: 10s)")

	syncWorkers := fs.String("sync-workers", "", "Index sync workers (default: 4)")
	syncInitialBackoff := fs.String("sync-initial-backoff", "", "First retry delay for failed index writes (default: 100ms)")
	syncMaxBackoff := fs.String("sync-max-backoff", "", "Retry delay cap for failed index writes (default: 30s)")
	syncMaxAttempts := fs.String("sync-max-attempts", "", "Attempts per index task, 0 for unlimited (default: 0)")
	syncIndexRate := fs.String("sync-index-rate", "", "Index writes per second per document kind, 0 for unlimited (default: 200)")

	metricsEnabled := fs.String("metrics-enabled", "", "Serve /metrics and /healthz (default: false)")
	metricsAddr := fs.String("metrics-addr", "", "Listen address for diagnostics (default: :9464)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	reindex := fs.Bool("reindex", false, "Rebuild the search index from the database on startup")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			Reindex:     *reindex,
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Sync: SyncConfig{
			Workers:     getIntConfigValue(*syncWorkers, "SYNC_WORKERS", 4),
			MaxAttempts: getIntConfigValue(*syncMaxAttempts, "SYNC_MAX_ATTEMPTS", 0),
			IndexBurst:  getIntConfigValue("", "SYNC_INDEX_BURST", 50),
		},
		Diagnostics: DiagnosticsConfig{
			Enabled: getBoolConfigValue(*metricsEnabled, "METRICS_ENABLED", false),
			Addr:    getConfigValue(*metricsAddr, "METRICS_ADDR", ":9464"),
		},
	}

	var err error
	if cfg.Storage.BusyTimeout, err = getDurationConfigValue(*busyTimeout, "DB_BUSY_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.Storage.OperationTimeout, err = getDurationConfigValue(*opTimeout, "OPERATION_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.Sync.InitialBackoff, err = getDurationConfigValue(*syncInitialBackoff, "SYNC_INITIAL_BACKOFF", "100ms"); err != nil {
		return nil, err
	}
	if cfg.Sync.MaxBackoff, err = getDurationConfigValue(*syncMaxBackoff, "SYNC_MAX_BACKOFF", "30s"); err != nil {
		return nil, err
	}

	rateStr := getConfigValue(*syncIndexRate, "SYNC_INDEX_RATE", "200")
	if cfg.Sync.IndexRate, err = strconv.ParseFloat(rateStr, 64); err != nil {
		return nil, fmt.Errorf("invalid sync index rate %q: %w", rateStr, err)
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
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
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

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Storage.OperationTimeout <= 0 {
		return errors.New("operation timeout must be positive")
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("sync workers must be at least 1, got %d", c.Sync.Workers)
	}
	if c.Sync.MaxAttempts < 0 {
		return fmt.Errorf("sync max attempts cannot be negative, got %d", c.Sync.MaxAttempts)
	}
	if c.Sync.InitialBackoff <= 0 || c.Sync.MaxBackoff < c.Sync.InitialBackoff {
		return fmt.Errorf("sync backoff must satisfy 0 < initial (%s) <= max (%s)", c.Sync.InitialBackoff, c.Sync.MaxBackoff)
	}
	if c.Sync.IndexRate < 0 {
		return errors.New("sync index rate cannot be negative")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned as is.
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

// expandDataPath defaults the data directory to ~/Bookshelf/catalog.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	expanded, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, "Bookshelf", "catalog"))
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
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

// getBoolConfigValue accepts "true", "1", "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(strings.ReplaceAll(envKey, "_", " ")), strValue, err)
	}
	return d, nil
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

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
