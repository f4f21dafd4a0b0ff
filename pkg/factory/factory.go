package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skylinknet/pppmon/config"
	"github.com/skylinknet/pppmon/internal/logger"
	"gopkg.in/yaml.v3"
)

var (
	defaultConfig *config.Config
	configPath    string
)

// InitConfigFactory initializes the configuration factory
func InitConfigFactory(cfgPath string) (*config.Config, error) {
	if cfgPath == "" {
		cfgPath = getDefaultConfigPath()
	}

	configPath = cfgPath
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(cfg)

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	defaultConfig = cfg
	logger.InitLog.Infof("Configuration loaded from: %s", cfgPath)
	return cfg, nil
}

// GetConfig returns the default configuration
func GetConfig() *config.Config {
	return defaultConfig
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	return configPath
}

// loadConfig loads configuration from a YAML file
func loadConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables
	content := os.ExpandEnv(string(data))

	cfg := &config.Config{}
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// applyDefaults applies default values to the configuration
func applyDefaults(cfg *config.Config) {
	// Info defaults
	if cfg.Info == nil {
		cfg.Info = &config.Info{}
	}
	if cfg.Info.Version == "" {
		cfg.Info.Version = "1.0.0"
	}
	if cfg.Info.Description == "" {
		cfg.Info.Description = "Skylink PPPoE Monitor"
	}

	// Logger defaults
	if cfg.Logger == nil {
		cfg.Logger = &config.Logger{}
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.RotationCount == 0 {
		cfg.Logger.RotationCount = 3
	}
	if cfg.Logger.RotationMaxAge == 0 {
		cfg.Logger.RotationMaxAge = 7
	}
	if cfg.Logger.RotationMaxSize == 0 {
		cfg.Logger.RotationMaxSize = 50
	}

	// NBI defaults
	if cfg.NBI != nil {
		if cfg.NBI.Scheme == "" {
			cfg.NBI.Scheme = "http"
		}
		if cfg.NBI.BindingIPv4 == "" {
			cfg.NBI.BindingIPv4 = "0.0.0.0"
		}
		if cfg.NBI.Port == 0 {
			cfg.NBI.Port = 8080
		}
		if cfg.NBI.ReadTimeout == 0 {
			cfg.NBI.ReadTimeout = 30 * time.Second
		}
		if cfg.NBI.WriteTimeout == 0 {
			// Poll runs respond on this server; give them room to finish.
			cfg.NBI.WriteTimeout = 120 * time.Second
		}
	}

	// Database defaults
	if cfg.Database == nil {
		cfg.Database = &config.Database{}
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = "postgres://localhost:5432/pppmon?sslmode=disable"
	}
	if cfg.Database.Pool == nil {
		cfg.Database.Pool = &config.DBPool{}
	}
	if cfg.Database.Pool.MaxIdleConns == 0 {
		cfg.Database.Pool.MaxIdleConns = 10
	}
	if cfg.Database.Pool.MaxOpenConns == 0 {
		cfg.Database.Pool.MaxOpenConns = 25
	}
	if cfg.Database.Pool.ConnMaxLifetime == 0 {
		cfg.Database.Pool.ConnMaxLifetime = 5 * time.Minute
	}
	if cfg.Database.Pool.ConnMaxIdleTime == 0 {
		cfg.Database.Pool.ConnMaxIdleTime = 1 * time.Minute
	}

	// Poller defaults
	if cfg.Poller == nil {
		cfg.Poller = &config.Poller{}
	}
	if cfg.Poller.Timeout == 0 {
		cfg.Poller.Timeout = 10 * time.Second
	}
	if cfg.Poller.Concurrency == 0 {
		cfg.Poller.Concurrency = 4
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *config.Config) error {
	// Validate logger
	if cfg.Logger != nil {
		validLevels := []string{"panic", "fatal", "error", "warn", "warning", "info", "debug", "trace"}
		if !contains(validLevels, strings.ToLower(cfg.Logger.Level)) {
			return fmt.Errorf("invalid log level: %s", cfg.Logger.Level)
		}
	}

	// Validate NBI
	if cfg.NBI != nil {
		if cfg.NBI.Port < 1 || cfg.NBI.Port > 65535 {
			return fmt.Errorf("invalid NBI port: %d", cfg.NBI.Port)
		}
		if cfg.NBI.Scheme != "http" && cfg.NBI.Scheme != "https" {
			return fmt.Errorf("invalid NBI scheme: %s", cfg.NBI.Scheme)
		}
		if cfg.NBI.Scheme == "https" && cfg.NBI.TLS == nil {
			return fmt.Errorf("TLS configuration required for HTTPS scheme")
		}
		if cfg.NBI.TLS != nil {
			if cfg.NBI.TLS.Cert == "" || cfg.NBI.TLS.Key == "" {
				return fmt.Errorf("TLS cert and key are required")
			}
			if _, err := os.Stat(cfg.NBI.TLS.Cert); err != nil {
				return fmt.Errorf("TLS cert file not found: %s", cfg.NBI.TLS.Cert)
			}
			if _, err := os.Stat(cfg.NBI.TLS.Key); err != nil {
				return fmt.Errorf("TLS key file not found: %s", cfg.NBI.TLS.Key)
			}
		}
	}

	// Validate Database
	if cfg.Database != nil {
		if cfg.Database.URL == "" {
			return fmt.Errorf("database URL is required")
		}
		if !strings.HasPrefix(cfg.Database.URL, "postgres://") && !strings.HasPrefix(cfg.Database.URL, "postgresql://") {
			return fmt.Errorf("invalid database URL: %s", cfg.Database.URL)
		}
	}

	// Validate Poller
	if cfg.Poller != nil {
		if cfg.Poller.Timeout < time.Second {
			return fmt.Errorf("poller timeout too small: %s", cfg.Poller.Timeout)
		}
		if cfg.Poller.Concurrency < 1 {
			return fmt.Errorf("invalid poller concurrency: %d", cfg.Poller.Concurrency)
		}
	}

	return nil
}

// getDefaultConfigPath returns the default configuration file path
func getDefaultConfigPath() string {
	// Check environment variable
	if path := os.Getenv("PPPMON_CONFIG_PATH"); path != "" {
		return path
	}

	// Check common locations
	commonPaths := []string{
		"./config.yaml",
		"./config.yml",
		"./conf/config.yaml",
		"./conf/config.yml",
		"/etc/pppmon/config.yaml",
		"/etc/pppmon/config.yml",
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	// Default to current directory
	return "config.yaml"
}

// contains checks if a string slice contains a value
func contains(slice []string, value string) bool {
	for _, s := range slice {
		if s == value {
			return true
		}
	}
	return false
}

// ReloadConfig reloads the configuration from file
func ReloadConfig() (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("no configuration path set")
	}
	return InitConfigFactory(configPath)
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *config.Config, path string) error {
	if path == "" {
		path = configPath
	}
	if path == "" {
		return fmt.Errorf("no configuration path specified")
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal configuration to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	logger.InitLog.Infof("Configuration saved to: %s", path)
	return nil
}
