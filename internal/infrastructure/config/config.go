// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for vault configuration and data.
	DefaultConfigDir = ".vault"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite file name inside the config dir.
	DefaultDatabaseFile = "vault.db"

	// DefaultLockoutThreshold is the failed-attempt count after which the next
	// login is routed to the forgot-password prompt.
	DefaultLockoutThreshold = 3
	// DefaultGracePeriod is how long a deleted record can still be restored.
	DefaultGracePeriod = 3500 * time.Millisecond
)

// Config holds static configuration (read-only after init).
type Config struct {
	SQLite    SQLiteConfig    `yaml:"sqlite,omitempty"`
	Auth      AuthConfig      `yaml:"auth,omitempty"`
	Delete    DeleteConfig    `yaml:"delete,omitempty"`
	Biometric BiometricConfig `yaml:"biometric,omitempty"`
	Log       LogConfig       `yaml:"log,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. Relative paths are
	// resolved against the config directory.
	Path string `yaml:"path,omitempty"`
}

// AuthConfig holds authentication gate settings.
type AuthConfig struct {
	LockoutThreshold int          `yaml:"lockout_threshold,omitempty"`
	Argon2           Argon2Config `yaml:"argon2,omitempty"`
}

// Argon2Config holds argon2id parameters for the stored password hash.
type Argon2Config struct {
	Time      uint32 `yaml:"time,omitempty"`
	MemoryKiB uint32 `yaml:"memory_kib,omitempty"`
	Threads   uint8  `yaml:"threads,omitempty"`
	KeyLength uint32 `yaml:"key_length,omitempty"`
}

// DeleteConfig holds deferred-delete settings.
type DeleteConfig struct {
	GracePeriod time.Duration `yaml:"grace_period,omitempty"`
}

// BiometricConfig holds the platform biometric command.
type BiometricConfig struct {
	// Command is the verification argv, e.g. ["fprintd-verify"]. Empty disables biometrics.
	Command []string `yaml:"command,omitempty"`
	// EnrolledCheck exits zero when a credential is enrolled, e.g. ["fprintd-list", "alice"].
	EnrolledCheck []string `yaml:"enrolled_check,omitempty"`
	// AutoTrigger starts biometric login on entry when it is available.
	AutoTrigger bool `yaml:"auto_trigger"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `yaml:"level,omitempty"`
	Development bool   `yaml:"development,omitempty"`
	Output      string `yaml:"output,omitempty"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	// Textfile is written after each command for the node_exporter textfile
	// collector. Empty disables export.
	Textfile string `yaml:"textfile,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		SQLite: SQLiteConfig{
			Path: DefaultDatabaseFile,
		},
		Auth: AuthConfig{
			LockoutThreshold: DefaultLockoutThreshold,
			Argon2: Argon2Config{
				Time:      1,
				MemoryKiB: 64 * 1024,
				Threads:   4,
				KeyLength: 32,
			},
		},
		Delete: DeleteConfig{
			GracePeriod: DefaultGracePeriod,
		},
		Biometric: BiometricConfig{
			AutoTrigger: true,
		},
		Log: LogConfig{
			Level:  "info",
			Output: "stderr",
		},
	}
}

// Load loads configuration from the .vault directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'vault init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.resolvePaths(basePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would make the vault misbehave.
func (c *Config) Validate() error {
	if c.Auth.LockoutThreshold < 0 {
		return fmt.Errorf("auth.lockout_threshold must not be negative, got %d", c.Auth.LockoutThreshold)
	}
	if c.Delete.GracePeriod <= 0 {
		return fmt.Errorf("delete.grace_period must be positive, got %s", c.Delete.GracePeriod)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("VAULT_DB_PATH"); path != "" {
		c.SQLite.Path = path
	}
	if level := os.Getenv("VAULT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// resolvePaths makes relative file paths absolute under the config dir.
func (c *Config) resolvePaths(basePath string) {
	if c.SQLite.Path == "" {
		c.SQLite.Path = DefaultDatabaseFile
	}
	if c.SQLite.Path != ":memory:" && !filepath.IsAbs(c.SQLite.Path) {
		c.SQLite.Path = filepath.Join(ConfigDir(basePath), c.SQLite.Path)
	}
	if c.Metrics.Textfile != "" && !filepath.IsAbs(c.Metrics.Textfile) {
		c.Metrics.Textfile = filepath.Join(ConfigDir(basePath), c.Metrics.Textfile)
	}
}

// ConfigDir returns the path to the .vault config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a vault config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
