package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings
const (
	EnvDBPath   = "PHPDOC_DB_PATH"
	EnvLogLevel = "PHPDOC_LOG_LEVEL"
)

// EnvFile is read by LoadFromDir for the variables above; the process
// environment takes precedence over it
const EnvFile = ".env"

// DefaultDBPath is used when neither the config file nor the environment set one
var DefaultDBPath = filepath.Join(os.Getenv("HOME"), ".phpdoc", "index.db")

// Config holds all configuration for the reflector, CLI and MCP server.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Markers MarkersConfig `yaml:"markers"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig controls file discovery and the reflection pipeline.
type IndexConfig struct {
	Includes  []string `yaml:"includes"`
	Excludes  []string `yaml:"excludes"`
	Encoding  string   `yaml:"encoding"` // source charset, e.g. "utf-8", "iso-8859-1"
	Workers   int      `yaml:"workers"`
	BatchSize int      `yaml:"batch_size"`
}

// MarkersConfig lists the comment markers collected per file.
type MarkersConfig struct {
	Terms []string `yaml:"terms"`
}

// StorageConfig holds the index database location.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes:  []string{"**/*.php", "**/*.inc", "**/*.phtml"},
			Excludes:  []string{"**/vendor/**", "**/node_modules/**", "**/.git/**", "**/cache/**"},
			Encoding:  "utf-8",
			Workers:   4,
			BatchSize: 20,
		},
		Markers: MarkersConfig{
			Terms: []string{"TODO", "FIXME"},
		},
		Storage: StorageConfig{
			DBPath: DefaultDBPath,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

func load(path string, dotenv map[string]string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(dotenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir looks for phpdoc.yaml, then .phpdoc/config.yaml, in dir.
// A .env file in dir may set the PHPDOC_* overrides.
func LoadFromDir(dir string) (*Config, error) {
	dotenv, err := godotenv.Read(filepath.Join(dir, EnvFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", EnvFile, err)
	}

	for _, path := range []string{
		filepath.Join(dir, "phpdoc.yaml"),
		filepath.Join(dir, ".phpdoc", "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return load(path, dotenv)
		}
	}

	cfg := DefaultConfig()
	cfg.applyEnv(dotenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(dotenv map[string]string) {
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
	if v := lookup(EnvDBPath); v != "" {
		c.Storage.DBPath = v
	}
	if v := lookup(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks that globs compile and numeric settings are usable
func (c *Config) Validate() error {
	var errs []error
	for _, p := range append(append([]string(nil), c.Index.Includes...), c.Index.Excludes...) {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid glob pattern %q", p))
		}
	}
	if c.Index.Workers < 1 {
		errs = append(errs, fmt.Errorf("index.workers must be at least 1, got %d", c.Index.Workers))
	}
	if c.Index.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("index.batch_size must be at least 1, got %d", c.Index.BatchSize))
	}
	if _, err := htmlindex.Get(c.Index.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("unknown index.encoding %q", c.Index.Encoding))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel maps logging.level onto a slog level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Logging.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	return level, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
