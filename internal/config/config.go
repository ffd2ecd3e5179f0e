// Package config loads tablediff settings from an optional YAML file and the environment
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap/zapcore"

	"github.com/koba/table-diff/internal/database"
	"github.com/koba/table-diff/internal/diff"
)

// DefaultPath is the config file read when no path is given
const DefaultPath = "tablediff.yaml"

// Config holds all configuration for tablediff.
// Environment variables override YAML values. The database password is only
// read from the environment.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Compare  CompareConfig  `yaml:"compare"`
	Database DatabaseConfig `yaml:"database"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level" env:"TABLEDIFF_LOG_LEVEL" env-default:"warn"`
	Format string `yaml:"format" env:"TABLEDIFF_LOG_FORMAT" env-default:"console"`
}

// CompareConfig holds comparison defaults
type CompareConfig struct {
	AbsTolerance float64 `yaml:"abs_tolerance" env:"TABLEDIFF_ABS_TOL" env-default:"0"`
	RelTolerance float64 `yaml:"rel_tolerance" env:"TABLEDIFF_REL_TOL" env-default:"0"`
	IgnoreSpaces bool    `yaml:"ignore_spaces" env:"TABLEDIFF_IGNORE_SPACES" env-default:"false"`
	IgnoreCase   bool    `yaml:"ignore_case" env:"TABLEDIFF_IGNORE_CASE" env-default:"false"`
	SampleSize   int     `yaml:"sample_size" env:"TABLEDIFF_SAMPLE_SIZE" env-default:"10"`
	TopValues    int     `yaml:"top_values" env:"TABLEDIFF_TOP_VALUES" env-default:"5"`
}

// DatabaseConfig holds the connection used for db:<table> inputs
type DatabaseConfig struct {
	Type     string `yaml:"type" env:"DB_TYPE" env-default:""`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:""` // derived from Type if empty
	Database string `yaml:"database" env:"DB_NAME" env-default:""`
	User     string `yaml:"user" env:"DB_USER" env-default:""`
	Password string `yaml:"-" env:"DB_PASSWORD"`
	RowLimit int    `yaml:"row_limit" env:"DB_ROW_LIMIT" env-default:"0"`
}

// Load reads path (when it exists) with environment overrides, or the
// environment alone otherwise
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if cfg.Database.Port == "" {
		cfg.Database.Port = database.DefaultPort(cfg.Database.Type)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	if c.Compare.AbsTolerance < 0 || c.Compare.RelTolerance < 0 {
		return errors.New("compare tolerances must not be negative")
	}
	if c.Compare.SampleSize < 0 || c.Compare.TopValues < 0 {
		return errors.New("compare.sample_size and compare.top_values must not be negative")
	}

	if c.Database.Type != "" {
		if _, err := database.NewDatabase(c.DatabaseConfig()); err != nil {
			return fmt.Errorf("database.type: %w", err)
		}
	}
	if c.Database.RowLimit < 0 {
		return errors.New("database.row_limit must not be negative")
	}

	return nil
}

// CompareOptions returns the comparison defaults as diff options
func (c *Config) CompareOptions() diff.Options {
	return diff.Options{
		AbsTolerance: c.Compare.AbsTolerance,
		RelTolerance: c.Compare.RelTolerance,
		IgnoreSpaces: c.Compare.IgnoreSpaces,
		IgnoreCase:   c.Compare.IgnoreCase,
	}
}

// DatabaseConfig returns the connection settings for the database package
func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Type:     c.Database.Type,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Database: c.Database.Database,
		User:     c.Database.User,
		Password: c.Database.Password,
	}
}
