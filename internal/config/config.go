// Package config loads the service configuration from YAML with
// FITHARMONY_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/fitharmony/internal/fitness"
	"github.com/claude/fitharmony/internal/harmony"
	"github.com/claude/fitharmony/internal/normalize"
	"github.com/claude/fitharmony/internal/planner"
)

type Config struct {
	Server     ServerConfig         `yaml:"server"`
	Auth       AuthConfig           `yaml:"auth"`
	Database   DatabaseConfig       `yaml:"database"`
	SQLite     SQLiteConfig         `yaml:"sqlite"`
	Tailscale  TailscaleConfig      `yaml:"tailscale"`
	Search     harmony.Params       `yaml:"search"`
	Limits     LimitsConfig         `yaml:"limits"`
	Weights    fitness.Weights      `yaml:"weights"`
	Thresholds normalize.Thresholds `yaml:"thresholds"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig points at a PostgreSQL health store. It is optional; an
// empty host disables the per-user plan endpoint's database source.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// SQLiteConfig points at an exported readings file, used instead of
// PostgreSQL when set.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// LimitsConfig bounds what a single request may ask for.
type LimitsConfig struct {
	MaxIterations int `yaml:"max_iterations"`
	MaxMemorySize int `yaml:"max_memory_size"`
	MaxRestarts   int `yaml:"max_restarts"`
}

// Enabled reports whether a PostgreSQL source is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Default returns a configuration with the stock search, weight and
// threshold values and no data sources.
func Default() *Config {
	pc := planner.DefaultConfig()
	return &Config{
		Server:     ServerConfig{Host: "127.0.0.1", Port: 8080},
		Tailscale:  TailscaleConfig{Hostname: "fitharmony"},
		Search:     pc.Search,
		Limits:     LimitsConfig{MaxIterations: pc.MaxIterationsLimit, MaxMemorySize: pc.MaxMemorySize, MaxRestarts: pc.MaxRestarts},
		Weights:    pc.Weights,
		Thresholds: pc.Thresholds,
	}
}

// Planner returns the planner configuration carried by c.
func (c *Config) Planner() planner.Config {
	return planner.Config{
		Search:             c.Search,
		Weights:            c.Weights,
		Thresholds:         c.Thresholds,
		MaxIterationsLimit: c.Limits.MaxIterations,
		MaxMemorySize:      c.Limits.MaxMemorySize,
		MaxRestarts:        c.Limits.MaxRestarts,
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. Env vars use the prefix FITHARMONY_ and
// underscore-separated paths:
//
//	FITHARMONY_SERVER_HOST, FITHARMONY_SERVER_PORT,
//	FITHARMONY_DB_HOST, FITHARMONY_DB_PORT, FITHARMONY_DB_NAME,
//	FITHARMONY_DB_USER, FITHARMONY_DB_PASSWORD, FITHARMONY_DB_SSLMODE,
//	FITHARMONY_SQLITE_PATH, FITHARMONY_AUTH_API_KEY,
//	FITHARMONY_TS_ENABLED, FITHARMONY_TS_HOSTNAME, FITHARMONY_TS_STATE_DIR,
//	FITHARMONY_SEARCH_MAX_ITERATIONS, FITHARMONY_SEARCH_DEADLINE
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FITHARMONY_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FITHARMONY_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FITHARMONY_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FITHARMONY_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FITHARMONY_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FITHARMONY_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FITHARMONY_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FITHARMONY_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("FITHARMONY_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("FITHARMONY_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("FITHARMONY_TS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("FITHARMONY_TS_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("FITHARMONY_TS_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	if v := os.Getenv("FITHARMONY_SEARCH_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxIterations = n
		}
	}
	if v := os.Getenv("FITHARMONY_SEARCH_DEADLINE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.Deadline = d
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Database.Enabled() {
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
		if c.SQLite.Path != "" {
			return errors.New("database and sqlite are mutually exclusive")
		}
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if c.Limits.MaxIterations < c.Search.MaxIterations {
		return fmt.Errorf("limits.max_iterations (%d) is below search.max_iterations (%d)", c.Limits.MaxIterations, c.Search.MaxIterations)
	}
	if c.Limits.MaxMemorySize < c.Search.MemorySize {
		return fmt.Errorf("limits.max_memory_size (%d) is below search.memory_size (%d)", c.Limits.MaxMemorySize, c.Search.MemorySize)
	}
	if c.Limits.MaxRestarts < 1 {
		return fmt.Errorf("limits.max_restarts must be >= 1")
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if c.Thresholds.LegArmRatioLow >= c.Thresholds.LegArmRatioHigh {
		return fmt.Errorf("thresholds.leg_arm_ratio_low must be below leg_arm_ratio_high")
	}
	return nil
}
