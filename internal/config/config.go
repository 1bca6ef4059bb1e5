package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvAPIURL    = "SFDASH_API_URL"
	EnvAPIKey    = "SFDASH_API_KEY"
	EnvLogLevel  = "SFDASH_LOG_LEVEL"
	EnvMasterKey = "SFDASH_MASTER_KEY"
	EnvOffline   = "SFDASH_OFFLINE"
)

type Config struct {
	Theme              string        `toml:"theme"`
	DefaultProfile     string        `toml:"default_profile"`
	RefreshInterval    time.Duration `toml:"-"`
	RefreshIntervalStr string        `toml:"refresh_interval"`
	MaxHistory         int           `toml:"max_history"`
	LogLevel           string        `toml:"log_level"`
	FallbackDir        string        `toml:"fallback_dir,omitempty"`
	OfflineMirror      bool          `toml:"offline_mirror"`
	Offline            bool          `toml:"-"`
	API                APIConfig     `toml:"api"`
}

type APIConfig struct {
	BaseURL           string        `toml:"base_url"`
	Key               string        `toml:"-"`
	Timeout           time.Duration `toml:"-"`
	TimeoutStr        string        `toml:"timeout"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	CalcConcurrency   int           `toml:"calc_concurrency"`
}

func DefaultConfig() *Config {
	return &Config{
		Theme:              "solarized-dark",
		RefreshInterval:    30 * time.Second,
		RefreshIntervalStr: "30s",
		MaxHistory:         120,
		LogLevel:           "info",
		OfflineMirror:      true,
		API: APIConfig{
			BaseURL:         "http://localhost:8000",
			Timeout:         30 * time.Second,
			TimeoutStr:      "30s",
			CalcConcurrency: 4,
		},
	}
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.RefreshIntervalStr != "" {
		d, err := time.ParseDuration(cfg.RefreshIntervalStr)
		if err == nil {
			cfg.RefreshInterval = d
		}
	}
	if cfg.API.TimeoutStr != "" {
		d, err := time.ParseDuration(cfg.API.TimeoutStr)
		if err == nil {
			cfg.API.Timeout = d
		}
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// Load reads the config file, then a .env file in the working directory,
// then the SFDASH_* environment variables, later sources winning.
func Load(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// LoadDotEnv exports the variables of a dotenv file without overriding ones
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := lookup(EnvAPIKey); ok {
		c.API.Key = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvOffline); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Offline = b
		}
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = d.RefreshInterval
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = d.MaxHistory
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = d.API.Timeout
	}
	if c.API.CalcConcurrency <= 0 {
		c.API.CalcConcurrency = d.API.CalcConcurrency
	}
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must not be negative, got %v", c.API.RequestsPerSecond)
	}
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("refresh_interval must be at least 1s, got %v", c.RefreshInterval)
	}
	return nil
}

// SaveConfig writes cfg to path, creating the parent directory.
func SaveConfig(cfg *Config, path string) error {
	cfg.RefreshIntervalStr = cfg.RefreshInterval.String()
	cfg.API.TimeoutStr = cfg.API.Timeout.String()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
