package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Places  PlacesConfig  `yaml:"places"`
	Auth    AuthConfig    `yaml:"auth"`
	Cache   CacheConfig   `yaml:"cache"`
	Request RequestConfig `yaml:"request"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig selects the relational store.
type DBConfig struct {
	Driver string `yaml:"driver"` // "sqlite", "postgres"
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// PlacesConfig holds settings for the upstream places API.
type PlacesConfig struct {
	BaseURL               string `yaml:"base_url"`
	APIKey                string `yaml:"api_key"`
	RejectZeroCoordinates bool   `yaml:"reject_zero_coordinates"`
}

// AuthConfig holds settings for the token verification endpoint.
type AuthConfig struct {
	URL      string   `yaml:"url"`
	AnonKey  string   `yaml:"anon_key"`
	CacheTTL Duration `yaml:"cache_ttl"`
}

// CacheConfig holds query cache settings.
type CacheConfig struct {
	TTL           Duration `yaml:"ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
	Coalesce      bool     `yaml:"coalesce"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Timeout Duration `yaml:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:8080",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Driver: "sqlite",
			Path:   "./data/tastebud.db",
		},
		Places: PlacesConfig{
			BaseURL:               "https://api.foursquare.com/v3/places",
			RejectZeroCoordinates: true,
		},
		Cache: CacheConfig{
			TTL:           Duration(10 * time.Minute),
			SweepInterval: Duration(1 * time.Hour),
		},
		Request: RequestConfig{
			Timeout: Duration(15 * time.Second),
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// Secrets missing from the file are taken from the environment but never written back.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	fallback := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	fallback(&cfg.Places.APIKey, "FOURSQUARE_API_KEY")
	fallback(&cfg.Auth.URL, "SUPABASE_URL")
	fallback(&cfg.Auth.AnonKey, "SUPABASE_ANON_KEY")
	fallback(&cfg.DB.DSN, "DATABASE_URL")
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "sqlite":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.driver is postgres but no dsn is set (db.dsn or DATABASE_URL)")
		}
	default:
		return fmt.Errorf("invalid db.driver '%s': must be 'sqlite' or 'postgres'", c.DB.Driver)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", time.Duration(c.Cache.TTL))
	}
	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("cache.sweep_interval must not be negative")
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# tastebud Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
# Secrets may be left empty and supplied through the environment:
#   FOURSQUARE_API_KEY, SUPABASE_URL, SUPABASE_ANON_KEY, DATABASE_URL

`)
	data = append(header, data...)

	reDriver := regexp.MustCompile(`(?m)^(\s+)driver:`)
	data = reDriver.ReplaceAll(data, []byte("${1}# Options: sqlite, postgres\n${1}driver:"))

	reSweep := regexp.MustCompile(`(?m)^(\s+)sweep_interval:`)
	data = reSweep.ReplaceAll(data, []byte("${1}# 0 disables the periodic sweep\n${1}sweep_interval:"))

	reAuthTTL := regexp.MustCompile(`(?m)^(\s+)cache_ttl:`)
	data = reAuthTTL.ReplaceAll(data, []byte("${1}# Verified token cache lifetime, 0 disables\n${1}cache_ttl:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
