package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tastebud.yaml")

	write := func(t *testing.T, content string) {
		t.Helper()
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to setup test file: %v", err)
		}
	}

	tests := []struct {
		name          string
		setup         func(t *testing.T)
		validate      func(*testing.T, *Config)
		checkFile     func(*testing.T)
		expectedError bool
	}{
		{
			name:  "NewFile_Defaults",
			setup: func(t *testing.T) {},
			validate: func(t *testing.T, cfg *Config) {
				if time.Duration(cfg.Cache.TTL) != 10*time.Minute {
					t.Errorf("expected default cache ttl 10m, got %v", time.Duration(cfg.Cache.TTL))
				}
				if cfg.DB.Driver != "sqlite" {
					t.Errorf("expected default driver 'sqlite', got '%s'", cfg.DB.Driver)
				}
				if !cfg.Places.RejectZeroCoordinates {
					t.Error("expected reject_zero_coordinates to default to true")
				}
				if cfg.Cache.Coalesce {
					t.Error("expected coalesce to default to false")
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if !strings.Contains(string(content), "ttl: 10m0s") {
					t.Error("config file missing default cache ttl")
				}
				if !strings.Contains(string(content), "# Options: sqlite, postgres") {
					t.Error("config file missing driver comment")
				}
			},
		},
		{
			name: "ExistingFile_Override",
			setup: func(t *testing.T) {
				write(t, "cache:\n  ttl: 5m\n  coalesce: true\nserver:\n  address: 0.0.0.0:9000\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				if time.Duration(cfg.Cache.TTL) != 5*time.Minute {
					t.Errorf("expected ttl 5m, got %v", time.Duration(cfg.Cache.TTL))
				}
				if !cfg.Cache.Coalesce {
					t.Error("expected coalesce true")
				}
				if cfg.Server.Address != "0.0.0.0:9000" {
					t.Errorf("expected address override, got '%s'", cfg.Server.Address)
				}
				if time.Duration(cfg.Cache.SweepInterval) != time.Hour {
					t.Errorf("expected default sweep interval to survive merge, got %v", time.Duration(cfg.Cache.SweepInterval))
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "sweep_interval") {
					t.Error("existing config file should not be rewritten")
				}
			},
		},
		{
			name: "Secrets_Env_Fallback",
			setup: func(t *testing.T) {
				t.Setenv("FOURSQUARE_API_KEY", "fsq_secret")
				t.Setenv("SUPABASE_URL", "https://example.supabase.co")
				t.Setenv("SUPABASE_ANON_KEY", "anon_secret")
				write(t, "places:\n  api_key: \"\"\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Places.APIKey != "fsq_secret" {
					t.Errorf("expected api key 'fsq_secret', got '%s'", cfg.Places.APIKey)
				}
				if cfg.Auth.URL != "https://example.supabase.co" {
					t.Errorf("expected auth url from env, got '%s'", cfg.Auth.URL)
				}
				if cfg.Auth.AnonKey != "anon_secret" {
					t.Errorf("expected anon key from env, got '%s'", cfg.Auth.AnonKey)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "fsq_secret") {
					t.Error("environment secret should NOT be persisted to config file")
				}
			},
		},
		{
			name: "File_Wins_Over_Env",
			setup: func(t *testing.T) {
				t.Setenv("FOURSQUARE_API_KEY", "from_env")
				write(t, "places:\n  api_key: from_file\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Places.APIKey != "from_file" {
					t.Errorf("expected file value to win, got '%s'", cfg.Places.APIKey)
				}
			},
			checkFile: func(t *testing.T) {},
		},
		{
			name: "NewFile_Env_Not_Persisted",
			setup: func(t *testing.T) {
				t.Setenv("FOURSQUARE_API_KEY", "fresh_secret")
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Places.APIKey != "fresh_secret" {
					t.Errorf("expected env api key, got '%s'", cfg.Places.APIKey)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "fresh_secret") {
					t.Error("environment secret should NOT be persisted to config file")
				}
			},
		},
		{
			name: "Postgres_DSN_From_Env",
			setup: func(t *testing.T) {
				t.Setenv("DATABASE_URL", "postgres://u:p@localhost/tastebud")
				write(t, "db:\n  driver: postgres\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.DB.DSN != "postgres://u:p@localhost/tastebud" {
					t.Errorf("expected dsn from env, got '%s'", cfg.DB.DSN)
				}
			},
			checkFile: func(t *testing.T) {},
		},
		{
			name: "Postgres_Without_DSN",
			setup: func(t *testing.T) {
				t.Setenv("DATABASE_URL", "")
				write(t, "db:\n  driver: postgres\n")
			},
			expectedError: true,
		},
		{
			name: "Invalid_Driver",
			setup: func(t *testing.T) {
				write(t, "db:\n  driver: mysql\n")
			},
			expectedError: true,
		},
		{
			name: "Invalid_TTL",
			setup: func(t *testing.T) {
				write(t, "cache:\n  ttl: 0s\n")
			},
			expectedError: true,
		},
		{
			name: "Invalid_YAML",
			setup: func(t *testing.T) {
				write(t, "cache: [not a map]")
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Remove(configPath)
			tt.setup(t)

			cfg, err := Load(configPath)
			if (err != nil) != tt.expectedError {
				t.Fatalf("Load() error = %v, expectedError %v", err, tt.expectedError)
			}
			if err == nil {
				tt.validate(t, cfg)
				tt.checkFile(t)
			}
		})
	}
}

func TestGenerateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "configs", "tastebud.yaml")

	if err := GenerateDefault(configPath); err != nil {
		t.Fatalf("GenerateDefault() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("GenerateDefault() did not create file")
	}

	if err := GenerateDefault(configPath); err != nil {
		t.Errorf("GenerateDefault() error on second run = %v", err)
	}
}
