package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	// Unset key returns fallback
	os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "default" {
		t.Errorf("envOr unset key = %q, want %q", got, "default")
	}

	// Set key returns value
	t.Setenv("TEST_ENVOR_KEY", "custom")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "custom" {
		t.Errorf("envOr set key = %q, want %q", got, "custom")
	}

	// Empty string returns fallback
	t.Setenv("TEST_ENVOR_KEY", "")
	if got := envOr("TEST_ENVOR_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOr empty key = %q, want %q", got, "fallback")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "STORE_CREDENTIALS", "FEED_URL",
		"FRONTEND_ORIGIN", "SCAN_CONFIG_FILE", "LOG_LEVEL", "LOG_FILE",
		"INFISICAL_CLIENT_ID", "INFISICAL_CLIENT_SECRET",
		"MIN_TVL", "MAX_TVL", "MAX_LISTING_AGE", "SCAN_INTERVAL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "3000")
	}
	if cfg.FeedURL != "https://api.llama.fi/protocols" {
		t.Errorf("FeedURL = %q", cfg.FeedURL)
	}
	if cfg.FrontendOrigin != "*" {
		t.Errorf("FrontendOrigin = %q, want %q", cfg.FrontendOrigin, "*")
	}
	if cfg.TelegramToken != "" {
		t.Errorf("TelegramToken = %q, want empty", cfg.TelegramToken)
	}
	if cfg.StoreCredentials != "" {
		t.Errorf("StoreCredentials = %q, want empty", cfg.StoreCredentials)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel() = %v, want info", cfg.SlogLevel())
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("STORE_CREDENTIALS", `{"backend":"memory"}`)
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.TelegramToken != "test-token" {
		t.Errorf("TelegramToken = %q, want %q", cfg.TelegramToken, "test-token")
	}
	if cfg.TelegramChatID != "-100123" {
		t.Errorf("TelegramChatID = %q, want %q", cfg.TelegramChatID, "-100123")
	}
	if cfg.StoreCredentials != `{"backend":"memory"}` {
		t.Errorf("StoreCredentials = %q", cfg.StoreCredentials)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
}

func TestSlogLevelInvalid(t *testing.T) {
	cfg := Config{LogLevel: "chatty"}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel() = %v, want info", cfg.SlogLevel())
	}
}

func TestLoadScanConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadScanConfig("")
	if err != nil {
		t.Fatalf("LoadScanConfig error: %v", err)
	}
	if cfg.MinTVL != 5000 || cfg.MaxTVL != 1500000 {
		t.Errorf("TVL window = [%v, %v], want [5000, 1500000]", cfg.MinTVL, cfg.MaxTVL)
	}
	if cfg.MaxListingAge != 30*24*time.Hour {
		t.Errorf("MaxListingAge = %v, want 720h", cfg.MaxListingAge)
	}
	if cfg.Interval != 5*time.Minute {
		t.Errorf("Interval = %v, want 5m", cfg.Interval)
	}
}

func TestLoadScanConfigFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "scan.yaml")
	data := []byte("min_tvl: 10000\nmax_tvl: 2000000\nmax_listing_age: 168h\nscan_interval: 1m\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAX_TVL", "3000000")

	cfg, err := LoadScanConfig(path)
	if err != nil {
		t.Fatalf("LoadScanConfig error: %v", err)
	}
	if cfg.MinTVL != 10000 {
		t.Errorf("MinTVL = %v, want 10000", cfg.MinTVL)
	}
	if cfg.MaxTVL != 3000000 {
		t.Errorf("MaxTVL = %v, want env override 3000000", cfg.MaxTVL)
	}
	if cfg.MaxListingAge != 168*time.Hour {
		t.Errorf("MaxListingAge = %v, want 168h", cfg.MaxListingAge)
	}
	if cfg.Interval != time.Minute {
		t.Errorf("Interval = %v, want 1m", cfg.Interval)
	}
}

func TestLoadScanConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"max below min", map[string]string{"MIN_TVL": "5000", "MAX_TVL": "100"}},
		{"negative min", map[string]string{"MIN_TVL": "-1", "MAX_TVL": "100"}},
		{"interval too short", map[string]string{"SCAN_INTERVAL": "10ms"}},
		{"zero age", map[string]string{"MAX_LISTING_AGE": "0s"}},
		{"sub-second age", map[string]string{"MAX_LISTING_AGE": "900ms"}},
		{"unparsable", map[string]string{"MIN_TVL": "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadScanConfig(""); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadScanConfigMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := LoadScanConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseStoreCredentials(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		backend string
	}{
		{"postgres explicit", `{"backend":"postgres","database_url":"postgres://u:p@db/sentinel"}`, "postgres"},
		{"postgres inferred", `{"database_url":"postgres://db/sentinel"}`, "postgres"},
		{"redis inferred", `{"redis_url":"redis://cache:6379/0","redis_password":"pw"}`, "redis"},
		{"memory", `{"backend":"Memory"}`, "memory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseStoreCredentials(tt.raw)
			if err != nil {
				t.Fatalf("ParseStoreCredentials error: %v", err)
			}
			if c.Backend != tt.backend {
				t.Errorf("Backend = %q, want %q", c.Backend, tt.backend)
			}
		})
	}
}

func TestParseStoreCredentialsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", `{"backend":`},
		{"unknown backend", `{"backend":"firestore"}`},
		{"postgres without url", `{"backend":"postgres"}`},
		{"redis without url", `{"backend":"redis"}`},
		{"ambiguous", `{"database_url":"postgres://db","redis_url":"redis://cache"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStoreCredentials(tt.raw)
			if !errors.Is(err, ErrCredentials) {
				t.Errorf("err = %v, want ErrCredentials", err)
			}
		})
	}
}
