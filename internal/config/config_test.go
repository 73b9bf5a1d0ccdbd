package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadAndValidateDefaults(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	static := t.TempDir()
	path := writeConfig(t, `
[server]
port = 8080
static_files_dir = "`+filepath.ToSlash(static)+`"

[wx]
api_key = "file-key"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Weather.APIKey != "file-key" {
		t.Errorf("api key = %q", cfg.Weather.APIKey)
	}
	if cfg.Weather.APIBaseURL != "https://api.openweathermap.org/data/2.5" || cfg.Weather.Units != "metric" {
		t.Errorf("unexpected provider defaults %+v", cfg.Weather)
	}
	if cfg.Dashboard.DefaultLocation != "Dehradun,IN" {
		t.Errorf("default location = %q", cfg.Dashboard.DefaultLocation)
	}
	if strings.Join(cfg.Dashboard.SecondaryLocations, ",") != "Manchester,Edinburgh,Bristol,York" {
		t.Errorf("secondary locations = %v", cfg.Dashboard.SecondaryLocations)
	}
	if cfg.Dashboard.CityCards != 4 || cfg.Dashboard.ForecastCards != 5 || cfg.Dashboard.HighlightCards != 6 {
		t.Errorf("unexpected card counts %+v", cfg.Dashboard)
	}
	if cfg.Weather.RateLimitBurst != 5 {
		t.Errorf("burst should cover a page load, got %d", cfg.Weather.RateLimitBurst)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging defaults %+v", cfg.Logging)
	}
	if cfg.Storage.SQLitePath == "" || cfg.Templating.DashboardTemplate == "" {
		t.Error("storage and template paths should default")
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")
	path := writeConfig(t, `
[server]
port = 8080

[wx]
api_key = "file-key"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Weather.APIKey != "env-key" {
		t.Errorf("expected env key to win, got %q", cfg.Weather.APIKey)
	}
}

func TestValidateRejects(t *testing.T) {
	static := filepath.ToSlash(t.TempDir())
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad port", "[server]\nport = 0\n", "invalid server port"},
		{"duplicate port", "[server]\nport = 8080\nadditional_ports = [8080]\nstatic_files_dir = \"" + static + "\"\n", "duplicate port"},
		{"missing static dir", "[server]\nport = 8080\nstatic_files_dir = \"/does/not/exist\"\n", "static files directory"},
		{"bad level", "[server]\nport = 8080\nstatic_files_dir = \"" + static + "\"\n[logging]\nlevel = \"loud\"\n", "invalid logging level"},
		{"empty secondary", "[server]\nport = 8080\nstatic_files_dir = \"" + static + "\"\n[dashboard]\nsecondary_locations = [\"York\", \" \"]\n", "secondary_locations[1]"},
		{"bad base url", "[server]\nport = 8080\nstatic_files_dir = \"" + static + "\"\n[wx]\napi_base_url = \"ftp://x\"\n", "api_base_url"},
		{"negative timeout", "[server]\nport = 8080\nstatic_files_dir = \"" + static + "\"\n[wx]\nrequest_timeout_seconds = -1\n", "request_timeout_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadWithFallbackMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := LoadWithFallback(""); err == nil {
		t.Error("expected error when no config file exists")
	}
}

func TestLoadWithFallbackPrefersExplicitPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.MkdirAll("configs", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("configs/config.toml", []byte("[server]\nport = 1111\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	explicit := writeConfig(t, "[server]\nport = 2222\n")

	cfg, err := LoadWithFallback(explicit)
	if err != nil {
		t.Fatalf("LoadWithFallback failed: %v", err)
	}
	if cfg.Server.Port != 2222 {
		t.Errorf("expected explicit config, got port %d", cfg.Server.Port)
	}

	cfg, err = LoadWithFallback("")
	if err != nil {
		t.Fatalf("LoadWithFallback failed: %v", err)
	}
	if cfg.Server.Port != 1111 {
		t.Errorf("expected configs/config.toml, got port %d", cfg.Server.Port)
	}
}

func TestShippedConfigHasNoRequestTimeout(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "config.toml")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("shipped config not available: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Weather.RequestTimeoutSeconds != 0 {
		t.Errorf("shipped request_timeout_seconds = %d, want 0 (no timeout)", cfg.Weather.RequestTimeoutSeconds)
	}
}

func TestRateLimitBurstCoversPageLoad(t *testing.T) {
	static := filepath.ToSlash(t.TempDir())
	tests := []struct {
		name  string
		wx    string
		dash  string
		burst int
	}{
		{"raised to fan-out", "rate_limit_burst = 1", "secondary_locations = [\"A\", \"B\", \"C\", \"D\", \"E\", \"F\", \"G\"]", 8},
		{"larger burst kept", "rate_limit_burst = 20", "secondary_locations = [\"A\"]", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := "[server]\nport = 8080\nstatic_files_dir = \"" + static + "\"\n[wx]\napi_key = \"k\"\n" + tt.wx + "\n[dashboard]\n" + tt.dash + "\n"
			cfg, err := Load(writeConfig(t, body))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if cfg.Weather.RateLimitBurst != tt.burst {
				t.Errorf("burst = %d, want %d", cfg.Weather.RateLimitBurst, tt.burst)
			}
		})
	}
}
