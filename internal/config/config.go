package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// APIKeyEnv overrides wx.api_key when set
const APIKeyEnv = "OPENWEATHER_API_KEY"

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server     ServerConfig     `toml:"server"`     // HTTP server settings
	Logging    LoggingConfig    `toml:"logging"`    // Application logging settings
	Storage    StorageConfig    `toml:"storage"`    // Preference persistence settings
	Weather    WeatherConfig    `toml:"wx"`         // Weather provider settings
	Dashboard  DashboardConfig  `toml:"dashboard"`  // Panels, locations and sessions
	Templating TemplatingConfig `toml:"templating"` // Page template settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                   // Primary HTTP port for the server
	Host             string `toml:"host"`                   // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`   // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"`  // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`   // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts  []int  `toml:"additional_ports"`       // Additional HTTP ports to listen on (useful for multiple interfaces)
	StaticFilesDir   string `toml:"static_files_dir"`       // Directory to serve static files from (e.g., "www")
	StaticMaxAgeSecs int    `toml:"static_max_age_seconds"` // Browser cache lifetime of static files (0 = no caching)
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains preference persistence configuration
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"` // SQLite database file holding per-session preferences
}

// WeatherConfig contains weather provider configuration
type WeatherConfig struct {
	APIBaseURL            string  `toml:"api_base_url"`            // Provider base URL, e.g. https://api.openweathermap.org/data/2.5
	APIKey                string  `toml:"api_key"`                 // Provider API key (OPENWEATHER_API_KEY takes precedence)
	Units                 string  `toml:"units"`                   // Provider unit system ("metric")
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"` // HTTP request timeout in seconds (0 = no timeout)
	RateLimitRPS          float64 `toml:"rate_limit_rps"`          // Sustained provider requests per second (0 = unlimited)
	RateLimitBurst        int     `toml:"rate_limit_burst"`        // Requests allowed at once; raised to cover a full page load
	CacheTTLSeconds       int     `toml:"cache_ttl_seconds"`       // How long successful responses are reused (0 = no cache)
}

// DashboardConfig contains panel layout, location and session configuration
type DashboardConfig struct {
	DefaultLocation           string   `toml:"default_location"`             // Location shown when a browser has no saved search
	SecondaryLocations        []string `toml:"secondary_locations"`          // Locations of the "other cities" cards, in card order
	CityCards                 int      `toml:"city_cards"`                   // Number of "other cities" cards on the page
	ForecastCards             int      `toml:"forecast_cards"`               // Number of forecast cards on the page
	HighlightCards            int      `toml:"highlight_cards"`              // Number of highlight cards (highlights need 6)
	SessionCookieName         string   `toml:"session_cookie_name"`          // Cookie carrying the session id
	SessionIdleTimeoutMinutes int      `toml:"session_idle_timeout_minutes"` // In-memory sessions idle longer are dropped (0 = never)
}

// TemplatingConfig contains page template configuration
type TemplatingConfig struct {
	DashboardTemplate string `toml:"dashboard_template"`  // Path to the dashboard page template
	TemplateCacheSize int    `toml:"template_cache_size"` // Maximum number of templates to cache
	ReloadTemplates   bool   `toml:"reload_templates"`    // Whether to reload templates from disk (development mode)
}

// Load reads the TOML file at path. A .env file in the working directory is
// loaded first so that secrets can stay out of the config file.
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	config.applyEnv()

	return &config, nil
}

// applyEnv applies environment overrides
func (c *Config) applyEnv() {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		c.Weather.APIKey = key
	}
}

// LoadWithFallback loads configuration from the preferred path, then from
// configs/config.toml, then from config.toml
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}

	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/wx-dash.db"
	}

	if err := c.ValidateDashboard(); err != nil {
		return err
	}
	if err := c.ValidateWeather(); err != nil {
		return err
	}

	if c.Templating.DashboardTemplate == "" {
		c.Templating.DashboardTemplate = "templates/dashboard.html"
	}
	if c.Templating.TemplateCacheSize <= 0 {
		c.Templating.TemplateCacheSize = 10
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	portsSeen := make(map[int]bool)
	portsSeen[c.Server.Port] = true
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}

	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}
	if _, err := os.Stat(c.Server.StaticFilesDir); os.IsNotExist(err) {
		return fmt.Errorf("static files directory does not exist: %s", c.Server.StaticFilesDir)
	}

	return nil
}

func (c *Config) validateLogging() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}
	return nil
}

// ValidateDashboard validates the dashboard configuration
func (c *Config) ValidateDashboard() error {
	d := &c.Dashboard

	if strings.TrimSpace(d.DefaultLocation) == "" {
		d.DefaultLocation = "Dehradun,IN"
	}
	if d.SecondaryLocations == nil {
		d.SecondaryLocations = []string{"Manchester", "Edinburgh", "Bristol", "York"}
	}
	for i, loc := range d.SecondaryLocations {
		if strings.TrimSpace(loc) == "" {
			return fmt.Errorf("dashboard secondary_locations[%d] is empty", i)
		}
	}

	if d.CityCards == 0 && d.ForecastCards == 0 && d.HighlightCards == 0 {
		d.CityCards, d.ForecastCards, d.HighlightCards = 4, 5, 6
	}
	if d.CityCards < 0 || d.ForecastCards < 0 || d.HighlightCards < 0 {
		return fmt.Errorf("dashboard card counts must be 0 or greater")
	}

	if d.SessionCookieName == "" {
		d.SessionCookieName = "wxdash_session"
	}
	if d.SessionIdleTimeoutMinutes < 0 {
		return fmt.Errorf("dashboard session_idle_timeout_minutes must be 0 or greater: %d", d.SessionIdleTimeoutMinutes)
	}

	return nil
}

// ValidateWeather validates the weather configuration. It must run after
// ValidateDashboard since the burst depends on the secondary list.
func (c *Config) ValidateWeather() error {
	w := &c.Weather

	if w.APIBaseURL == "" {
		w.APIBaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if !strings.HasPrefix(w.APIBaseURL, "http://") && !strings.HasPrefix(w.APIBaseURL, "https://") {
		return fmt.Errorf("weather api_base_url must be an http(s) URL: %s", w.APIBaseURL)
	}
	if w.Units == "" {
		w.Units = "metric"
	}

	if w.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("weather request_timeout_seconds must be 0 or greater: %d", w.RequestTimeoutSeconds)
	}
	if w.CacheTTLSeconds < 0 {
		return fmt.Errorf("weather cache_ttl_seconds must be 0 or greater: %d", w.CacheTTLSeconds)
	}
	if w.RateLimitRPS < 0 {
		return fmt.Errorf("weather rate_limit_rps must be 0 or greater: %v", w.RateLimitRPS)
	}

	// A page load issues one primary and one request per secondary location at
	// once. The limiter is process-wide, so concurrent loads still queue.
	if minBurst := 1 + len(c.Dashboard.SecondaryLocations); w.RateLimitBurst < minBurst {
		w.RateLimitBurst = minBurst
	}

	if w.APIKey == "" {
		fmt.Printf("WARN: No weather API key provided (wx.api_key or %s) - every fetch will be rejected by the provider\n", APIKeyEnv)
	}

	return nil
}
