package weather

import "time"

// Condition is one entry of the provider's "weather" array
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"` // Coarse category, e.g. "Clouds"
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Coordinates of the resolved location
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MainReadings holds the "main" block of a provider response
type MainReadings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

// Clouds holds the cloud cover percentage
type Clouds struct {
	All int `json:"all"`
}

// Precipitation holds rain/snow volumes in millimeters
type Precipitation struct {
	OneHour   *float64 `json:"1h,omitempty"`
	ThreeHour *float64 `json:"3h,omitempty"`
}

// Wind holds wind speed (m/s with metric units) and direction
type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
	Gust  float64 `json:"gust,omitempty"`
}

// SunInfo is the "sys" block of a current-weather response
type SunInfo struct {
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// CurrentWeather is the provider's current-weather payload.
// Clouds, Rain and Wind may be absent and read as zero through the accessors.
type CurrentWeather struct {
	Name       string         `json:"name"`
	Coord      Coordinates    `json:"coord"`
	Weather    []Condition    `json:"weather"`
	Main       MainReadings   `json:"main"`
	Visibility int            `json:"visibility"`
	Wind       *Wind          `json:"wind,omitempty"`
	Clouds     *Clouds        `json:"clouds,omitempty"`
	Rain       *Precipitation `json:"rain,omitempty"`
	Dt         int64          `json:"dt"`
	Sys        SunInfo        `json:"sys"`
	Timezone   int            `json:"timezone"` // Offset from UTC in seconds
}

// Category returns the primary condition category, or "" when absent
func (w *CurrentWeather) Category() string {
	if len(w.Weather) == 0 {
		return ""
	}
	return w.Weather[0].Main
}

// CloudCover returns the cloud percentage, 0 if absent
func (w *CurrentWeather) CloudCover() int {
	if w.Clouds == nil {
		return 0
	}
	return w.Clouds.All
}

// RainLastHour returns the 1-hour precipitation volume, 0 if absent
func (w *CurrentWeather) RainLastHour() float64 {
	if w.Rain == nil || w.Rain.OneHour == nil {
		return 0
	}
	return *w.Rain.OneHour
}

// WindSpeed returns the wind speed, 0 if absent
func (w *CurrentWeather) WindSpeed() float64 {
	if w.Wind == nil {
		return 0
	}
	return w.Wind.Speed
}

// ForecastEntry is one timestep of a forecast series
type ForecastEntry struct {
	Dt      int64        `json:"dt"`
	Main    MainReadings `json:"main"`
	Weather []Condition  `json:"weather"`
	Clouds  *Clouds      `json:"clouds,omitempty"`
	Wind    *Wind        `json:"wind,omitempty"`
	Pop     float64      `json:"pop"` // Probability of precipitation
	DtTxt   string       `json:"dt_txt"`
}

// Category returns the entry's condition category, or "" when absent
func (e *ForecastEntry) Category() string {
	if len(e.Weather) == 0 {
		return ""
	}
	return e.Weather[0].Main
}

// Time returns the entry timestamp
func (e *ForecastEntry) Time() time.Time {
	return time.Unix(e.Dt, 0).UTC()
}

// ForecastCity describes the location a forecast series belongs to
type ForecastCity struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Coord    Coordinates `json:"coord"`
	Country  string      `json:"country"`
	Timezone int         `json:"timezone"` // Offset from UTC in seconds
	Sunrise  int64       `json:"sunrise"`
	Sunset   int64       `json:"sunset"`
}

// ForecastSeries is the provider's forecast payload. Entries are ascending in
// time, usually at 3-hour resolution.
type ForecastSeries struct {
	Count int             `json:"cnt"`
	List  []ForecastEntry `json:"list"`
	City  ForecastCity    `json:"city"`
}

// Location returns a fixed zone matching the forecast city's UTC offset
func (s *ForecastSeries) Location() *time.Location {
	if s.City.Timezone == 0 {
		return time.UTC
	}
	return time.FixedZone(s.City.Name, s.City.Timezone)
}

// ClientConfig is the configuration of the provider client
type ClientConfig struct {
	APIBaseURL            string  `toml:"api_base_url"`
	APIKey                string  `toml:"api_key"`
	Units                 string  `toml:"units"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	RateLimitRPS          float64 `toml:"rate_limit_rps"`
	RateLimitBurst        int     `toml:"rate_limit_burst"`
	CacheTTLSeconds       int     `toml:"cache_ttl_seconds"`
}

// DefaultClientConfig returns the default provider configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		APIBaseURL:            "https://api.openweathermap.org/data/2.5",
		Units:                 "metric",
		RequestTimeoutSeconds: 0,
		RateLimitRPS:          1,
		RateLimitBurst:        8,
		CacheTTLSeconds:       60,
	}
}
