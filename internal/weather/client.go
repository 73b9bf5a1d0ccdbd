package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yegors/wx-dash/pkg/logger"
	"golang.org/x/time/rate"
)

// Endpoint is a provider resource path
type Endpoint string

const (
	EndpointCurrent  Endpoint = "weather"
	EndpointForecast Endpoint = "forecast"
)

// Client handles HTTP requests to the weather provider
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *Cache
	logger     *logger.Logger
}

// NewClient creates a new weather provider client
func NewClient(config ClientConfig, log *logger.Logger) *Client {
	if config.Units == "" {
		config.Units = "metric"
	}

	limit := rate.Inf
	if config.RateLimitRPS > 0 {
		limit = rate.Limit(config.RateLimitRPS)
	}
	burst := config.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			// Zero means no timeout
			Timeout: time.Duration(config.RequestTimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(limit, burst),
		cache:   NewCache(time.Duration(config.CacheTTLSeconds)*time.Second, log),
		logger:  log.Named("weather-client"),
	}
}

// FetchCurrent fetches the current weather for the primary location.
// Failures are returned to the caller: ErrNotFound, *ProviderError,
// ErrUnreachable or ErrInvalidResponse.
func (c *Client) FetchCurrent(ctx context.Context, location string) (*CurrentWeather, error) {
	var result CurrentWeather
	if err := c.fetch(ctx, EndpointCurrent, location, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchForecast fetches the multi-day forecast. Every failure is logged and
// reported only through ok.
func (c *Client) FetchForecast(ctx context.Context, location string) (*ForecastSeries, bool) {
	var result ForecastSeries
	if err := c.fetch(ctx, EndpointForecast, location, &result); err != nil {
		c.logger.Warn("Forecast fetch failed, skipping",
			logger.String("location", location),
			logger.Error(err))
		return nil, false
	}
	return &result, true
}

// FetchSecondary fetches current weather for a secondary location. Every
// failure, including not-found, is logged and reported only through ok.
func (c *Client) FetchSecondary(ctx context.Context, location string) (*CurrentWeather, bool) {
	result, err := c.FetchCurrent(ctx, location)
	if err != nil {
		c.logger.Warn("Secondary location fetch failed, skipping",
			logger.String("location", location),
			logger.Error(err))
		return nil, false
	}
	return result, true
}

// BuildURL returns the provider URL for an endpoint and location
func (c *Client) BuildURL(endpoint Endpoint, location string) string {
	query := url.Values{}
	query.Set("q", location)
	query.Set("appid", c.config.APIKey)
	query.Set("units", c.config.Units)

	return fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.config.APIBaseURL, "/"), endpoint, query.Encode())
}

// fetch performs a single GET and decodes the body into target
func (c *Client) fetch(ctx context.Context, endpoint Endpoint, location string, target any) error {
	cacheKey := string(endpoint) + "|" + location
	if body, ok := c.cache.Get(cacheKey); ok {
		c.logger.Debug("Serving provider response from cache",
			logger.String("endpoint", string(endpoint)),
			logger.String("location", location))
		return decodeBody(body, target)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait canceled: %v", ErrUnreachable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BuildURL(endpoint, location), nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrUnreachable, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Provider request completed",
		logger.String("endpoint", string(endpoint)),
		logger.String("location", location),
		logger.Int("status_code", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrUnreachable, err)
	}

	if err := decodeBody(body, target); err != nil {
		return err
	}

	c.cache.Set(cacheKey, body)
	return nil
}

func decodeBody(body []byte, target any) error {
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// statusText strips the numeric code from resp.Status ("401 Unauthorized" -> "Unauthorized")
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
