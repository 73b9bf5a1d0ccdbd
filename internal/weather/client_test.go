package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yegors/wx-dash/pkg/logger"
)

const currentFixture = `{
	"coord": {"lon": -2.2374, "lat": 53.4809},
	"weather": [{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}],
	"main": {"temp": 21.6, "feels_like": 20.4, "temp_min": 20.1, "temp_max": 22.9, "pressure": 1012, "humidity": 55},
	"visibility": 10000,
	"wind": {"speed": 12.3, "deg": 240},
	"clouds": {"all": 40},
	"dt": 1718030000,
	"sys": {"country": "GB", "sunrise": 1717991000, "sunset": 1718050000},
	"timezone": 3600,
	"name": "Manchester"
}`

const forecastFixture = `{
	"cnt": 2,
	"list": [
		{"dt": 1718031600, "main": {"temp": 19.2}, "weather": [{"main": "Rain"}]},
		{"dt": 1718042400, "main": {"temp": 17.8}, "weather": [{"main": "Clouds"}]}
	],
	"city": {"name": "Manchester", "country": "GB", "timezone": 3600}
}`

func testClient(baseURL string, cacheTTL int) *Client {
	return NewClient(ClientConfig{
		APIBaseURL:      baseURL,
		APIKey:          "test-key",
		CacheTTLSeconds: cacheTTL,
	}, logger.NewNop())
}

func TestFetchCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Rio de Janeiro,BR" {
			t.Errorf("expected decoded location, got %q", q.Get("q"))
		}
		if q.Get("appid") != "test-key" {
			t.Errorf("expected appid test-key, got %q", q.Get("appid"))
		}
		if q.Get("units") != "metric" {
			t.Errorf("expected metric units, got %q", q.Get("units"))
		}
		fmt.Fprint(w, currentFixture)
	}))
	defer server.Close()

	c := testClient(server.URL, 0)
	w, err := c.FetchCurrent(context.Background(), "Rio de Janeiro,BR")
	if err != nil {
		t.Fatalf("FetchCurrent failed: %v", err)
	}

	if w.Name != "Manchester" || w.Sys.Country != "GB" {
		t.Errorf("unexpected location %s, %s", w.Name, w.Sys.Country)
	}
	if w.Main.Temp != 21.6 || w.Main.FeelsLike != 20.4 || w.Main.Humidity != 55 {
		t.Errorf("unexpected main readings %+v", w.Main)
	}
	if w.Category() != "Clouds" {
		t.Errorf("expected Clouds, got %s", w.Category())
	}
	if w.CloudCover() != 40 || w.WindSpeed() != 12.3 || w.RainLastHour() != 0 {
		t.Errorf("unexpected optional fields: clouds=%d wind=%v rain=%v", w.CloudCover(), w.WindSpeed(), w.RainLastHour())
	}
}

func TestBuildURLEscapesLocation(t *testing.T) {
	c := testClient("https://example.test/data/2.5/", 0)
	got := c.BuildURL(EndpointForecast, "São Paulo&x=1")
	want := "https://example.test/data/2.5/forecast?appid=test-key&q=S%C3%A3o+Paulo%26x%3D1&units=metric"
	if got != want {
		t.Errorf("BuildURL = %s, want %s", got, want)
	}
}

func TestFetchCurrentErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"cod":"404","message":"city not found"}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
			},
		},
		{
			name:   "provider error",
			status: http.StatusUnauthorized,
			body:   `{"cod":401}`,
			check: func(t *testing.T, err error) {
				var perr *ProviderError
				if !errors.As(err, &perr) {
					t.Fatalf("expected ProviderError, got %v", err)
				}
				if perr.StatusCode != http.StatusUnauthorized || perr.Status != "Unauthorized" {
					t.Errorf("unexpected provider error %+v", perr)
				}
			},
		},
		{
			name:   "invalid body",
			status: http.StatusOK,
			body:   `{"main":`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrInvalidResponse) {
					t.Errorf("expected ErrInvalidResponse, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			w, err := testClient(server.URL, 0).FetchCurrent(context.Background(), "Nowhere")
			if w != nil {
				t.Errorf("expected nil weather on failure, got %+v", w)
			}
			tt.check(t, err)
		})
	}
}

func TestFetchCurrentUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := testClient(url, 0).FetchCurrent(context.Background(), "York")
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestFetchForecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, forecastFixture)
	}))
	defer server.Close()

	series, ok := testClient(server.URL, 0).FetchForecast(context.Background(), "Manchester")
	if !ok {
		t.Fatal("expected forecast fetch to succeed")
	}
	if len(series.List) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(series.List))
	}
	if series.List[0].Category() != "Rain" || series.List[1].Main.Temp != 17.8 {
		t.Errorf("unexpected entries %+v", series.List)
	}
	if _, offset := series.List[0].Time().In(series.Location()).Zone(); offset != 3600 {
		t.Errorf("expected city offset 3600, got %d", offset)
	}
}

func TestFetchForecastSwallowsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	series, ok := testClient(server.URL, 0).FetchForecast(context.Background(), "York")
	if ok || series != nil {
		t.Errorf("expected swallowed failure, got ok=%v series=%v", ok, series)
	}
}

func TestFetchSecondarySwallowsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	w, ok := testClient(server.URL, 0).FetchSecondary(context.Background(), "Atlantis")
	if ok || w != nil {
		t.Errorf("expected swallowed failure, got ok=%v weather=%v", ok, w)
	}
}

func TestFetchUsesCacheForSuccessOnly(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("q") == "Atlantis" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, currentFixture)
	}))
	defer server.Close()

	c := testClient(server.URL, 60)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.FetchCurrent(ctx, "Manchester"); err != nil {
			t.Fatalf("FetchCurrent failed: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 provider hit for cached location, got %d", hits.Load())
	}

	for i := 0; i < 2; i++ {
		if _, err := c.FetchCurrent(ctx, "Atlantis"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if hits.Load() != 3 {
		t.Errorf("expected failures to bypass cache, got %d hits", hits.Load())
	}
}

func TestFetchCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, currentFixture)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testClient(server.URL, 0).FetchCurrent(ctx, "York"); !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable on canceled context, got %v", err)
	}
}
