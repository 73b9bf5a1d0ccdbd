package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yegors/wx-dash/internal/calendar"
	"github.com/yegors/wx-dash/internal/render"
	"github.com/yegors/wx-dash/internal/weather"
	"github.com/yegors/wx-dash/pkg/logger"
)

// LastQueryKey is the preference key holding the last successful search
const LastQueryKey = "lastSearch"

// Fetcher retrieves provider data
type Fetcher interface {
	FetchCurrent(ctx context.Context, location string) (*weather.CurrentWeather, error)
	FetchForecast(ctx context.Context, location string) (*weather.ForecastSeries, bool)
	FetchSecondary(ctx context.Context, location string) (*weather.CurrentWeather, bool)
}

// Preferences is a per-namespace string store
type Preferences interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
}

// Config holds the dashboard settings shared by all sessions
type Config struct {
	DefaultLocation    string
	SecondaryLocations []string
	Layout             *render.Layout
}

// Calendar actions
const (
	CalendarToggle  = "toggle"
	CalendarPrev    = "prev"
	CalendarNext    = "next"
	CalendarDismiss = "dismiss"
	CalendarPick    = "pick"
	CalendarState   = "state"
)

// Session is the state of one browser's dashboard
type Session struct {
	id       string
	config   Config
	fetcher  Fetcher
	prefs    Preferences
	page     *Page
	calendar *calendar.Widget
	logger   *logger.Logger

	lastActive time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// NewSession creates a session. prefs failures are logged, never fatal.
func NewSession(id string, config Config, fetcher Fetcher, prefs Preferences, publisher Publisher, now func() time.Time, log *logger.Logger) *Session {
	if now == nil {
		now = time.Now
	}
	if config.Layout == nil {
		config.Layout = render.DefaultLayout()
	}

	s := &Session{
		id:         id,
		config:     config,
		fetcher:    fetcher,
		prefs:      prefs,
		page:       NewPage(id, publisher),
		logger:     log.Named("dashboard-session").With(logger.String("session_id", id)),
		lastActive: now(),
		now:        now,
	}
	s.calendar = calendar.NewWidget(now, log)
	s.calendar.OnPick(func(date time.Time) {
		s.page.PublishCalendar(s.calendar.State(), &date)
	})
	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Page returns the session page
func (s *Session) Page() *Page {
	return s.page
}

// Layout returns the layout the session renders into
func (s *Session) Layout() *render.Layout {
	return s.config.Layout
}

// Calendar returns the calendar widget
func (s *Session) Calendar() *calendar.Widget {
	return s.calendar
}

// LastActive returns the time of the last user interaction
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

// Load runs the page-load sequence: reset the calendar, then fetch the last
// (or default) location and every secondary location concurrently. It
// returns when all fetches have finished. A primary failure alert is
// deferred to the rendered page instead of being published.
func (s *Session) Load(ctx context.Context) error {
	s.touch()
	s.calendar.Reset()

	location := s.config.DefaultLocation
	if saved, ok, err := s.prefs.Get(ctx, s.id, LastQueryKey); err != nil {
		s.logger.Warn("Failed to read last search", logger.Error(err))
	} else if ok && saved != "" {
		location = saved
	}
	s.page.SetQuery(location)

	s.logger.Debug("Loading dashboard",
		logger.String("location", location),
		logger.Int("secondary_count", len(s.config.SecondaryLocations)))

	// Tasks never fail: failures are alerted or logged by the task itself
	var g errgroup.Group

	// The page is still being built, so a failure is shown when it renders
	g.Go(func() error {
		if err := s.search(ctx, location, s.page.DeferAlert); err != nil {
			s.logger.Debug("Primary load failed", logger.Error(err))
		}
		return nil
	})

	for i, loc := range s.config.SecondaryLocations {
		g.Go(func() error {
			s.loadSecondary(ctx, i, loc)
			return nil
		})
	}

	return g.Wait()
}

func (s *Session) loadSecondary(ctx context.Context, index int, location string) {
	current, ok := s.fetcher.FetchSecondary(ctx, location)
	if !ok {
		return
	}
	s.page.Apply(render.City(s.config.Layout, index, current))
}

// Search fetches and renders the primary location. The input is sent to the
// provider as typed; only the emptiness check trims it. On failure the user
// is alerted and nothing is rendered.
func (s *Session) Search(ctx context.Context, input string) error {
	return s.search(ctx, input, s.page.Alert)
}

// search runs a primary search; alert raises the failure notification
func (s *Session) search(ctx context.Context, input string, alert func(string)) error {
	if strings.TrimSpace(input) == "" {
		return ErrEmptyQuery
	}
	s.touch()

	current, err := s.fetcher.FetchCurrent(ctx, input)
	if err != nil {
		alert(AlertMessage(err))
		return fmt.Errorf("search %q: %w", input, err)
	}

	s.page.Apply(render.Main(s.config.Layout, current))
	s.page.Apply(render.Highlights(s.config.Layout, current))
	s.page.SetQuery(input)

	if err := s.prefs.Set(ctx, s.id, LastQueryKey, input); err != nil {
		s.logger.Warn("Failed to save last search", logger.Error(err))
	}

	series, ok := s.fetcher.FetchForecast(ctx, input)
	if ok {
		s.page.Apply(render.Forecast(s.config.Layout, series, series.Location()))
	}

	s.logger.Info("Search complete",
		logger.String("location", input),
		logger.Bool("forecast", ok))
	return nil
}

// CalendarAction applies a calendar action and publishes the new state.
// day is only used by CalendarPick.
func (s *Session) CalendarAction(action string, day int) (calendar.State, error) {
	s.touch()

	var state calendar.State
	switch action {
	case CalendarToggle:
		state = s.calendar.Toggle()
	case CalendarPrev:
		state = s.calendar.Prev()
	case CalendarNext:
		state = s.calendar.Next()
	case CalendarDismiss:
		state = s.calendar.Dismiss()
	case CalendarState:
		return s.calendar.State(), nil
	case CalendarPick:
		// The pick callback publishes the closed state with the selected date
		if _, err := s.calendar.Pick(day); err != nil {
			return s.calendar.State(), err
		}
		return s.calendar.State(), nil
	default:
		return calendar.State{}, fmt.Errorf("unknown calendar action %q", action)
	}

	s.page.PublishCalendar(state, nil)
	return state, nil
}
