package render

import (
	"fmt"
	"math"
	"time"

	"github.com/yegors/wx-dash/internal/conditions"
	"github.com/yegors/wx-dash/internal/weather"
)

const (
	// Half-width of the synthetic High/Low band shown on city cards. It is a
	// placeholder around the current temperature, not forecast data.
	cityBandDegrees = 3

	// Forecast series are 3-hourly, so every 8th entry is one per day
	forecastStride = 8

	// The provider has no UV index; the highlight shows a constant
	uvPlaceholder = "7"

	// Highlights need the full six-card layout
	highlightCards = 6
)

// Write is a single (slot, field) assignment for the presentation adapter
type Write struct {
	Slot  Slot   `json:"slot"`
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// writer accumulates writes, skipping fields the layout lacks
type writer struct {
	layout *Layout
	writes []Write
}

func (w *writer) set(slot Slot, field Field, value string) {
	if !w.layout.Has(slot, field) {
		return
	}
	w.writes = append(w.writes, Write{Slot: slot, Field: field, Value: value})
}

// Round rounds half away from zero; -0.4 becomes 0, not "-0"
func Round(v float64) int {
	return int(math.Round(v))
}

// Degrees formats a temperature as a rounded value with a degree sign
func Degrees(v float64) string {
	return fmt.Sprintf("%d°", Round(v))
}

// Main renders the main panel from the primary location's current weather
func Main(layout *Layout, w *weather.CurrentWeather) []Write {
	out := &writer{layout: layout}
	slot := Slot{Kind: SlotMain}

	location := fmt.Sprintf("%s, %s", w.Name, w.Sys.Country)
	night := conditions.IsNight(w.Dt, w.Sys.Sunrise, w.Sys.Sunset)

	out.set(slot, FieldLocation, location)
	out.set(slot, FieldLocationInner, location)
	out.set(slot, FieldTemp, Degrees(w.Main.Temp))
	out.set(slot, FieldCondition, conditions.Label(w.Category()))
	out.set(slot, FieldIcon, string(conditions.IconFor(w.Category(), night)))

	return out.writes
}

// City renders city card index from a secondary location's current weather.
// Missing sub-fields are skipped individually.
func City(layout *Layout, index int, w *weather.CurrentWeather) []Write {
	out := &writer{layout: layout}
	slot := Slot{Kind: SlotCity, Index: index}

	temp := Round(w.Main.Temp)
	night := conditions.IsNight(w.Dt, w.Sys.Sunrise, w.Sys.Sunset)

	out.set(slot, FieldTemp, fmt.Sprintf("%d°", temp))
	out.set(slot, FieldCondition, fmt.Sprintf("%s, High: %d° Low: %d°",
		conditions.Label(w.Category()), temp+cityBandDegrees, temp-cityBandDegrees))
	out.set(slot, FieldIcon, string(conditions.IconFor(w.Category(), night)))

	return out.writes
}

// DailyEntries picks one entry per day (every 8th from index 0), at most limit
func DailyEntries(series *weather.ForecastSeries, limit int) []weather.ForecastEntry {
	var daily []weather.ForecastEntry
	for i := 0; i < len(series.List) && len(daily) < limit; i += forecastStride {
		daily = append(daily, series.List[i])
	}
	return daily
}

// Forecast renders the forecast cards. Weekday names use loc. Icons are
// always day icons regardless of the entry time.
func Forecast(layout *Layout, series *weather.ForecastSeries, loc *time.Location) []Write {
	out := &writer{layout: layout}
	if loc == nil {
		loc = time.UTC
	}

	for i, entry := range DailyEntries(series, layout.Count(SlotForecast)) {
		slot := Slot{Kind: SlotForecast, Index: i}
		out.set(slot, FieldDay, entry.Time().In(loc).Weekday().String())
		out.set(slot, FieldTemp, Degrees(entry.Main.Temp))
		out.set(slot, FieldIcon, string(conditions.IconFor(entry.Category(), false)))
	}

	return out.writes
}

// Highlights renders the six highlight cards in fixed order: feels like,
// clouds, rain, humidity, UV, wind. Layouts with fewer than six highlight
// cards get nothing.
func Highlights(layout *Layout, w *weather.CurrentWeather) []Write {
	out := &writer{layout: layout}
	if layout.Count(SlotHighlight) < highlightCards {
		return nil
	}

	values := []string{
		Degrees(w.Main.FeelsLike),
		fmt.Sprintf("%d%%", w.CloudCover()),
		fmt.Sprintf("%dmm", Round(w.RainLastHour())),
		fmt.Sprintf("%d%%", w.Main.Humidity),
		uvPlaceholder,
		fmt.Sprintf("%dkm/h", Round(w.WindSpeed())),
	}
	for i, v := range values {
		out.set(Slot{Kind: SlotHighlight, Index: i}, FieldValue, v)
	}

	return out.writes
}
