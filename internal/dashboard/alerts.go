package dashboard

import (
	"errors"

	"github.com/yegors/wx-dash/internal/weather"
)

// User-facing alert texts
const (
	AlertNotFound = "City not found. Please check the spelling."
	AlertGeneric  = "Failed to fetch weather data. Please try again."
	alertPrefix   = "Error: "
)

// ErrEmptyQuery is returned when a search has nothing but whitespace
var ErrEmptyQuery = errors.New("empty location query")

// AlertMessage maps a primary fetch failure to the text shown to the user
func AlertMessage(err error) string {
	if errors.Is(err, weather.ErrNotFound) {
		return AlertNotFound
	}

	var providerErr *weather.ProviderError
	if errors.As(err, &providerErr) {
		return alertPrefix + providerErr.Status
	}

	return AlertGeneric
}
