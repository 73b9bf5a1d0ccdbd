package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the provider cannot resolve the location (HTTP 404)
	ErrNotFound = errors.New("location not found")

	// ErrUnreachable is returned when the request never produced an HTTP response
	ErrUnreachable = errors.New("weather provider unreachable")

	// ErrInvalidResponse is returned when a 2xx body cannot be decoded
	ErrInvalidResponse = errors.New("invalid weather provider response")
)

// ProviderError is a non-404, non-2xx provider response
type ProviderError struct {
	StatusCode int
	Status     string // Status text without the numeric code, e.g. "Unauthorized"
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("weather provider returned %d %s", e.StatusCode, e.Status)
}
