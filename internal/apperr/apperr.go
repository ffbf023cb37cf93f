// Package apperr defines the domain error kinds shared by every layer.
// Errors are created by wrapping one of the sentinel kinds so callers can
// match with errors.Is while keeping a human-readable message.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrValidation marks malformed or out-of-range caller input.
	ErrValidation = errors.New("validation error")

	// ErrCityNotFound marks a city absent from storage.
	ErrCityNotFound = errors.New("city not found")

	// ErrDataNotFound marks a city with no observations in the requested window.
	ErrDataNotFound = errors.New("weather data not found")

	// ErrExternalAPI marks a failure of the upstream weather provider.
	ErrExternalAPI = errors.New("external api error")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrValidation, args)...)
}

// CityNotFoundf wraps ErrCityNotFound with a formatted message.
func CityNotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrCityNotFound, args)...)
}

// DataNotFoundf wraps ErrDataNotFound with a formatted message.
func DataNotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrDataNotFound, args)...)
}

// ExternalAPIf wraps ErrExternalAPI with a formatted message.
func ExternalAPIf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrExternalAPI, args)...)
}

func prepend(err error, args []any) []any {
	return append([]any{err}, args...)
}

// StatusCode maps a domain error to its HTTP status. Anything outside the
// taxonomy is a 500.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrCityNotFound), errors.Is(err, ErrDataNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrExternalAPI):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Label returns the error name reported in the response body.
func Label(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "Validation Error"
	case errors.Is(err, ErrCityNotFound):
		return "City Not Found"
	case errors.Is(err, ErrDataNotFound):
		return "Weather Data Not Found"
	case errors.Is(err, ErrExternalAPI):
		return "External API Error"
	default:
		return "Internal Server Error"
	}
}

// Detail strips the sentinel prefix from a wrapped error, leaving only the
// human-readable message for the response body.
func Detail(err error) string {
	msg := err.Error()
	for _, kind := range []error{ErrValidation, ErrCityNotFound, ErrDataNotFound, ErrExternalAPI} {
		if errors.Is(err, kind) {
			prefix := kind.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
		}
	}
	return msg
}
