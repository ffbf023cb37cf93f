// Package validation holds the pure input validators guarding the API and
// the external provider call. Every failure wraps apperr.ErrValidation.
package validation

import (
	"regexp"
	"strings"
	"time"

	"weather-analytics/internal/apperr"
)

// Allow letters, spaces, hyphens, apostrophes (for names like "New York", "O'Brien").
var cityNameRe = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)

const (
	minCityNameLen = 2
	maxCityNameLen = 100
)

// CityName validates and sanitizes a city name, returning the trimmed value.
func CityName(city string) (string, error) {
	if city == "" {
		return "", apperr.Validationf("City name cannot be empty")
	}

	city = strings.TrimSpace(city)

	if len(city) < minCityNameLen {
		return "", apperr.Validationf("City name must be at least %d characters", minCityNameLen)
	}
	if len(city) > maxCityNameLen {
		return "", apperr.Validationf("City name must be less than %d characters", maxCityNameLen)
	}
	if !cityNameRe.MatchString(city) {
		return "", apperr.Validationf("City name contains invalid characters")
	}

	return city, nil
}

// DateFormat parses a strict YYYY-MM-DD date string.
func DateFormat(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, apperr.Validationf("Date cannot be empty")
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperr.Validationf("Invalid date format. Use YYYY-MM-DD (e.g., 2026-01-19)")
	}
	return t, nil
}

const (
	MinDays   = 1
	MaxDays   = 365
	MinWeeks  = 1
	MaxWeeks  = 52
	MinMonths = 1
	MaxMonths = 24
)

// Days validates a day-count parameter against the inclusive [1, 365] policy.
func Days(days int) (int, error) {
	if days < MinDays {
		return 0, apperr.Validationf("Days must be at least %d", MinDays)
	}
	if days > MaxDays {
		return 0, apperr.Validationf("Days must be at most %d", MaxDays)
	}
	return days, nil
}

// DaysPtr validates an optional day count. A nil value means "no limit" and
// passes through unvalidated.
func DaysPtr(days *int) (*int, error) {
	if days == nil {
		return nil, nil
	}
	d, err := Days(*days)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Weeks validates a week-count parameter against the inclusive [1, 52] policy.
func Weeks(weeks int) (int, error) {
	if weeks < MinWeeks {
		return 0, apperr.Validationf("Weeks must be at least %d", MinWeeks)
	}
	if weeks > MaxWeeks {
		return 0, apperr.Validationf("Weeks must be at most %d", MaxWeeks)
	}
	return weeks, nil
}

// Months validates a month-count parameter against the inclusive [1, 24] policy.
func Months(months int) (int, error) {
	if months < MinMonths {
		return 0, apperr.Validationf("Months must be at least %d", MinMonths)
	}
	if months > MaxMonths {
		return 0, apperr.Validationf("Months must be at most %d", MaxMonths)
	}
	return months, nil
}
