// Package provider implements the OpenWeather client used by ingestion.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"weather-analytics/internal/apperr"
)

const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Payload is the subset of the OpenWeather current-weather response this
// system consumes. Pointer fields distinguish "absent" from zero values so
// the caller can reject incomplete payloads.
type Payload struct {
	Name  string `json:"name"`
	Coord struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"coord"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
		Pressure int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// Client calls the OpenWeather current-weather endpoint. Calls fail fast:
// one attempt with a fixed timeout, guarded by a circuit breaker. No retries.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	circuit *gobreaker.CircuitBreaker
}

var errServerError = errors.New("server error")

// NewClient builds a Client with the given credential and base URL.
// An empty baseURL falls back to the public OpenWeather endpoint.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		circuit: cb,
	}
}

// CurrentWeather fetches the current observation for a city by name.
// Failures are always one of the domain kinds: a provider 404 is treated as
// bad caller input, everything else as an upstream failure.
func (c *Client) CurrentWeather(ctx context.Context, city string) (*Payload, error) {
	if c.apiKey == "" {
		return nil, apperr.ExternalAPIf("OpenWeather API key is not configured")
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, apperr.ExternalAPIf("Failed to fetch weather data: %v", err)
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.http.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		// Only upstream breakage trips the breaker; client errors such as
		// an unknown city pass through for mapping below.
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return nil, c.mapTransportError(city, err)
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperr.Validationf("City '%s' not found. Please check the city name.", city)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apperr.ExternalAPIf("Invalid OpenWeather API key")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, apperr.ExternalAPIf("Failed to fetch weather data: unexpected status %d", resp.StatusCode)
	}

	var payload Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.ExternalAPIf("Invalid response from weather API")
	}
	if payload.Main == nil || len(payload.Weather) == 0 {
		return nil, apperr.ExternalAPIf("Invalid response from weather API")
	}

	return &payload, nil
}

func (c *Client) mapTransportError(city string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperr.ExternalAPIf("Weather API temporarily unavailable: circuit breaker open")
	case isTimeout(err):
		return apperr.ExternalAPIf("Weather API request timed out. Please try again later.")
	case errors.Is(err, errServerError):
		return apperr.ExternalAPIf("Weather API returned a server error")
	default:
		return apperr.ExternalAPIf("Failed to connect to weather API: %v", err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
