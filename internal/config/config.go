package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig is read once at process start and immutable afterwards.
type AppConfig struct {
	Port   string
	DBPath string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// ProviderTimeout bounds the outbound weather API call.
	ProviderTimeout time.Duration

	// FetchCities, when non-empty, enables scheduled ingestion for these
	// city names every FetchInterval.
	FetchCities   []string
	FetchInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port:               getenvDefault("PORT", "8080"),
		DBPath:             getenvDefault("DB_PATH", "weather.db"),
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: os.Getenv("OPENWEATHER_BASE_URL"),
	}

	timeoutStr := getenvDefault("PROVIDER_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT: %w", err)
	}
	cfg.ProviderTimeout = timeout

	intervalStr := getenvDefault("FETCH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	if cities := os.Getenv("FETCH_CITIES"); cities != "" {
		for _, city := range strings.Split(cities, ",") {
			if trimmed := strings.TrimSpace(city); trimmed != "" {
				cfg.FetchCities = append(cfg.FetchCities, trimmed)
			}
		}
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
