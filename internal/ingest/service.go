// Package ingest fetches current weather from the provider and persists it.
package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"weather-analytics/internal/apperr"
	"weather-analytics/internal/models"
	"weather-analytics/internal/provider"
)

// Store is the storage surface ingestion writes through.
type Store interface {
	GetOrCreateCity(name, country string, lat, lon float64) (*models.City, error)
	CreateRecord(rec *models.WeatherRecord) error
}

// Fetcher abstracts the weather provider client.
type Fetcher interface {
	CurrentWeather(ctx context.Context, city string) (*provider.Payload, error)
}

// Service performs one fetch-and-save unit of work per call.
type Service struct {
	store    Store
	provider Fetcher
	log      *zap.Logger
}

func NewService(store Store, fetcher Fetcher, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		provider: fetcher,
		log:      log,
	}
}

// FetchAndSave fetches the current observation for cityName, performs
// get-or-create on the city using the provider's display name, and appends a
// record stamped with the ingestion time. Any failure surfaces as one of the
// domain error kinds; nothing escapes as a raw transport error.
func (s *Service) FetchAndSave(ctx context.Context, cityName string) (*models.WeatherRecord, *models.City, error) {
	payload, err := s.provider.CurrentWeather(ctx, cityName)
	if err != nil {
		return nil, nil, err
	}

	if payload.Name == "" || payload.Coord.Lat == nil || payload.Coord.Lon == nil {
		return nil, nil, apperr.ExternalAPIf("Invalid weather data received from API")
	}

	city, err := s.store.GetOrCreateCity(payload.Name, payload.Sys.Country, *payload.Coord.Lat, *payload.Coord.Lon)
	if err != nil {
		return nil, nil, wrapUnexpected(err)
	}

	rec := &models.WeatherRecord{
		CityID:      city.ID,
		Temperature: payload.Main.Temp,
		Humidity:    payload.Main.Humidity,
		Pressure:    payload.Main.Pressure,
		WeatherMain: payload.Weather[0].Main,
		RecordedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateRecord(rec); err != nil {
		return nil, nil, wrapUnexpected(err)
	}

	s.log.Info("weather record ingested",
		zap.String("city", city.Name),
		zap.Uint("city_id", city.ID),
		zap.Float64("temperature", rec.Temperature),
		zap.String("condition", rec.WeatherMain),
	)

	return rec, city, nil
}

// wrapUnexpected keeps domain kinds intact and folds anything else into the
// external-API kind, matching the propagation policy.
func wrapUnexpected(err error) error {
	for _, kind := range []error{apperr.ErrValidation, apperr.ErrCityNotFound, apperr.ErrDataNotFound, apperr.ErrExternalAPI} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return apperr.ExternalAPIf("Unexpected error while fetching weather: %v", err)
}
