// Package storage implements the relational store over sqlite via GORM.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"weather-analytics/internal/apperr"
	"weather-analytics/internal/models"
)

// Store wraps the database handle with the query surface the services need.
type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite database at path. WAL mode is enabled for
// concurrent readers; the special ":memory:" path is passed through untouched
// for tests.
func Open(path string) (*Store, error) {
	dsn := path
	if !strings.HasPrefix(path, ":memory:") && !strings.Contains(path, "mode=memory") {
		dsn = path + "?_journal_mode=WAL"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{db: db}, nil
}

// AutoMigrate creates or updates the schema for the persistent entities.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&models.City{}, &models.WeatherRecord{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CityByName looks up a city by exact name match.
func (s *Store) CityByName(name string) (*models.City, error) {
	var city models.City
	err := s.db.Where("name = ?", name).First(&city).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.CityNotFoundf("City '%s' not found", name)
	}
	if err != nil {
		return nil, err
	}
	return &city, nil
}

// GetOrCreateCity returns the city with the given name, creating it if
// absent. A concurrent create of the same name loses the race on the unique
// name index and falls back to the winner's row.
func (s *Store) GetOrCreateCity(name, country string, lat, lon float64) (*models.City, error) {
	var city models.City
	err := s.db.Where("name = ?", name).First(&city).Error
	if err == nil {
		return &city, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	city = models.City{
		Name:      name,
		Country:   country,
		Lat:       lat,
		Lon:       lon,
		CreatedAt: time.Now().UTC(),
	}
	if createErr := s.db.Create(&city).Error; createErr != nil {
		// Unique constraint conflict: another request created it first.
		if lookupErr := s.db.Where("name = ?", name).First(&city).Error; lookupErr == nil {
			return &city, nil
		}
		return nil, createErr
	}
	return &city, nil
}

// ListCities returns all cities sorted by name.
func (s *Store) ListCities() ([]models.City, error) {
	var cities []models.City
	if err := s.db.Order("name").Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

// CreateRecord appends a new weather record.
func (s *Store) CreateRecord(rec *models.WeatherRecord) error {
	return s.db.Create(rec).Error
}

// LatestRecord returns the most recent record for a city.
func (s *Store) LatestRecord(cityID uint) (*models.WeatherRecord, error) {
	var rec models.WeatherRecord
	err := s.db.Where("city_id = ?", cityID).Order("recorded_at DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.DataNotFoundf("No weather records found for city %d", cityID)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordsForCity returns the records for a city ordered ascending by
// recorded_at, restricted to [from, to] where either bound may be nil.
// Bounds are inclusive. An empty result is not an error; the caller decides
// whether absence matters.
func (s *Store) RecordsForCity(cityID uint, from, to *time.Time) ([]models.WeatherRecord, error) {
	query := s.db.Where("city_id = ?", cityID)
	if from != nil {
		query = query.Where("recorded_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("recorded_at <= ?", *to)
	}

	var records []models.WeatherRecord
	if err := query.Order("recorded_at").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
