// Package models defines the persistent entities.
package models

import "time"

// City is created lazily on first successful ingestion for a new name and is
// never updated or deleted afterwards. The unique index on Name backs the
// race-safe get-or-create in storage.
type City struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex" json:"name"`
	Country   string    `json:"country"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	CreatedAt time.Time `json:"created_at"`

	WeatherRecords []WeatherRecord `gorm:"foreignKey:CityID" json:"-"`
}

// WeatherRecord is one timestamped observation for a city. Records are
// append-only: created exactly once per ingestion, never updated or deleted.
type WeatherRecord struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CityID      uint      `gorm:"not null;index:idx_record_city_recorded" json:"city_id"`
	Temperature float64   `json:"temperature"`
	Humidity    int       `json:"humidity"`
	Pressure    int       `json:"pressure"`
	WeatherMain string    `gorm:"size:50" json:"weather_main"`
	RecordedAt  time.Time `gorm:"not null;index:idx_record_city_recorded" json:"recorded_at"`

	City *City `gorm:"foreignKey:CityID" json:"-"`
}
