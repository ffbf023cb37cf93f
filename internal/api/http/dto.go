package httpapi

import (
	"time"

	"weather-analytics/internal/analytics"
	"weather-analytics/internal/models"
)

// Response DTOs are constructed deliberately at the service boundary rather
// than leaking storage models.

type CityResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	CreatedAt time.Time `json:"created_at"`
}

func toCityResponse(c *models.City) CityResponse {
	return CityResponse{
		ID:        c.ID,
		Name:      c.Name,
		Country:   c.Country,
		Lat:       c.Lat,
		Lon:       c.Lon,
		CreatedAt: c.CreatedAt,
	}
}

type WeatherRecordResponse struct {
	ID          uint      `json:"id"`
	CityID      uint      `json:"city_id"`
	Temperature float64   `json:"temperature"`
	Humidity    int       `json:"humidity"`
	Pressure    int       `json:"pressure"`
	WeatherMain string    `json:"weather_main"`
	RecordedAt  time.Time `json:"recorded_at"`
}

func toRecordResponse(r *models.WeatherRecord) WeatherRecordResponse {
	return WeatherRecordResponse{
		ID:          r.ID,
		CityID:      r.CityID,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Pressure:    r.Pressure,
		WeatherMain: r.WeatherMain,
		RecordedAt:  r.RecordedAt,
	}
}

type CurrentWeatherResponse struct {
	City    CityResponse          `json:"city"`
	Weather WeatherRecordResponse `json:"weather"`
}

type CitiesListResponse struct {
	Total  int            `json:"total"`
	Cities []CityResponse `json:"cities"`
}

type DailyAverageResponse struct {
	City          string                   `json:"city"`
	DailyAverages []analytics.DailyAverage `json:"daily_averages"`
}

type TrendResponse struct {
	City              string                 `json:"city"`
	PeriodDays        int                    `json:"period_days"`
	AvgTemperature    float64                `json:"avg_temperature"`
	MinTemperature    float64                `json:"min_temperature"`
	MaxTemperature    float64                `json:"max_temperature"`
	TemperatureChange float64                `json:"temperature_change"`
	TrendDirection    string                 `json:"trend_direction"`
	RecordCount       int                    `json:"record_count"`
	DailyData         []analytics.TrendPoint `json:"daily_data"`
}

type PatternsResponse struct {
	City              string             `json:"city"`
	Humidity          analytics.IntStats `json:"humidity"`
	Pressure          analytics.IntStats `json:"pressure"`
	WeatherConditions map[string]int     `json:"weather_conditions"`
	TotalRecords      int                `json:"total_records"`
}

type WeeklyAverageItem struct {
	WeekStart      string  `json:"week_start"`
	AvgTemperature float64 `json:"avg_temperature"`
	MinTemperature float64 `json:"min_temperature"`
	MaxTemperature float64 `json:"max_temperature"`
	RecordCount    int     `json:"record_count"`
}

type WeeklyAverageResponse struct {
	City           string              `json:"city"`
	WeeklyAverages []WeeklyAverageItem `json:"weekly_averages"`
}

type MonthlyAverageItem struct {
	MonthStart     string  `json:"month_start"`
	AvgTemperature float64 `json:"avg_temperature"`
	MinTemperature float64 `json:"min_temperature"`
	MaxTemperature float64 `json:"max_temperature"`
	RecordCount    int     `json:"record_count"`
}

type MonthlyAverageResponse struct {
	City            string               `json:"city"`
	MonthlyAverages []MonthlyAverageItem `json:"monthly_averages"`
}

type ComparisonResponse struct {
	Cities map[string]analytics.CityComparison `json:"cities"`
}

type HistoricalDataResponse struct {
	City         string                   `json:"city"`
	TotalRecords int                      `json:"total_records"`
	StartDate    string                   `json:"start_date,omitempty"`
	EndDate      string                   `json:"end_date,omitempty"`
	Records      []analytics.ExportRecord `json:"records"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}
