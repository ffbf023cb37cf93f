// Package httpapi wires the HTTP surface: query parsing, DTO shaping, and
// the kind→status error translation at the boundary.
package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"weather-analytics/internal/analytics"
	"weather-analytics/internal/apperr"
	"weather-analytics/internal/models"
	"weather-analytics/internal/validation"
)

var validate = validator.New()

// Store is the read surface the handlers use directly.
type Store interface {
	CityByName(name string) (*models.City, error)
	ListCities() ([]models.City, error)
	LatestRecord(cityID uint) (*models.WeatherRecord, error)
	Ping() error
}

// Ingester performs the fetch-and-save unit of work.
type Ingester interface {
	FetchAndSave(ctx context.Context, cityName string) (*models.WeatherRecord, *models.City, error)
}

// Services bundles the collaborators the routes need.
type Services struct {
	Store     Store
	Ingest    Ingester
	Analytics *analytics.Engine
}

// ErrorHandler is the centralized boundary translation: domain kinds map to
// 400/404/503, anything else becomes a generic 500 with no domain detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{
			Error:  "Request Error",
			Detail: fe.Message,
		})
	}

	code := apperr.StatusCode(err)
	detail := apperr.Detail(err)
	if code == fiber.StatusInternalServerError {
		detail = "Internal server error: " + err.Error()
	}
	return c.Status(code).JSON(ErrorResponse{
		Error:  apperr.Label(err),
		Detail: detail,
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, s Services) {
	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "connected"
		if err := s.Store.Ping(); err != nil {
			dbStatus = "unavailable"
		}
		return c.JSON(fiber.Map{"status": "ok", "db": dbStatus})
	})

	weather := app.Group("/weather")
	weather.Get("/current", s.handleCurrentWeather)
	weather.Get("/latest", s.handleLatestWeather)
	weather.Get("/cities", s.handleListCities)

	an := app.Group("/analytics")
	an.Get("/daily-average", s.handleDailyAverage)
	an.Get("/trend", s.handleTrend)
	an.Get("/patterns", s.handlePatterns)
	an.Get("/weekly-average", s.handleWeeklyAverage)
	an.Get("/monthly-average", s.handleMonthlyAverage)
	an.Get("/compare", s.handleCompare)
	an.Get("/export", s.handleExport)
}

// cityQuery guards presence of the city parameter before domain validation.
type cityQuery struct {
	City string `validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (string, error) {
	q := cityQuery{City: c.Query("city")}
	if err := validate.Struct(q); err != nil {
		return "", apperr.Validationf("City name cannot be empty")
	}
	return validation.CityName(q.City)
}

// parseCount reads an optional integer query parameter, returning def when
// absent.
func parseCount(c *fiber.Ctx, name string, def int, label string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validationf("%s must be an integer", label)
	}
	return n, nil
}

func (s Services) handleCurrentWeather(c *fiber.Ctx) error {
	city, err := parseCityQuery(c)
	if err != nil {
		return err
	}

	rec, cityObj, err := s.Ingest.FetchAndSave(c.Context(), city)
	if err != nil {
		return err
	}

	return c.JSON(CurrentWeatherResponse{
		City:    toCityResponse(cityObj),
		Weather: toRecordResponse(rec),
	})
}

func (s Services) handleLatestWeather(c *fiber.Ctx) error {
	city, err := parseCityQuery(c)
	if err != nil {
		return err
	}

	cityObj, err := s.Store.CityByName(city)
	if err != nil {
		return err
	}

	rec, err := s.Store.LatestRecord(cityObj.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrDataNotFound) {
			return apperr.DataNotFoundf("No weather records found for '%s'", city)
		}
		return err
	}

	return c.JSON(toRecordResponse(rec))
}

func (s Services) handleListCities(c *fiber.Ctx) error {
	cities, err := s.Store.ListCities()
	if err != nil {
		return err
	}

	out := make([]CityResponse, len(cities))
	for i := range cities {
		out[i] = toCityResponse(&cities[i])
	}
	return c.JSON(CitiesListResponse{Total: len(out), Cities: out})
}

func (s Services) handleDailyAverage(c *fiber.Ctx) error {
	city, err := parseCityQuery(c)
	if err != nil {
		return err
	}

	var days *int
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return apperr.Validationf("Days must be an integer")
		}
		days = &n
	}
	days, err = validation.DaysPtr(days)
	if err != nil {
		return err
	}

	cityObj, err := s.Store.CityByName(city)
	if err != nil {
		return err
	}

	averages, err := s.Analytics.DailyAverages(cityObj.ID, days)
	if err != nil {
		return err
	}

	return c.JSON(DailyAverageResponse{City: cityObj.Name, DailyAverages: averages})
}

func (s Services) handleTrend(c *fiber.Ctx) error {
	city, err := parseCityQuery(c)
	if err != nil {
		return err
	}

	days, err := parseCount(c, "days", 7, "Days")
	if err != nil {
		return err
	}
	if days, err = validation.Days(days); err != nil {
		return err
	}

	cityObj, err := s.Store.CityByName(city)
	if err != nil {
		return err
	}

	trend, err := s.Analytics.TrendAnalysis(cityObj.ID, days)
	if err != nil {
		return err
	}
	if trend == nil {
		return apperr.DataNotFoundf("No weather records found for '%s' in the last %d days", city, days)
	}

	return c.JSON(TrendResponse{
		City:              cityObj.Name,
		PeriodDays:        days,
		AvgTemperature:    trend.AvgTemperature,
		MinTemperature:    trend.MinTemperature,
		MaxTemperature:    trend.MaxTemperature,
		TemperatureChange: trend.TemperatureChange,
		TrendDirection:    trend.TrendDirection,
		RecordCount:       trend.RecordCount,
		DailyData:         trend.DailyData,
	})
}

func (s Services) handlePatterns(c *fiber.Ctx) error {
	city, err := parseCityQuery(c)
	if err != nil {
		return err
	}

	cityObj, err := s.Store.CityByName(city)
	if err != nil {
		return err
	}

	patterns, err := s.Analytics.HumidityPressurePatterns(cityObj.ID)
	if err != nil {
		return err
	}
	if patterns == nil {
		return apperr.DataNotFoundf("No weather records found for '%s'", city)
	}

	return c.JSON(PatternsResponse{
		City:              cityObj.Name,
		Humidity:          patterns.Humidity,
		Pressure:          patterns.Pressure,
		WeatherConditions: patterns.WeatherConditions,
		TotalRecords:      patterns.TotalRecords,
	})
}

func (s Services) handleWeeklyAverage(c *fiber.Ctx) error {
	city, err := parseCityQuery(c)
	if err != nil {
		return err
	}

	weeks, err := parseCount(c, "weeks", 4, "Weeks")
	if err != nil {
		return err
	}
	if weeks, err = validation.Weeks(weeks); err != nil {
		return err
	}

	cityObj, err := s.Store.CityByName(city)
	if err != nil {
		return err
	}

	averages, err := s.Analytics.WeeklyAverages(cityObj.ID, weeks)
	if err != nil {
		return err
	}

	items := make([]WeeklyAverageItem, len(averages))
	for i, a := range averages {
		items[i] = WeeklyAverageItem{
			WeekStart:      a.Start,
			AvgTemperature: a.AvgTemperature,
			MinTemperature: a.MinTemperature,
			MaxTemperature: a.MaxTemperature,
			RecordCount:    a.RecordCount,
		}
	}
	return c.JSON(WeeklyAverageResponse{City: cityObj.Name, WeeklyAverages: items})
}

func (s Services) handleMonthlyAverage(c *fiber.Ctx) error {
	city, err := parseCityQuery(c)
	if err != nil {
		return err
	}

	months, err := parseCount(c, "months", 12, "Months")
	if err != nil {
		return err
	}
	if months, err = validation.Months(months); err != nil {
		return err
	}

	cityObj, err := s.Store.CityByName(city)
	if err != nil {
		return err
	}

	averages, err := s.Analytics.MonthlyAverages(cityObj.ID, months)
	if err != nil {
		return err
	}

	items := make([]MonthlyAverageItem, len(averages))
	for i, a := range averages {
		items[i] = MonthlyAverageItem{
			MonthStart:     a.Start,
			AvgTemperature: a.AvgTemperature,
			MinTemperature: a.MinTemperature,
			MaxTemperature: a.MaxTemperature,
			RecordCount:    a.RecordCount,
		}
	}
	return c.JSON(MonthlyAverageResponse{City: cityObj.Name, MonthlyAverages: items})
}

const maxCompareCities = 10

func (s Services) handleCompare(c *fiber.Ctx) error {
	raw := c.Query("cities")
	if strings.TrimSpace(raw) == "" {
		return apperr.Validationf("At least one city must be provided")
	}

	var names []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	if err := validate.Var(names, "min=1"); err != nil {
		return apperr.Validationf("At least one valid city must be provided")
	}
	if err := validate.Var(names, "max=10"); err != nil {
		return apperr.Validationf("Maximum %d cities can be compared at once", maxCompareCities)
	}

	validated := make([]string, 0, len(names))
	for _, name := range names {
		clean, err := validation.CityName(name)
		if err != nil {
			return apperr.Validationf("Invalid city name '%s': %s", name, apperr.Detail(err))
		}
		validated = append(validated, clean)
	}

	comparison, err := s.Analytics.CompareCities(validated)
	if err != nil {
		return err
	}
	if len(comparison) == 0 {
		return apperr.CityNotFoundf("No valid cities found for comparison")
	}

	return c.JSON(ComparisonResponse{Cities: comparison})
}

// exportRange enforces start <= end when both bounds are present.
type exportRange struct {
	Start time.Time
	End   time.Time `validate:"omitempty,gtefield=Start"`
}

func (s Services) handleExport(c *fiber.Ctx) error {
	city, err := parseCityQuery(c)
	if err != nil {
		return err
	}

	var start, end *time.Time
	startStr := c.Query("start_date")
	endStr := c.Query("end_date")

	if startStr != "" {
		t, err := validation.DateFormat(startStr)
		if err != nil {
			return err
		}
		start = &t
	}
	if endStr != "" {
		t, err := validation.DateFormat(endStr)
		if err != nil {
			return err
		}
		end = &t
	}

	if start != nil && end != nil {
		if err := validate.Struct(exportRange{Start: *start, End: *end}); err != nil {
			return apperr.Validationf("start_date must be before or equal to end_date")
		}
	}

	// The end bound names a calendar date; extend it to cover that whole day.
	if end != nil {
		endOfDay := end.Add(24*time.Hour - time.Second)
		end = &endOfDay
	}

	cityObj, err := s.Store.CityByName(city)
	if err != nil {
		return err
	}

	records, err := s.Analytics.Export(cityObj.ID, start, end)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		detail := "No weather records found for '" + city + "'"
		if startStr != "" || endStr != "" {
			detail += " between " + startStr + " and " + endStr
		}
		return apperr.DataNotFoundf("%s", detail)
	}

	return c.JSON(HistoricalDataResponse{
		City:         cityObj.Name,
		TotalRecords: len(records),
		StartDate:    startStr,
		EndDate:      endStr,
		Records:      records,
	})
}
