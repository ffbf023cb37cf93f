// Package analytics implements the read-only aggregation operations over the
// weather record log. All grouping and statistics run in Go over record
// slices fetched through Source; nothing here mutates state.
package analytics

import (
	"errors"
	"math"
	"sort"
	"time"

	"weather-analytics/internal/apperr"
	"weather-analytics/internal/models"
)

// Source is the storage surface the engine reads through. RecordsForCity
// must return records ordered ascending by recorded_at with inclusive
// bounds; a nil bound means unbounded.
type Source interface {
	CityByName(name string) (*models.City, error)
	RecordsForCity(cityID uint, from, to *time.Time) ([]models.WeatherRecord, error)
}

// Engine runs the aggregation operations.
type Engine struct {
	source Source
	now    func() time.Time
}

func NewEngine(source Source) *Engine {
	return &Engine{
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

const (
	dateLayout      = "2006-01-02"
	monthLayout     = "2006-01"
	timestampLayout = "2006-01-02 15:04:05"

	// Trend direction thresholds are fixed contract values.
	trendThreshold = 0.5
)

// DailyAverage is one calendar-date bucket.
type DailyAverage struct {
	Date           string  `json:"date"`
	AvgTemperature float64 `json:"avg_temperature"`
	RecordCount    int     `json:"record_count"`
}

// Trend summarizes temperature movement over a window.
type Trend struct {
	AvgTemperature    float64      `json:"avg_temperature"`
	MinTemperature    float64      `json:"min_temperature"`
	MaxTemperature    float64      `json:"max_temperature"`
	TemperatureChange float64      `json:"temperature_change"`
	TrendDirection    string       `json:"trend_direction"`
	RecordCount       int          `json:"record_count"`
	DailyData         []TrendPoint `json:"daily_data"`
}

// TrendPoint is one record projected into the trend time series.
type TrendPoint struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
}

// IntStats aggregates an integer series: averaged value rounded, raw min/max.
type IntStats struct {
	Average float64 `json:"average"`
	Min     int     `json:"min"`
	Max     int     `json:"max"`
}

// FloatStats aggregates a float series with all values rounded to 2 decimals.
type FloatStats struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Patterns describes humidity/pressure distribution and condition frequency
// over a city's full history.
type Patterns struct {
	Humidity          IntStats       `json:"humidity"`
	Pressure          IntStats       `json:"pressure"`
	WeatherConditions map[string]int `json:"weather_conditions"`
	TotalRecords      int            `json:"total_records"`
}

// PeriodAverage is one week or month bucket.
type PeriodAverage struct {
	Start          string  `json:"start"`
	AvgTemperature float64 `json:"avg_temperature"`
	MinTemperature float64 `json:"min_temperature"`
	MaxTemperature float64 `json:"max_temperature"`
	RecordCount    int     `json:"record_count"`
}

// CityComparison is the per-city block of the multi-city comparison.
type CityComparison struct {
	CityID       uint       `json:"city_id"`
	Country      string     `json:"country"`
	Temperature  FloatStats `json:"temperature"`
	Humidity     IntStats   `json:"humidity"`
	Pressure     IntStats   `json:"pressure"`
	TotalRecords int        `json:"total_records"`
	LatestRecord string     `json:"latest_record"`
}

// ExportRecord is one observation projected for historical export.
type ExportRecord struct {
	ID          uint    `json:"id"`
	RecordedAt  string  `json:"recorded_at"`
	Temperature float64 `json:"temperature"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	WeatherMain string  `json:"weather_main"`
}

// DailyAverages groups a city's records by calendar date (UTC) and returns
// per-date mean temperature, newest date first. A non-nil days restricts the
// window to recorded_at >= now-days. An empty window yields an empty slice,
// not an error.
func (e *Engine) DailyAverages(cityID uint, days *int) ([]DailyAverage, error) {
	var from *time.Time
	if days != nil {
		start := e.now().AddDate(0, 0, -*days)
		from = &start
	}

	records, err := e.source.RecordsForCity(cityID, from, nil)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[string]*bucket)
	for _, rec := range records {
		key := rec.RecordedAt.UTC().Format(dateLayout)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.sum += rec.Temperature
		b.count++
	}

	dates := make([]string, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	out := make([]DailyAverage, 0, len(dates))
	for _, d := range dates {
		b := buckets[d]
		out = append(out, DailyAverage{
			Date:           d,
			AvgTemperature: round2(b.sum / float64(b.count)),
			RecordCount:    b.count,
		})
	}
	return out, nil
}

// TrendAnalysis classifies temperature movement over the last days. The
// ordered series is split at the floor midpoint; the mean of an empty half
// is 0. Returns nil when the window holds no records.
func (e *Engine) TrendAnalysis(cityID uint, days int) (*Trend, error) {
	end := e.now()
	start := end.AddDate(0, 0, -days)

	records, err := e.source.RecordsForCity(cityID, &start, &end)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	temps := make([]float64, len(records))
	for i, rec := range records {
		temps[i] = rec.Temperature
	}

	minTemp, maxTemp := temps[0], temps[0]
	var sum float64
	for _, t := range temps {
		sum += t
		if t < minTemp {
			minTemp = t
		}
		if t > maxTemp {
			maxTemp = t
		}
	}

	mid := len(temps) / 2
	change := mean(temps[mid:]) - mean(temps[:mid])

	direction := "stable"
	switch {
	case change > trendThreshold:
		direction = "increasing"
	case change < -trendThreshold:
		direction = "decreasing"
	}

	daily := make([]TrendPoint, len(records))
	for i, rec := range records {
		daily[i] = TrendPoint{
			Date:        rec.RecordedAt.UTC().Format(dateLayout),
			Temperature: rec.Temperature,
			Humidity:    rec.Humidity,
			Pressure:    rec.Pressure,
		}
	}

	return &Trend{
		AvgTemperature:    round2(sum / float64(len(temps))),
		MinTemperature:    round2(minTemp),
		MaxTemperature:    round2(maxTemp),
		TemperatureChange: round2(change),
		TrendDirection:    direction,
		RecordCount:       len(records),
		DailyData:         daily,
	}, nil
}

// HumidityPressurePatterns aggregates a city's entire history: humidity and
// pressure statistics with zero values excluded from the computation set,
// plus a frequency count per observed condition label. Returns nil when the
// city has no records at all.
func (e *Engine) HumidityPressurePatterns(cityID uint) (*Patterns, error) {
	records, err := e.source.RecordsForCity(cityID, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	var humidities, pressures []int
	conditions := make(map[string]int)
	for _, rec := range records {
		if rec.Humidity != 0 {
			humidities = append(humidities, rec.Humidity)
		}
		if rec.Pressure != 0 {
			pressures = append(pressures, rec.Pressure)
		}
		if rec.WeatherMain != "" {
			conditions[rec.WeatherMain]++
		}
	}

	return &Patterns{
		Humidity:          intStats(humidities),
		Pressure:          intStats(pressures),
		WeatherConditions: conditions,
		TotalRecords:      len(records),
	}, nil
}

// WeeklyAverages groups the last weeks of records into ISO-week buckets
// (Monday 00:00 UTC start), newest bucket first.
func (e *Engine) WeeklyAverages(cityID uint, weeks int) ([]PeriodAverage, error) {
	start := e.now().AddDate(0, 0, -weeks*7)
	return e.periodAverages(cityID, start, func(t time.Time) string {
		return weekStart(t).Format(dateLayout)
	})
}

// MonthlyAverages groups the last months*30 days of records into calendar
// month buckets, newest first. The 30-day approximation mirrors the
// documented window contract.
func (e *Engine) MonthlyAverages(cityID uint, months int) ([]PeriodAverage, error) {
	start := e.now().AddDate(0, 0, -months*30)
	return e.periodAverages(cityID, start, func(t time.Time) string {
		return t.UTC().Format(monthLayout)
	})
}

func (e *Engine) periodAverages(cityID uint, start time.Time, keyFn func(time.Time) string) ([]PeriodAverage, error) {
	records, err := e.source.RecordsForCity(cityID, &start, nil)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		sum      float64
		min, max float64
		count    int
	}
	buckets := make(map[string]*bucket)
	for _, rec := range records {
		key := keyFn(rec.RecordedAt)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{min: rec.Temperature, max: rec.Temperature}
			buckets[key] = b
		}
		b.sum += rec.Temperature
		b.count++
		if rec.Temperature < b.min {
			b.min = rec.Temperature
		}
		if rec.Temperature > b.max {
			b.max = rec.Temperature
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	out := make([]PeriodAverage, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, PeriodAverage{
			Start:          k,
			AvgTemperature: round2(b.sum / float64(b.count)),
			MinTemperature: round2(b.min),
			MaxTemperature: round2(b.max),
			RecordCount:    b.count,
		})
	}
	return out, nil
}

// CompareCities builds the per-city comparison block for each name that
// resolves to a stored city with at least one record. Unknown names and
// cities without data are silently skipped; deciding whether an empty result
// is an error is the caller's job.
func (e *Engine) CompareCities(names []string) (map[string]CityComparison, error) {
	out := make(map[string]CityComparison)

	for _, name := range names {
		city, err := e.source.CityByName(name)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}

		records, err := e.source.RecordsForCity(city.ID, nil, nil)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			continue
		}

		var temps []float64
		var humidities, pressures []int
		latest := records[0].RecordedAt
		for _, rec := range records {
			if rec.Temperature != 0 {
				temps = append(temps, rec.Temperature)
			}
			if rec.Humidity != 0 {
				humidities = append(humidities, rec.Humidity)
			}
			if rec.Pressure != 0 {
				pressures = append(pressures, rec.Pressure)
			}
			if rec.RecordedAt.After(latest) {
				latest = rec.RecordedAt
			}
		}

		out[name] = CityComparison{
			CityID:       city.ID,
			Country:      city.Country,
			Temperature:  floatStats(temps),
			Humidity:     intStats(humidities),
			Pressure:     intStats(pressures),
			TotalRecords: len(records),
			LatestRecord: latest.UTC().Format(timestampLayout),
		}
	}

	return out, nil
}

// Export returns every record in the inclusive [start, end] range, ascending
// by recorded_at, projected to the flat export shape. Either bound may be nil.
func (e *Engine) Export(cityID uint, start, end *time.Time) ([]ExportRecord, error) {
	records, err := e.source.RecordsForCity(cityID, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]ExportRecord, len(records))
	for i, rec := range records {
		out[i] = ExportRecord{
			ID:          rec.ID,
			RecordedAt:  rec.RecordedAt.UTC().Format(timestampLayout),
			Temperature: rec.Temperature,
			Humidity:    rec.Humidity,
			Pressure:    rec.Pressure,
			WeatherMain: rec.WeatherMain,
		}
	}
	return out, nil
}

// weekStart truncates t to the Monday 00:00 UTC of its ISO week.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func intStats(vals []int) IntStats {
	if len(vals) == 0 {
		return IntStats{}
	}
	minV, maxV := vals[0], vals[0]
	var sum int
	for _, v := range vals {
		sum += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return IntStats{
		Average: round2(float64(sum) / float64(len(vals))),
		Min:     minV,
		Max:     maxV,
	}
}

func floatStats(vals []float64) FloatStats {
	if len(vals) == 0 {
		return FloatStats{}
	}
	minV, maxV := vals[0], vals[0]
	var sum float64
	for _, v := range vals {
		sum += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return FloatStats{
		Average: round2(sum / float64(len(vals))),
		Min:     round2(minV),
		Max:     round2(maxV),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrCityNotFound)
}
