package analytics

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-analytics/internal/apperr"
	"weather-analytics/internal/models"
)

// fakeSource is an in-memory Source honoring the ascending-order and
// inclusive-bounds contract.
type fakeSource struct {
	cities  map[string]*models.City
	records map[uint][]models.WeatherRecord
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		cities:  make(map[string]*models.City),
		records: make(map[uint][]models.WeatherRecord),
	}
}

func (f *fakeSource) addCity(id uint, name, country string) *models.City {
	c := &models.City{ID: id, Name: name, Country: country}
	f.cities[name] = c
	return c
}

func (f *fakeSource) addRecord(cityID uint, at time.Time, temp float64, humidity, pressure int, cond string) {
	recs := f.records[cityID]
	f.records[cityID] = append(recs, models.WeatherRecord{
		ID:          uint(len(recs) + 1),
		CityID:      cityID,
		Temperature: temp,
		Humidity:    humidity,
		Pressure:    pressure,
		WeatherMain: cond,
		RecordedAt:  at,
	})
}

func (f *fakeSource) CityByName(name string) (*models.City, error) {
	if c, ok := f.cities[name]; ok {
		return c, nil
	}
	return nil, apperr.CityNotFoundf("City '%s' not found", name)
}

func (f *fakeSource) RecordsForCity(cityID uint, from, to *time.Time) ([]models.WeatherRecord, error) {
	var out []models.WeatherRecord
	for _, r := range f.records[cityID] {
		if from != nil && r.RecordedAt.Before(*from) {
			continue
		}
		if to != nil && r.RecordedAt.After(*to) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

// 2024-06-15 is a Saturday; the Monday of its ISO week is 2024-06-10.
var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(src Source) *Engine {
	e := NewEngine(src)
	e.now = func() time.Time { return testNow }
	return e
}

func day(d int, hour int) time.Time {
	return time.Date(2024, 6, d, hour, 0, 0, 0, time.UTC)
}

func TestDailyAverages(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	src.addRecord(1, day(13, 6), 10, 50, 1010, "Clear")
	src.addRecord(1, day(13, 12), 20, 55, 1012, "Clear")
	src.addRecord(1, day(13, 18), 30, 60, 1015, "Rain")
	src.addRecord(1, day(14, 12), 5, 70, 1000, "Rain")
	src.addRecord(1, day(15, 9), 7, 65, 1005, "Clouds")

	e := newTestEngine(src)
	got, err := e.DailyAverages(1, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Descending by date.
	assert.Equal(t, "2024-06-15", got[0].Date)
	assert.Equal(t, "2024-06-14", got[1].Date)
	assert.Equal(t, "2024-06-13", got[2].Date)

	assert.Equal(t, 20.0, got[2].AvgTemperature)
	assert.Equal(t, 3, got[2].RecordCount)
	assert.Equal(t, 5.0, got[1].AvgTemperature)
	assert.Equal(t, 1, got[1].RecordCount)
}

func TestDailyAveragesWindow(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	src.addRecord(1, testNow.AddDate(0, 0, -10), 10, 50, 1010, "Clear")
	src.addRecord(1, testNow.AddDate(0, 0, -1), 20, 50, 1010, "Clear")

	e := newTestEngine(src)
	days := 5
	got, err := e.DailyAverages(1, &days)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 20.0, got[0].AvgTemperature)
}

func TestDailyAveragesEmpty(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")

	e := newTestEngine(src)
	got, err := e.DailyAverages(1, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDailyAveragesRounding(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	src.addRecord(1, day(13, 6), 10, 50, 1010, "Clear")
	src.addRecord(1, day(13, 12), 10, 50, 1010, "Clear")
	src.addRecord(1, day(13, 18), 11, 50, 1010, "Clear")

	e := newTestEngine(src)
	got, err := e.DailyAverages(1, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	// 31/3 = 10.333... rounds to 10.33.
	assert.Equal(t, 10.33, got[0].AvgTemperature)
}

func TestTrendAnalysisIncreasing(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	src.addRecord(1, day(12, 6), 10, 50, 1010, "Clear")
	src.addRecord(1, day(12, 18), 10, 50, 1010, "Clear")
	src.addRecord(1, day(13, 6), 20, 50, 1010, "Clear")
	src.addRecord(1, day(13, 18), 20, 50, 1010, "Clear")

	e := newTestEngine(src)
	trend, err := e.TrendAnalysis(1, 7)
	require.NoError(t, err)
	require.NotNil(t, trend)

	assert.Equal(t, 15.0, trend.AvgTemperature)
	assert.Equal(t, 10.0, trend.MinTemperature)
	assert.Equal(t, 20.0, trend.MaxTemperature)
	assert.Equal(t, 10.0, trend.TemperatureChange)
	assert.Equal(t, "increasing", trend.TrendDirection)
	assert.Equal(t, 4, trend.RecordCount)
	require.Len(t, trend.DailyData, 4)
	assert.Equal(t, "2024-06-12", trend.DailyData[0].Date)
	assert.Equal(t, "2024-06-13", trend.DailyData[3].Date)
}

func TestTrendAnalysisDirections(t *testing.T) {
	tests := []struct {
		name  string
		temps []float64
		want  string
	}{
		{name: "decreasing", temps: []float64{20, 20, 10, 10}, want: "decreasing"},
		{name: "stable within threshold", temps: []float64{10, 10, 10.4, 10.4}, want: "stable"},
		{name: "exactly at threshold is stable", temps: []float64{10, 10, 10.5, 10.5}, want: "stable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.addCity(1, "Tokyo", "JP")
			for i, temp := range tt.temps {
				src.addRecord(1, day(12, i+1), temp, 50, 1010, "Clear")
			}

			e := newTestEngine(src)
			trend, err := e.TrendAnalysis(1, 7)
			require.NoError(t, err)
			require.NotNil(t, trend)
			assert.Equal(t, tt.want, trend.TrendDirection)
		})
	}
}

func TestTrendAnalysisSingleRecord(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	src.addRecord(1, day(14, 12), 8, 50, 1010, "Clear")

	e := newTestEngine(src)
	trend, err := e.TrendAnalysis(1, 7)
	require.NoError(t, err)
	require.NotNil(t, trend)

	// Floor split leaves the first half empty; its mean is 0.
	assert.Equal(t, 8.0, trend.TemperatureChange)
	assert.Equal(t, "increasing", trend.TrendDirection)
}

func TestTrendAnalysisNoData(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	// Record outside the window.
	src.addRecord(1, testNow.AddDate(0, 0, -30), 10, 50, 1010, "Clear")

	e := newTestEngine(src)
	trend, err := e.TrendAnalysis(1, 7)
	require.NoError(t, err)
	assert.Nil(t, trend)
}

func TestHumidityPressurePatterns(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	src.addRecord(1, day(10, 1), 10, 40, 1000, "Clear")
	src.addRecord(1, day(11, 1), 12, 60, 0, "Clear")
	src.addRecord(1, day(12, 1), 14, 0, 1010, "Rain")

	e := newTestEngine(src)
	got, err := e.HumidityPressurePatterns(1)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Zero values are excluded from the computation set.
	assert.Equal(t, 50.0, got.Humidity.Average)
	assert.Equal(t, 40, got.Humidity.Min)
	assert.Equal(t, 60, got.Humidity.Max)

	assert.Equal(t, 1005.0, got.Pressure.Average)
	assert.Equal(t, 1000, got.Pressure.Min)
	assert.Equal(t, 1010, got.Pressure.Max)

	assert.Equal(t, map[string]int{"Clear": 2, "Rain": 1}, got.WeatherConditions)
	assert.Equal(t, 3, got.TotalRecords)
}

func TestHumidityPressurePatternsNoRecords(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")

	e := newTestEngine(src)
	got, err := e.HumidityPressurePatterns(1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWeeklyAverages(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	// Current ISO week starts Monday 2024-06-10.
	src.addRecord(1, day(10, 8), 10, 50, 1010, "Clear")
	src.addRecord(1, day(12, 8), 20, 50, 1010, "Clear")
	// Previous week: Saturday 2024-06-08 belongs to the 2024-06-03 bucket.
	src.addRecord(1, day(8, 8), 30, 50, 1010, "Clear")

	e := newTestEngine(src)
	got, err := e.WeeklyAverages(1, 4)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "2024-06-10", got[0].Start)
	assert.Equal(t, 15.0, got[0].AvgTemperature)
	assert.Equal(t, 10.0, got[0].MinTemperature)
	assert.Equal(t, 20.0, got[0].MaxTemperature)
	assert.Equal(t, 2, got[0].RecordCount)

	assert.Equal(t, "2024-06-03", got[1].Start)
	assert.Equal(t, 30.0, got[1].AvgTemperature)
	assert.Equal(t, 1, got[1].RecordCount)
}

func TestMonthlyAverages(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	src.addRecord(1, time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC), 18, 50, 1010, "Clear")
	src.addRecord(1, day(1, 8), 22, 50, 1010, "Clear")
	src.addRecord(1, day(10, 8), 26, 50, 1010, "Clear")

	e := newTestEngine(src)
	got, err := e.MonthlyAverages(1, 12)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "2024-06", got[0].Start)
	assert.Equal(t, 24.0, got[0].AvgTemperature)
	assert.Equal(t, 22.0, got[0].MinTemperature)
	assert.Equal(t, 26.0, got[0].MaxTemperature)
	assert.Equal(t, 2, got[0].RecordCount)

	assert.Equal(t, "2024-05", got[1].Start)
}

func TestCompareCities(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	src.addCity(2, "London", "GB")
	src.addCity(3, "Quito", "EC") // exists but no records

	src.addRecord(1, day(10, 8), 20, 60, 1010, "Clear")
	src.addRecord(1, day(12, 8), 30, 40, 1020, "Rain")
	src.addRecord(2, day(11, 8), 15, 80, 1005, "Rain")

	e := newTestEngine(src)
	got, err := e.CompareCities([]string{"Tokyo", "London", "Quito", "Atlantis"})
	require.NoError(t, err)

	// Unknown names and cities without data contribute no key.
	require.Len(t, got, 2)

	tokyo := got["Tokyo"]
	assert.Equal(t, uint(1), tokyo.CityID)
	assert.Equal(t, "JP", tokyo.Country)
	assert.Equal(t, 25.0, tokyo.Temperature.Average)
	assert.Equal(t, 20.0, tokyo.Temperature.Min)
	assert.Equal(t, 30.0, tokyo.Temperature.Max)
	assert.Equal(t, 50.0, tokyo.Humidity.Average)
	assert.Equal(t, 40, tokyo.Humidity.Min)
	assert.Equal(t, 60, tokyo.Humidity.Max)
	assert.Equal(t, 2, tokyo.TotalRecords)
	assert.Equal(t, "2024-06-12 08:00:00", tokyo.LatestRecord)

	london := got["London"]
	assert.Equal(t, uint(2), london.CityID)
	assert.Equal(t, 1, london.TotalRecords)
}

func TestCompareCitiesLatestIsMaxNotLast(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	// Inserted out of chronological order.
	src.addRecord(1, day(14, 8), 20, 60, 1010, "Clear")
	src.addRecord(1, day(9, 8), 10, 60, 1010, "Clear")

	e := newTestEngine(src)
	got, err := e.CompareCities([]string{"Tokyo"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-14 08:00:00", got["Tokyo"].LatestRecord)
}

func TestExport(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	src.addRecord(1, day(12, 8), 10, 50, 1010, "Clear")
	src.addRecord(1, day(13, 14), 20, 55, 1012, "Rain")
	src.addRecord(1, day(14, 8), 30, 60, 1015, "Clear")

	e := newTestEngine(src)

	// Open-ended: everything, ascending.
	all, err := e.Export(1, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-06-12 08:00:00", all[0].RecordedAt)
	assert.Equal(t, "2024-06-14 08:00:00", all[2].RecordedAt)

	// start=end covering a single record's date.
	start := day(13, 0)
	end := day(13, 23)
	one, err := e.Export(1, &start, &end)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "2024-06-13 14:00:00", one[0].RecordedAt)
	assert.Equal(t, 20.0, one[0].Temperature)
	assert.Equal(t, "Rain", one[0].WeatherMain)
}

func TestDailyAveragesIdempotent(t *testing.T) {
	src := newFakeSource()
	src.addCity(1, "Tokyo", "JP")
	src.addRecord(1, day(13, 6), 10, 50, 1010, "Clear")
	src.addRecord(1, day(14, 6), 20, 50, 1010, "Clear")

	e := newTestEngine(src)
	first, err := e.DailyAverages(1, nil)
	require.NoError(t, err)
	second, err := e.DailyAverages(1, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWeekStart(t *testing.T) {
	// Monday maps to itself; Sunday maps back to the preceding Monday.
	monday := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 6, 16, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), weekStart(monday))
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), weekStart(sunday))
}
