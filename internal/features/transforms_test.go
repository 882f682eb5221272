package features

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/gorilla"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipeerr "github.com/smartcity/trafficast/internal/errors"
)

func floatColumn(t *testing.T, df *gorilla.DataFrame, name string) []float64 {
	t.Helper()
	values, err := numericValues("test", df, name)
	require.NoError(t, err)
	return values
}

func stringColumn(t *testing.T, df *gorilla.DataFrame, name string) []string {
	t.Helper()
	values, err := categoryStrings("test", df, name)
	require.NoError(t, err)
	return values
}

func TestColumnAccessReleasesArrowBuffers(t *testing.T) {
	// Array() retains a reference; the accessors must release it or the
	// frame's buffers outlive the frame.
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("temp", []float64{280, 290}, mem),
		gorilla.NewSeries("weather_main", []string{"Clear", "Clouds"}, mem),
	)

	_, err := numericValues("test", df, "temp")
	require.NoError(t, err)
	_, err = stringValues("test", df, "weather_main")
	require.NoError(t, err)
	_, err = categoryStrings("test", df, "weather_main")
	require.NoError(t, err)

	df.Release()
	mem.AssertSize(t, 0)
}

func TestFahrenheitToKelvin(t *testing.T) {
	assert.Equal(t, 273.15, FahrenheitToKelvin(32))
	assert.InDelta(t, 0, FahrenheitToKelvin(-459.67), 1e-9)
	assert.InDelta(t, 373.15, FahrenheitToKelvin(212), 1e-9)
}

func TestCreateDatetimeFeatures(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("date_time", []string{
			"2013-10-14 09:00:00",
			"2013-01-01 00:00:00",
		}, mem),
		gorilla.NewSeries("traffic_volume", []float64{4500, 900}, mem),
	)
	defer df.Release()

	out, dropped, err := CreateDatetimeFeatures(df, "date_time", "month", "hour", "day_of_week")
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 0, dropped)
	assert.Equal(t, []float64{10, 1}, floatColumn(t, out, "month"))
	assert.Equal(t, []float64{9, 0}, floatColumn(t, out, "hour"))
	assert.Equal(t, []string{"Monday", "Tuesday"}, stringColumn(t, out, "day_of_week"))
}

func TestCreateDatetimeFeaturesDropsUnparsableRows(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("date_time", []string{
			"2013-10-14 09:00:00",
			"not a timestamp",
			"2013-10-15 10:00:00",
		}, mem),
		gorilla.NewSeries("traffic_volume", []float64{4500, 1, 3000}, mem),
	)
	defer df.Release()

	out, dropped, err := CreateDatetimeFeatures(df, "date_time", "month", "hour", "day_of_week")
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 1, dropped)
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, []float64{4500, 3000}, floatColumn(t, out, "traffic_volume"))
}

func TestCreateDatetimeFeaturesMissingColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(gorilla.NewSeries("traffic_volume", []float64{1}, mem))
	defer df.Release()

	_, _, err := CreateDatetimeFeatures(df, "date_time", "month", "hour", "day_of_week")
	require.Error(t, err)
	assert.True(t, pipeerr.IsKind(err, pipeerr.KindMissingColumn))
}

func TestBinarizeColumns(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("holiday", []string{"None", "Labor Day", "None"}, mem),
	)
	defer df.Release()

	out, err := BinarizeColumns(df, []string{"holiday"}, "binarize_", "None")
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []float64{0, 1, 0}, floatColumn(t, out, "binarize_holiday"))
	// Source column survives; the orchestrator drops it later.
	assert.True(t, out.HasColumn("holiday"))
}

func TestLogTransformColumns(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("rain_1h", []float64{0, 1, 10, 100}, mem),
	)
	defer df.Release()

	out, err := LogTransformColumns(df, []string{"rain_1h"}, "log_")
	require.NoError(t, err)
	defer out.Release()

	values := floatColumn(t, out, "log_rain_1h")
	assert.Equal(t, 0.0, values[0])
	for i := 1; i < len(values); i++ {
		assert.Greater(t, values[i], values[i-1])
	}
	assert.InDelta(t, math.Log1p(100), values[3], 1e-12)
}

func TestLogTransformColumnsRejectsNonNumericColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("rain_1h", []string{"heavy"}, mem),
	)
	defer df.Release()

	_, err := LogTransformColumns(df, []string{"rain_1h"}, "log_")
	require.Error(t, err)
	assert.True(t, pipeerr.IsKind(err, pipeerr.KindInvalidType))
}

func TestCollapseCategoriesIsIdempotent(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("weather_main", []string{"Squall", "Clear", "Smoke"}, mem),
	)
	defer df.Release()

	rules := map[string]string{"Squall": "Thunderstorm", "Smoke": "Haze"}

	once, err := CollapseCategories(df, "weather_main", rules)
	require.NoError(t, err)
	defer once.Release()
	twice, err := CollapseCategories(once, "weather_main", rules)
	require.NoError(t, err)
	defer twice.Release()

	want := []string{"Thunderstorm", "Clear", "Haze"}
	assert.Equal(t, want, stringColumn(t, once, "weather_main"))
	assert.Equal(t, want, stringColumn(t, twice, "weather_main"))
}

func TestConvertTemperature(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("temp", []float64{32, 212}, mem),
	)
	defer df.Release()

	out, err := ConvertTemperature(df, "temp")
	require.NoError(t, err)
	defer out.Release()

	values := floatColumn(t, out, "temp")
	assert.Equal(t, 273.15, values[0])
	assert.InDelta(t, 373.15, values[1], 1e-9)
}

func TestDropColumnsToleratesAbsentNames(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("a", []float64{1}, mem),
		gorilla.NewSeries("b", []float64{2}, mem),
	)
	defer df.Release()

	out := DropColumns(df, []string{"b", "never_existed"})
	defer out.Release()

	assert.Equal(t, []string{"a"}, out.Columns())
}
