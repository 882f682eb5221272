package features

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/gorilla"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/trafficast/internal/config"
	pipeerr "github.com/smartcity/trafficast/internal/errors"
)

func outlierConfig() config.Outliers {
	return config.Outliers{
		TempColumn: "temp", TempMin: 233.1, TempMax: 319.3,
		RainColumn: "log_rain_1h", RainMin: 0, RainMax: 5.7,
		CloudsColumn: "clouds_all", CloudsMin: 0, CloudsMax: 100,
		HourColumn: "hour", HourMin: 0, HourMax: 23,
		MonthColumn: "month", MonthMin: 1, MonthMax: 12,
		WeatherColumn: "weather_main",
		ValidWeather:  []string{"Clouds", "Clear", "Rain"},
		WeekdayColumn: "day_of_week",
		ValidWeekdays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
		ResponseColumn: "traffic_volume", ResponseMin: 100, ResponseMax: 10000,
	}
}

// outlierFrame builds a frame whose first row passes every check; callers
// override single values per row to probe individual checks.
func outlierFrame(temp, rain, clouds, hour, month []float64, weather, weekday []string, volume []float64) *gorilla.DataFrame {
	mem := memory.NewGoAllocator()
	return gorilla.NewDataFrame(
		gorilla.NewSeries("temp", temp, mem),
		gorilla.NewSeries("log_rain_1h", rain, mem),
		gorilla.NewSeries("clouds_all", clouds, mem),
		gorilla.NewSeries("hour", hour, mem),
		gorilla.NewSeries("month", month, mem),
		gorilla.NewSeries("weather_main", weather, mem),
		gorilla.NewSeries("day_of_week", weekday, mem),
		gorilla.NewSeries("traffic_volume", volume, mem),
	)
}

func TestRemoveOutliersBoundsAreInclusive(t *testing.T) {
	// Rows sit exactly on the bounds of each numeric check.
	df := outlierFrame(
		[]float64{233.1, 319.3},
		[]float64{0, 5.7},
		[]float64{0, 100},
		[]float64{0, 23},
		[]float64{1, 12},
		[]string{"Clear", "Rain"},
		[]string{"Monday", "Sunday"},
		[]float64{100, 10000},
	)
	defer df.Release()

	out, removed, err := RemoveOutliers(df, outlierConfig(), true)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 0, removed)
	assert.Equal(t, 2, out.Len())
}

func TestRemoveOutliersChecksComposeByIntersection(t *testing.T) {
	// Row 0 passes everything. Row 1 fails only temperature, row 2 fails
	// only the weather allow-list, row 3 fails two checks at once.
	df := outlierFrame(
		[]float64{280, 500, 280, 500},
		[]float64{0.5, 0.5, 0.5, 0.5},
		[]float64{40, 40, 40, 40},
		[]float64{9, 9, 9, 9},
		[]float64{6, 6, 6, 6},
		[]string{"Clear", "Clear", "Tornado", "Tornado"},
		[]string{"Monday", "Monday", "Monday", "Monday"},
		[]float64{4000, 4000, 4000, 4000},
	)
	defer df.Release()

	out, removed, err := RemoveOutliers(df, outlierConfig(), true)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 3, removed)
	assert.Equal(t, 1, out.Len())
	assert.Equal(t, []float64{280}, floatColumn(t, out, "temp"))
}

func TestRemoveOutliersSkipsResponseCheckForInference(t *testing.T) {
	df := outlierFrame(
		[]float64{280},
		[]float64{0.5},
		[]float64{40},
		[]float64{9},
		[]float64{6},
		[]string{"Clear"},
		[]string{"Monday"},
		[]float64{-1}, // out of range, but not checked on the inference path
	)
	defer df.Release()

	out, removed, err := RemoveOutliers(df, outlierConfig(), false)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, out.Len())
}

func TestRemoveOutliersTighterBoundsRemoveNoFewerRows(t *testing.T) {
	df := outlierFrame(
		[]float64{240, 260, 280, 300},
		[]float64{0.5, 0.5, 0.5, 0.5},
		[]float64{40, 40, 40, 40},
		[]float64{9, 9, 9, 9},
		[]float64{6, 6, 6, 6},
		[]string{"Clear", "Clear", "Clear", "Clear"},
		[]string{"Monday", "Monday", "Monday", "Monday"},
		[]float64{4000, 4000, 4000, 4000},
	)
	defer df.Release()

	wide := outlierConfig()
	out1, removedWide, err := RemoveOutliers(df, wide, true)
	require.NoError(t, err)
	defer out1.Release()

	tight := outlierConfig()
	tight.TempMin, tight.TempMax = 250, 290
	out2, removedTight, err := RemoveOutliers(df, tight, true)
	require.NoError(t, err)
	defer out2.Release()

	assert.GreaterOrEqual(t, removedTight, removedWide)
	assert.Equal(t, 2, out2.Len())
}

func TestRemoveOutliersRejectsStringColumnUnderNumericBound(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(gorilla.NewSeries("temp", []string{"warm"}, mem))
	defer df.Release()

	_, _, err := RemoveOutliers(df, outlierConfig(), false)
	require.Error(t, err)
	assert.True(t, pipeerr.IsKind(err, pipeerr.KindInvalidType))
}

func TestRemoveOutliersMissingColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(gorilla.NewSeries("temp", []float64{280}, mem))
	defer df.Release()

	_, _, err := RemoveOutliers(df, outlierConfig(), false)
	require.Error(t, err)
	assert.True(t, pipeerr.IsKind(err, pipeerr.KindMissingColumn))
}
