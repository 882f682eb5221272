package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// releaseAfter releases an array obtained from ISeries.Array once the test
// finishes; Array retains a reference the caller owns.
func releaseAfter(t *testing.T, arr arrow.Array) arrow.Array {
	t.Helper()
	t.Cleanup(arr.Release)
	return arr
}

func TestReadCSVInfersColumnTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := "holiday,temp,traffic_volume\nNone,288.28,5545\nColumbus Day,289.36,4516\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	df, err := ReadCSV(path, ',')
	require.NoError(t, err)
	defer df.Release()

	require.Equal(t, []string{"holiday", "temp", "traffic_volume"}, df.Columns())
	require.Equal(t, 2, df.Len())

	holiday, _ := df.Column("holiday")
	assert.IsType(t, &array.String{}, releaseAfter(t, holiday.Array()))

	temp, _ := df.Column("temp")
	assert.IsType(t, &array.Float64{}, releaseAfter(t, temp.Array()))

	volume, _ := df.Column("traffic_volume")
	assert.IsType(t, &array.Int64{}, releaseAfter(t, volume.Array()))
}

func TestWriteCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.csv")
	content := "weather_main,clouds_all\nClear,40\nClouds,75\n"
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))

	df, err := ReadCSV(src, ',')
	require.NoError(t, err)
	defer df.Release()

	dst := filepath.Join(dir, "out.csv")
	require.NoError(t, WriteCSV(df, dst, ','))

	written, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, string(written))
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "absent.csv"), ',')
	require.Error(t, err)
}
