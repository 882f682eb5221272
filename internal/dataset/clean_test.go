package dataset

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/gorilla"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanDropsDuplicatesKeepingFirst(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("holiday", []string{"None", "None", "Labor Day"}, mem),
		gorilla.NewSeries("temp", []float64{288.28, 288.28, 290.1}, mem),
	)
	defer df.Release()

	out := Clean(df, "first")
	defer out.Release()

	require.Equal(t, 2, out.Len())
	col, _ := out.Column("holiday")
	values := releaseAfter(t, col.Array()).(*array.String)
	assert.Equal(t, "None", values.Value(0))
	assert.Equal(t, "Labor Day", values.Value(1))
}

func TestCleanKeepLastPreservesLaterRow(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("id", []int64{1, 2, 1}, mem),
		gorilla.NewSeries("v", []float64{10, 20, 10}, mem),
	)
	defer df.Release()

	first := Clean(df, "first")
	defer first.Release()
	last := Clean(df, "last")
	defer last.Release()

	assert.Equal(t, 2, first.Len())
	assert.Equal(t, 2, last.Len())
}

func TestCleanDropsRowsWithMissingValues(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := gorilla.NewDataFrame(
		gorilla.NewSeries("weather_main", []string{"Clear", "  ", "Clouds"}, mem),
		gorilla.NewSeries("clouds_all", []float64{40, 10, 75}, mem),
	)
	defer df.Release()

	out := Clean(df, "first")
	defer out.Release()

	assert.Equal(t, 2, out.Len())
}
