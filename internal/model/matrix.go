package model

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/gorilla"
)

// Matrix materializes a fully numeric frame into a feature matrix plus the
// response vector. Column order of the returned feature names is the frame's
// column order with the response column removed.
func Matrix(df *gorilla.DataFrame, responseColumn string) (features [][]float64, response []float64, names []string, err error) {
	if df == nil || df.Len() == 0 {
		return nil, nil, nil, fmt.Errorf("model: empty frame")
	}
	if !df.HasColumn(responseColumn) {
		return nil, nil, nil, fmt.Errorf("model: response column %q not found", responseColumn)
	}

	for _, name := range df.Columns() {
		if name != responseColumn {
			names = append(names, name)
		}
	}

	columns := make([][]float64, len(names))
	for i, name := range names {
		columns[i], err = columnFloats(df, name)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	response, err = columnFloats(df, responseColumn)
	if err != nil {
		return nil, nil, nil, err
	}

	features = make([][]float64, df.Len())
	for row := range features {
		features[row] = make([]float64, len(names))
		for col := range names {
			features[row][col] = columns[col][row]
		}
	}
	return features, response, names, nil
}

// Rows materializes a frame into feature rows ordered to match the trained
// forest's feature names, so an encoded inference frame lines up with the
// training layout.
func (f *RandomForest) Rows(df *gorilla.DataFrame) ([][]float64, error) {
	if df == nil || df.Len() == 0 {
		return nil, fmt.Errorf("model: empty frame")
	}
	columns := make([][]float64, len(f.FeatureNames))
	for i, name := range f.FeatureNames {
		if !df.HasColumn(name) {
			return nil, fmt.Errorf("model: feature column %q not found", name)
		}
		values, err := columnFloats(df, name)
		if err != nil {
			return nil, err
		}
		columns[i] = values
	}
	rows := make([][]float64, df.Len())
	for row := range rows {
		rows[row] = make([]float64, len(columns))
		for col := range columns {
			rows[row][col] = columns[col][row]
		}
	}
	return rows, nil
}

// PredictFrame predicts one value per row of an encoded feature frame.
func (f *RandomForest) PredictFrame(df *gorilla.DataFrame) ([]float64, error) {
	rows, err := f.Rows(df)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = f.Predict(row)
	}
	return out, nil
}

func columnFloats(df *gorilla.DataFrame, name string) ([]float64, error) {
	series, ok := df.Column(name)
	if !ok {
		return nil, fmt.Errorf("model: column %q not found", name)
	}
	arr := series.Array()
	defer arr.Release()

	out := make([]float64, series.Len())
	switch typed := arr.(type) {
	case *array.Float64:
		copy(out, typed.Float64Values())
	case *array.Float32:
		for i, v := range typed.Float32Values() {
			out[i] = float64(v)
		}
	case *array.Int64:
		for i, v := range typed.Int64Values() {
			out[i] = float64(v)
		}
	case *array.Int32:
		for i, v := range typed.Int32Values() {
			out[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("model: column %q is not numeric (%s)", name, series.DataType())
	}
	return out, nil
}
