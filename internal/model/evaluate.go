package model

import (
	"fmt"
	"math"
	"os"

	"github.com/paveg/gorilla"
)

// Metrics summarizes regression quality on a held-out set.
type Metrics struct {
	R2   float64
	MSE  float64
	Rows int
}

// Evaluate predicts the test frame and scores the predictions against the
// response column.
func Evaluate(forest *RandomForest, test *gorilla.DataFrame, responseColumn string) (Metrics, error) {
	actual, err := columnFloats(test, responseColumn)
	if err != nil {
		return Metrics{}, err
	}
	predicted, err := forest.PredictFrame(test)
	if err != nil {
		return Metrics{}, err
	}
	return Score(actual, predicted)
}

// Score computes R² and mean squared error for paired slices.
func Score(actual, predicted []float64) (Metrics, error) {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return Metrics{}, fmt.Errorf("model: cannot score %d actuals against %d predictions", len(actual), len(predicted))
	}
	mean := 0.0
	for _, y := range actual {
		mean += y
	}
	mean /= float64(len(actual))

	var residual, total float64
	for i, y := range actual {
		d := y - predicted[i]
		residual += d * d
		t := y - mean
		total += t * t
	}

	m := Metrics{
		MSE:  residual / float64(len(actual)),
		Rows: len(actual),
	}
	if total == 0 {
		// Constant response: perfect if residuals vanish, else undefined.
		if residual == 0 {
			m.R2 = 1
		} else {
			m.R2 = math.Inf(-1)
		}
		return m, nil
	}
	m.R2 = 1 - residual/total
	return m, nil
}

// WriteReport writes a small human-readable evaluation summary.
func (m Metrics) WriteReport(path string) error {
	report := fmt.Sprintf("rows: %d\nr2: %.6f\nmse: %.6f\nrmse: %.6f\n", m.Rows, m.R2, m.MSE, math.Sqrt(m.MSE))
	return os.WriteFile(path, []byte(report), 0o644)
}
