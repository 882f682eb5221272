package features

import (
	"sort"

	"github.com/paveg/gorilla"

	pipeerr "github.com/smartcity/trafficast/internal/errors"
)

// OneHotEncoder captures a per-column category vocabulary and replaces each
// configured categorical column with N-1 binary indicator columns, the first
// (lexicographically smallest) category acting as the dropped reference.
//
// The encoder is fitted exactly once, at training time, and is read-only for
// the lifetime of a trained model: Transform never mutates it, so a single
// instance may be shared across concurrent inference calls. Fields are
// exported for gob serialization of the artifact; treat them as read-only.
type OneHotEncoder struct {
	// Columns lists the encoded columns in configuration order.
	Columns []string
	// Categories holds each column's sorted fit-time vocabulary.
	Categories map[string][]string
	// Drop names the reference-category policy; always "first".
	Drop string
}

// FitOneHotEncoder builds a new encoder from the training data. The
// vocabulary per column is the sorted set of distinct values, so fitting is
// deterministic for a given input vocabulary regardless of row order.
func FitOneHotEncoder(df *gorilla.DataFrame, columns []string) (*OneHotEncoder, error) {
	const op = "FitOneHotEncoder"

	enc := &OneHotEncoder{
		Columns:    append([]string(nil), columns...),
		Categories: make(map[string][]string, len(columns)),
		Drop:       "first",
	}
	for _, name := range columns {
		values, err := categoryStrings(op, df, name)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		for _, v := range values {
			seen[v] = struct{}{}
		}
		vocab := make([]string, 0, len(seen))
		for v := range seen {
			vocab = append(vocab, v)
		}
		sort.Strings(vocab)
		enc.Categories[name] = vocab
	}
	return enc, nil
}

// Transform replaces each encoded column with its indicator columns, named
// column_value in vocabulary order with the first category dropped. The
// indicator set and order are fixed entirely by the fit-time vocabulary,
// never by the categories present in the current frame.
//
// A value outside the fit-time vocabulary is rejected with an UnseenCategory
// error. Rejecting, rather than zero-encoding, is deliberate: an all-zero row
// is indistinguishable from the reference category and would silently shift
// the prediction.
func (e *OneHotEncoder) Transform(df *gorilla.DataFrame) (*gorilla.DataFrame, error) {
	const op = "Transform"

	if err := requireColumns(op, df, e.Columns...); err != nil {
		return nil, err
	}

	mem := alloc()
	indicators := make([]gorilla.ISeries, 0, len(e.Columns)*4)
	for _, name := range e.Columns {
		values, err := categoryStrings(op, df, name)
		if err != nil {
			return nil, err
		}
		vocab := e.Categories[name]
		position := make(map[string]int, len(vocab))
		for i, v := range vocab {
			position[v] = i
		}
		for _, v := range values {
			if _, ok := position[v]; !ok {
				return nil, pipeerr.NewUnseenCategory(op, name, v)
			}
		}
		if len(vocab) == 0 {
			continue
		}
		// First category is the dropped reference.
		for _, category := range vocab[1:] {
			indicator := make([]float64, len(values))
			for i, v := range values {
				if v == category {
					indicator[i] = 1
				}
			}
			indicators = append(indicators, gorilla.NewSeries(name+"_"+category, indicator, mem))
		}
	}

	return appendColumns(df.Drop(e.Columns...), indicators...), nil
}

// FeatureNames returns the indicator column names Transform will emit, in
// output order.
func (e *OneHotEncoder) FeatureNames() []string {
	names := make([]string, 0, len(e.Columns)*4)
	for _, column := range e.Columns {
		vocab := e.Categories[column]
		if len(vocab) == 0 {
			continue
		}
		for _, category := range vocab[1:] {
			names = append(names, column+"_"+category)
		}
	}
	return names
}

// CategoriesFor returns a copy of one column's fit-time vocabulary.
func (e *OneHotEncoder) CategoriesFor(column string) []string {
	return append([]string(nil), e.Categories[column]...)
}
