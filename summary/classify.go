// Package summary computes descriptive statistics, distributional statistics
// and pairwise correlations over an in-memory dataset.
//
// Every function is a pure transformation of its argument: the dataset is
// never modified and each call returns fresh results, so concurrent callers
// need no coordination as long as each passes its own snapshot.
package summary

import (
	"errors"
	"fmt"

	"github.com/pivolan/stats_dashboard/domain/models"
)

// ErrEmptyDataset is returned when a dataset has no columns at all.
var ErrEmptyDataset = errors.New("summary: dataset has no columns")

type ColumnKind int

const (
	Categorical ColumnKind = iota
	Numeric
)

func (k ColumnKind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

func (k ColumnKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ColumnKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "numeric":
		*k = Numeric
	case "categorical":
		*k = Categorical
	default:
		return fmt.Errorf("summary: unknown column kind %q", b)
	}
	return nil
}

// Kinds maps column names to their kind.
type Kinds map[string]ColumnKind

// ClassifyColumns marks a column Numeric when every non-missing value is a
// finite real number. Columns without any non-missing value are Categorical.
func ClassifyColumns(d models.Dataset) Kinds {
	kinds := make(Kinds, len(d.Columns))
	for _, c := range d.Columns {
		kinds[c.Name] = classify(c)
	}
	return kinds
}

func classify(c models.Column) ColumnKind {
	present := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		if _, ok := v.Float(); !ok {
			return Categorical
		}
		present++
	}
	if present == 0 {
		return Categorical
	}
	return Numeric
}

// NumericColumns returns the names of numeric columns in dataset order.
func NumericColumns(d models.Dataset) []string {
	return columnsOfKind(d, Numeric)
}

// CategoricalColumns returns the names of categorical columns in dataset order.
func CategoricalColumns(d models.Dataset) []string {
	return columnsOfKind(d, Categorical)
}

func columnsOfKind(d models.Dataset, kind ColumnKind) []string {
	names := []string{}
	for _, c := range d.Columns {
		if classify(c) == kind {
			names = append(names, c.Name)
		}
	}
	return names
}

// NumericValues returns the non-missing values of c as floats. Values that
// are not numbers are skipped.
func NumericValues(c models.Column) []float64 {
	values := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if f, ok := v.Float(); ok {
			values = append(values, f)
		}
	}
	return values
}

// alignedValues returns one float per row plus a presence mask.
func alignedValues(c models.Column) ([]float64, []bool) {
	values := make([]float64, len(c.Values))
	present := make([]bool, len(c.Values))
	for i, v := range c.Values {
		values[i], present[i] = v.Float()
	}
	return values, present
}
