package summary

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pivolan/stats_dashboard/domain/models"
)

// Correlation is a symmetric Pearson matrix over the numeric columns.
// Applicable is false when the dataset has fewer than two numeric columns;
// Columns and Matrix are then empty.
type Correlation struct {
	Applicable bool     `json:"applicable"`
	Columns    []string `json:"columns"`
	Matrix     [][]Stat `json:"matrix"`
}

// CorrelationMatrix computes Pearson r for every pair of numeric columns using
// the rows where both values are present. A pair with fewer than two such rows,
// or without spread in either column over those rows, is undefined.
func CorrelationMatrix(d models.Dataset) *Correlation {
	var cols []models.Column
	for _, c := range d.Columns {
		if classify(c) == Numeric {
			cols = append(cols, c)
		}
	}
	if len(cols) < 2 {
		return &Correlation{Columns: []string{}, Matrix: [][]Stat{}}
	}

	values := make([][]float64, len(cols))
	present := make([][]bool, len(cols))
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		values[i], present[i] = alignedValues(c)
	}

	matrix := make([][]Stat, len(cols))
	for i := range matrix {
		matrix[i] = make([]Stat, len(cols))
	}
	for i := range cols {
		matrix[i][i] = Undefined()
		for _, ok := range present[i] {
			if ok {
				matrix[i][i] = 1
				break
			}
		}
		for j := i + 1; j < len(cols); j++ {
			r := pairwisePearson(values[i], present[i], values[j], present[j])
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return &Correlation{Applicable: true, Columns: names, Matrix: matrix}
}

// At returns the coefficient between columns a and b.
func (c *Correlation) At(a, b string) (Stat, bool) {
	i, j := c.index(a), c.index(b)
	if i < 0 || j < 0 {
		return Undefined(), false
	}
	return c.Matrix[i][j], true
}

func (c *Correlation) index(name string) int {
	for i, n := range c.Columns {
		if n == name {
			return i
		}
	}
	return -1
}

func pairwisePearson(x []float64, xok []bool, y []float64, yok []bool) Stat {
	var xs, ys []float64
	for k := range x {
		if xok[k] && yok[k] {
			xs = append(xs, x[k])
			ys = append(ys, y[k])
		}
	}
	if len(xs) < 2 || isConstant(xs) || isConstant(ys) {
		return Undefined()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return Undefined()
	}
	return Of(math.Max(-1, math.Min(1, r)))
}
