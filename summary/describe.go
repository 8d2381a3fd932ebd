package summary

import (
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/pivolan/stats_dashboard/domain/models"
)

// NumericSummary holds describe()-style statistics for one numeric column.
// Std is the sample standard deviation (n-1 denominator).
type NumericSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Stat   `json:"mean"`
	Std    Stat   `json:"std"`
	Min    Stat   `json:"min"`
	Q25    Stat   `json:"q25"`
	Median Stat   `json:"q50"`
	Q75    Stat   `json:"q75"`
	Max    Stat   `json:"max"`
}

type Frequency struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalSummary lists value frequencies, most frequent first. Ties keep
// the order in which values first appear.
type CategoricalSummary struct {
	Column      string      `json:"column"`
	Count       int         `json:"count"`
	Distinct    int         `json:"distinct"`
	Frequencies []Frequency `json:"frequencies"`
}

type Descriptive struct {
	Numeric     []NumericSummary     `json:"numeric"`
	Categorical []CategoricalSummary `json:"categorical"`
}

// DescriptiveSummary summarizes every column of d according to its kind.
func DescriptiveSummary(d models.Dataset) (*Descriptive, error) {
	if len(d.Columns) == 0 {
		return nil, ErrEmptyDataset
	}
	result := &Descriptive{
		Numeric:     []NumericSummary{},
		Categorical: []CategoricalSummary{},
	}
	for _, c := range d.Columns {
		if classify(c) == Numeric {
			result.Numeric = append(result.Numeric, describeNumeric(c.Name, NumericValues(c)))
		} else {
			result.Categorical = append(result.Categorical, describeCategorical(c))
		}
	}
	return result, nil
}

// NumericColumn returns the summary for the named numeric column.
func (d *Descriptive) NumericColumn(name string) (NumericSummary, bool) {
	for _, s := range d.Numeric {
		if s.Column == name {
			return s, true
		}
	}
	return NumericSummary{}, false
}

// CategoricalColumn returns the frequency table for the named column.
func (d *Descriptive) CategoricalColumn(name string) (CategoricalSummary, bool) {
	for _, s := range d.Categorical {
		if s.Column == name {
			return s, true
		}
	}
	return CategoricalSummary{}, false
}

func describeNumeric(name string, values []float64) NumericSummary {
	s := NumericSummary{
		Column: name,
		Count:  len(values),
		Mean:   Undefined(),
		Std:    Undefined(),
		Min:    Undefined(),
		Q25:    Undefined(),
		Median: Undefined(),
		Q75:    Undefined(),
		Max:    Undefined(),
	}
	if len(values) == 0 {
		return s
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Mean = mean(values)
	s.Std = sampleStd(values)
	s.Min = Of(sorted[0])
	s.Q25 = Of(quantile(sorted, 0.25))
	s.Median = Of(quantile(sorted, 0.5))
	s.Q75 = Of(quantile(sorted, 0.75))
	s.Max = Of(sorted[len(sorted)-1])
	return s
}

func describeCategorical(c models.Column) CategoricalSummary {
	counts := map[string]int{}
	order := []string{}
	present := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		present++
		key := v.String()
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key]++
	}
	freqs := make([]Frequency, len(order))
	for i, key := range order {
		freqs[i] = Frequency{Value: key, Count: counts[key]}
	}
	sort.SliceStable(freqs, func(i, j int) bool {
		return freqs[i].Count > freqs[j].Count
	})
	return CategoricalSummary{
		Column:      c.Name,
		Count:       present,
		Distinct:    len(freqs),
		Frequencies: freqs,
	}
}

// quantile interpolates linearly between the order statistics around
// position p*(n-1) of sorted.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	floor := math.Floor(pos)
	ceil := math.Ceil(pos)
	if floor == ceil {
		return sorted[int(pos)]
	}
	lower := sorted[int(floor)]
	upper := sorted[int(ceil)]
	frac := pos - floor
	if math.IsInf(upper-lower, 0) {
		return lower*(1-frac) + upper*frac
	}
	return lower + frac*(upper-lower)
}

func mean(values []float64) Stat {
	m, err := stats.Mean(values)
	if err != nil {
		return Undefined()
	}
	if math.IsInf(m, 0) {
		// the sum overflowed, the mean itself is finite
		m = runningMean(values)
	}
	return Of(m)
}

// runningMean averages without accumulating a sum.
func runningMean(values []float64) float64 {
	m := 0.0
	for i, v := range values {
		k := float64(i + 1)
		m += v/k - m/k
	}
	return m
}

func median(values []float64) Stat {
	m, err := stats.Median(values)
	if err != nil {
		return Undefined()
	}
	if math.IsInf(m, 0) {
		sorted, _ := stats.Sort(values)
		m = quantile(sorted, 0.5)
	}
	return Of(m)
}

// sampleVariance uses the n-1 denominator; fewer than two values is undefined.
func sampleVariance(values []float64) Stat {
	if len(values) < 2 {
		return Undefined()
	}
	// identical values must give exactly zero, not rounding noise around the mean
	if isConstant(values) {
		return 0
	}
	v, err := stats.SampleVariance(values)
	if err != nil {
		return Undefined()
	}
	return Of(v)
}

func sampleStd(values []float64) Stat {
	v := sampleVariance(values)
	if !v.Defined() {
		return v
	}
	return Of(math.Sqrt(float64(v)))
}

func isConstant(values []float64) bool {
	lo, err := stats.Min(values)
	if err != nil {
		return false
	}
	hi, _ := stats.Max(values)
	return lo == hi
}

// formatCount renders an integer statistic for tables.
func formatCount(n int) string {
	return strconv.Itoa(n)
}
