package summary

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pivolan/stats_dashboard/domain/models"
)

// ColumnStats holds distributional statistics for one numeric column.
//
// TStatistic and PValue come from a one-sample t-test of the column against
// its own mean. The sample mean equals the hypothesised mean by construction,
// so any column with spread yields t = 0 and p = 1. The dashboard has always
// reported it this way; changing the reference value needs a product decision.
type ColumnStats struct {
	Column     string `json:"column"`
	Count      int    `json:"count"`
	Mean       Stat   `json:"mean"`
	Median     Stat   `json:"median"`
	Std        Stat   `json:"std"`
	Variance   Stat   `json:"variance"`
	Skewness   Stat   `json:"skewness"`
	Kurtosis   Stat   `json:"kurtosis"`
	CV         Stat   `json:"cv"`
	TStatistic Stat   `json:"t_statistic"`
	PValue     Stat   `json:"p_value"`
}

type Advanced struct {
	Columns []ColumnStats `json:"columns"`
}

// AdvancedStats computes distributional statistics for every numeric column
// of d. Missing values are dropped first.
func AdvancedStats(d models.Dataset) (*Advanced, error) {
	if len(d.Columns) == 0 {
		return nil, ErrEmptyDataset
	}
	result := &Advanced{Columns: []ColumnStats{}}
	for _, c := range d.Columns {
		if classify(c) != Numeric {
			continue
		}
		result.Columns = append(result.Columns, columnStats(c.Name, NumericValues(c)))
	}
	return result, nil
}

// Column returns the statistics for the named column.
func (a *Advanced) Column(name string) (ColumnStats, bool) {
	for _, s := range a.Columns {
		if s.Column == name {
			return s, true
		}
	}
	return ColumnStats{}, false
}

func columnStats(name string, values []float64) ColumnStats {
	n := len(values)
	s := ColumnStats{
		Column:     name,
		Count:      n,
		Mean:       mean(values),
		Median:     median(values),
		Std:        sampleStd(values),
		Variance:   sampleVariance(values),
		Skewness:   Undefined(),
		Kurtosis:   Undefined(),
		CV:         Undefined(),
		TStatistic: Undefined(),
		PValue:     Undefined(),
	}
	if s.Std.Defined() && s.Mean.Defined() && s.Mean != 0 {
		s.CV = Of(float64(s.Std) / float64(s.Mean) * 100)
	}
	if n < 2 || isConstant(values) {
		return s
	}
	if n >= 3 {
		s.Skewness = Of(stat.Skew(values, nil))
	}
	if n >= 4 {
		s.Kurtosis = Of(stat.ExKurtosis(values, nil))
	}
	s.TStatistic, s.PValue = oneSampleTTest(values, float64(s.Mean))
	return s
}

// oneSampleTTest returns the two-sided t-test of values against mu.
func oneSampleTTest(values []float64, mu float64) (Stat, Stat) {
	n := float64(len(values))
	m, std := mean(values), sampleStd(values)
	if !m.Defined() || !std.Defined() || std == 0 {
		return Undefined(), Undefined()
	}
	t := (float64(m) - mu) / (float64(std) / math.Sqrt(n))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}
	p := 2 * (1 - dist.CDF(math.Abs(t)))
	return Of(t), Of(math.Min(1, math.Max(0, p)))
}
