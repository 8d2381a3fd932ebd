package summary

import "github.com/pivolan/stats_dashboard/domain/models"

// Table is a header plus string rows, ready for CSV or spreadsheet export.
// Undefined statistics are rendered as N/A.
type Table struct {
	Header []string
	Rows   [][]string
}

// LabeledArray is a square numeric grid with row/column labels, the shape
// heatmap renderers expect.
type LabeledArray struct {
	Labels []string `json:"labels"`
	Values [][]Stat `json:"values"`
}

// DescriptiveRows are the statistic names of Descriptive.Table in order.
var DescriptiveRows = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Table lays out the numeric summaries with one row per statistic and one
// column per numeric column.
func (d *Descriptive) Table() Table {
	return d.TableFormat(Stat.String)
}

// TableFormat is Table with a custom rendering of statistic values.
func (d *Descriptive) TableFormat(format func(Stat) string) Table {
	t := Table{Header: append([]string{"statistic"}, numericNames(d.Numeric)...)}
	for _, name := range DescriptiveRows {
		row := []string{name}
		for _, s := range d.Numeric {
			var cell string
			switch name {
			case "count":
				cell = formatCount(s.Count)
			case "mean":
				cell = format(s.Mean)
			case "std":
				cell = format(s.Std)
			case "min":
				cell = format(s.Min)
			case "25%":
				cell = format(s.Q25)
			case "50%":
				cell = format(s.Median)
			case "75%":
				cell = format(s.Q75)
			case "max":
				cell = format(s.Max)
			}
			row = append(row, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FrequencyTable flattens the categorical summaries into column/value/count rows.
func (d *Descriptive) FrequencyTable() Table {
	t := Table{Header: []string{"column", "value", "count"}}
	for _, s := range d.Categorical {
		for _, f := range s.Frequencies {
			t.Rows = append(t.Rows, []string{s.Column, f.Value, formatCount(f.Count)})
		}
	}
	return t
}

func numericNames(summaries []NumericSummary) []string {
	names := make([]string, len(summaries))
	for i, s := range summaries {
		names[i] = s.Column
	}
	return names
}

// AdvancedRows are the statistic names of Advanced.Table in order.
var AdvancedRows = []string{"count", "mean", "median", "std", "variance", "skewness", "kurtosis", "cv_percent", "t_statistic", "p_value"}

func (a *Advanced) Table() Table {
	return a.TableFormat(Stat.String)
}

func (a *Advanced) TableFormat(format func(Stat) string) Table {
	header := []string{"statistic"}
	for _, s := range a.Columns {
		header = append(header, s.Column)
	}
	t := Table{Header: header}
	for _, name := range AdvancedRows {
		row := []string{name}
		for _, s := range a.Columns {
			row = append(row, s.field(name, format))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func (s ColumnStats) field(name string, format func(Stat) string) string {
	switch name {
	case "count":
		return formatCount(s.Count)
	case "mean":
		return format(s.Mean)
	case "median":
		return format(s.Median)
	case "std":
		return format(s.Std)
	case "variance":
		return format(s.Variance)
	case "skewness":
		return format(s.Skewness)
	case "kurtosis":
		return format(s.Kurtosis)
	case "cv_percent":
		return format(s.CV)
	case "t_statistic":
		return format(s.TStatistic)
	case "p_value":
		return format(s.PValue)
	}
	return ""
}

func (c *Correlation) Table() Table {
	return c.TableFormat(Stat.String)
}

func (c *Correlation) TableFormat(format func(Stat) string) Table {
	t := Table{Header: append([]string{""}, c.Columns...)}
	for i, name := range c.Columns {
		row := []string{name}
		for _, v := range c.Matrix[i] {
			row = append(row, format(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// LabeledArray returns an independent copy of the matrix for rendering.
func (c *Correlation) LabeledArray() LabeledArray {
	values := make([][]Stat, len(c.Matrix))
	for i, row := range c.Matrix {
		values[i] = append([]Stat(nil), row...)
	}
	return LabeledArray{Labels: append([]string(nil), c.Columns...), Values: values}
}

// DatasetTable renders the raw dataset, missing cells as empty strings.
func DatasetTable(d models.Dataset) Table {
	t := Table{Header: d.Names()}
	for i := 0; i < d.Rows(); i++ {
		row := make([]string, len(d.Columns))
		for j, v := range d.Row(i) {
			row[j] = v.String()
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
