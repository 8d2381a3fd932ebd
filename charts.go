package main

import (
	"errors"
	"fmt"

	"github.com/pivolan/stats_dashboard/plot"
	"github.com/pivolan/stats_dashboard/summary"
)

var (
	errUnknownChart  = errors.New("unknown chart kind")
	errChartFormat   = errors.New("chart is not available in this format")
	errUnknownColumn = errors.New("unknown column")
	errNoChartColumn = errors.New("dataset has no column suitable for this chart")
)

var chartKinds = []string{"pie", "bar", "histogram", "boxplot", "heatmap"}

const (
	formatPNG  = "png"
	formatHTML = "html"
)

// renderChart draws one chart of a session. An empty column picks the first
// column that fits the chart kind.
func renderChart(s *session, kind, column, format string) ([]byte, string, error) {
	if format == "" {
		format = formatPNG
	}
	if format != formatPNG && format != formatHTML {
		return nil, "", fmt.Errorf("%s: %w", format, errChartFormat)
	}
	r := s.Report

	var (
		data []byte
		err  error
	)
	switch kind {
	case "pie", "bar":
		c, cerr := categoricalColumn(r.Descriptive, column)
		if cerr != nil {
			return nil, "", cerr
		}
		labels, counts := valueCounts(c)
		title := fmt.Sprintf("Distribution of %s", c.Column)
		if kind == "bar" {
			title = fmt.Sprintf("Frequency of %s", c.Column)
		}
		switch {
		case kind == "pie" && format == formatPNG:
			data, err = plot.PiePNG(title, labels, counts)
		case kind == "pie":
			data, err = plot.PieHTML(title, labels, counts)
		case format == formatPNG:
			data, err = plot.BarPNG(title, labels, counts)
		default:
			data, err = plot.BarHTML(title, labels, counts)
		}
	case "histogram":
		name, nerr := numericColumn(r.Descriptive, column)
		if nerr != nil {
			return nil, "", nerr
		}
		c, _ := r.Dataset.Column(name)
		bins := plot.Bins(summary.NumericValues(c), plot.DefaultBins)
		title := fmt.Sprintf("Histogram of %s", name)
		if format == formatPNG {
			data, err = plot.HistogramPNG(title, bins)
		} else {
			data, err = plot.HistogramHTML(title, bins)
		}
	case "boxplot":
		if format != formatHTML {
			return nil, "", fmt.Errorf("boxplot as %s: %w", format, errChartFormat)
		}
		if len(r.Descriptive.Numeric) == 0 {
			return nil, "", errNoChartColumn
		}
		data, err = plot.BoxPlotHTML("Numeric columns", r.Descriptive.Numeric)
	case "heatmap":
		if format != formatHTML {
			return nil, "", fmt.Errorf("heatmap as %s: %w", format, errChartFormat)
		}
		if !r.Correlation.Applicable {
			return nil, "", errNoChartColumn
		}
		data, err = plot.HeatmapHTML("Correlation matrix", r.Correlation.LabeledArray())
	default:
		return nil, "", fmt.Errorf("%s: %w", kind, errUnknownChart)
	}
	if errors.Is(err, plot.ErrNoValues) {
		return nil, "", errNoChartColumn
	}
	if err != nil {
		return nil, "", err
	}
	if format == formatPNG {
		return data, "image/png", nil
	}
	return data, "text/html; charset=utf-8", nil
}

func categoricalColumn(d *summary.Descriptive, name string) (summary.CategoricalSummary, error) {
	if name == "" {
		if len(d.Categorical) == 0 {
			return summary.CategoricalSummary{}, errNoChartColumn
		}
		return d.Categorical[0], nil
	}
	if c, ok := d.CategoricalColumn(name); ok {
		return c, nil
	}
	if _, ok := d.NumericColumn(name); ok {
		return summary.CategoricalSummary{}, fmt.Errorf("%s is numeric: %w", name, errNoChartColumn)
	}
	return summary.CategoricalSummary{}, fmt.Errorf("%s: %w", name, errUnknownColumn)
}

func numericColumn(d *summary.Descriptive, name string) (string, error) {
	if name == "" {
		for _, n := range d.Numeric {
			if n.Count > 0 {
				return n.Column, nil
			}
		}
		return "", errNoChartColumn
	}
	if n, ok := d.NumericColumn(name); ok {
		if n.Count == 0 {
			return "", fmt.Errorf("%s has no values: %w", name, errNoChartColumn)
		}
		return name, nil
	}
	if _, ok := d.CategoricalColumn(name); ok {
		return "", fmt.Errorf("%s is categorical: %w", name, errNoChartColumn)
	}
	return "", fmt.Errorf("%s: %w", name, errUnknownColumn)
}

func valueCounts(c summary.CategoricalSummary) ([]string, []float64) {
	labels := make([]string, len(c.Frequencies))
	counts := make([]float64, len(c.Frequencies))
	for i, f := range c.Frequencies {
		labels[i] = f.Value
		counts[i] = float64(f.Count)
	}
	return labels, counts
}
