// Package plot renders dataset charts as PNG images (go-chart) and as
// interactive HTML pages (go-echarts).
package plot

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNoValues = errors.New("plot: nothing to draw")

func calculateGridStep(maxValue float64) float64 {
	if maxValue <= 0 {
		return 0
	}
	if maxValue < 1e-10 {
		return 1e-10
	}

	magnitude := math.Pow(10, math.Floor(math.Log10(maxValue)))
	normalized := maxValue / magnitude

	var step float64
	switch {
	case normalized <= 1:
		step = 0.2
	case normalized <= 2:
		step = 0.5
	case normalized <= 5:
		step = 1.0
	default:
		step = 2.0
	}

	finalStep := step * magnitude
	if finalStep >= 1000 {
		return math.Round(finalStep/100) * 100
	}
	if finalStep >= 100 {
		return math.Round(finalStep/10) * 10
	}
	return finalStep
}

func customizePaddingXBottom(values []chart.Value) int {
	count := 0
	for _, v := range values {
		if len(v.Label) > count {
			count = len(v.Label)
		}
	}
	return count * 8
}

// DrawPlotBar renders a vertical bar chart with a dashed value grid.
func DrawPlotBar(data dataForGraph) ([]byte, error) {
	barValues := generateBarValues(data)
	if len(barValues) == 0 {
		return nil, ErrNoValues
	}
	paddingX := customizePaddingXBottom(barValues)
	width, height := calculateChartDimensions(len(barValues), 100)
	ticks := generateGrid(findMaxValue(data.getYValues()))

	bar := chart.BarChart{
		Title: data.GetNameGraph(),
		Background: chart.Style{
			StrokeColor: chart.ColorBlack,
			Padding: chart.Box{
				Bottom: paddingX,
				Top:    50,
			},
		},
		Height:   height + 50,
		Width:    width + paddingX + 50,
		BarWidth: 60,
		Bars:     barValues,
		YAxis: chart.YAxis{
			Name: data.getNameYAxis(),
			Range: &chart.ContinuousRange{
				Min: 0.0,
				Max: ticks[len(ticks)-1].Value,
			},
			Style: chart.Style{
				StrokeWidth: 2,
				StrokeColor: chart.ColorBlack,
				FontSize:    17,
			},
			Ticks: ticks,
			GridMajorStyle: chart.Style{
				StrokeColor:     chart.ColorBlack,
				StrokeWidth:     1,
				DotWidth:        1,
				StrokeDashArray: []float64{5.0, 5.0},
			},
		},
		XAxis: chart.Style{
			StrokeWidth:         2,
			StrokeColor:         chart.ColorBlack,
			TextRotationDegrees: 88,
			FontSize:            17,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := bar.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// BarPNG draws one bar per label, typically value counts of a column.
func BarPNG(title string, labels []string, counts []float64) ([]byte, error) {
	if len(labels) != len(counts) {
		return nil, fmt.Errorf("plot: %d labels for %d values", len(labels), len(counts))
	}
	return DrawPlotBar(newDataXStrings(labels, counts, "Count", title))
}

func HistogramPNG(title string, bins []Bin) ([]byte, error) {
	return DrawPlotBar(newDataRangeX(bins, "Frequency", title))
}

// PiePNG draws the share of each label. Non-positive counts are skipped.
func PiePNG(title string, labels []string, counts []float64) ([]byte, error) {
	if len(labels) != len(counts) {
		return nil, fmt.Errorf("plot: %d labels for %d values", len(labels), len(counts))
	}
	total := 0.0
	for _, c := range counts {
		if c > 0 {
			total += c
		}
	}
	var values []chart.Value
	for i, c := range counts {
		if c <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: c,
			Label: fmt.Sprintf("%s %.1f%%", labels[i], c/total*100),
		})
	}
	if len(values) == 0 {
		return nil, ErrNoValues
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  1024,
		Height: 1024,
		Background: chart.Style{
			FillColor: drawing.ColorWhite,
			Padding:   chart.Box{Top: 60},
		},
		Values: values,
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %w", err)
	}
	return buffer.Bytes(), nil
}
