package plot

import (
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// dataForGraph is what the bar renderer needs from a series.
type dataForGraph interface {
	GetNameGraph() string
	getNameYAxis() string
	getYValues() []float64
	labels() []string
}

// dataXStrings is a series with one text label per bar.
type dataXStrings struct {
	xValues   []string
	yValues   []float64
	nameYAxis string
	nameGraph string
}

func newDataXStrings(x []string, y []float64, nameYAxis, nameGraph string) dataXStrings {
	return dataXStrings{xValues: x, yValues: y, nameYAxis: nameYAxis, nameGraph: nameGraph}
}

func (d dataXStrings) GetNameGraph() string  { return d.nameGraph }
func (d dataXStrings) getNameYAxis() string  { return d.nameYAxis }
func (d dataXStrings) getYValues() []float64 { return d.yValues }
func (d dataXStrings) labels() []string      { return d.xValues }

// dataRangeX is a series of histogram bins labelled start-end.
type dataRangeX struct {
	bins      []Bin
	nameYAxis string
	nameGraph string
}

func newDataRangeX(bins []Bin, nameYAxis, nameGraph string) dataRangeX {
	return dataRangeX{bins: bins, nameYAxis: nameYAxis, nameGraph: nameGraph}
}

func (d dataRangeX) GetNameGraph() string { return d.nameGraph }
func (d dataRangeX) getNameYAxis() string { return d.nameYAxis }

func (d dataRangeX) getYValues() []float64 {
	y := make([]float64, len(d.bins))
	for i, b := range d.bins {
		y[i] = float64(b.Count)
	}
	return y
}

func (d dataRangeX) labels() []string {
	l := make([]string, len(d.bins))
	for i, b := range d.bins {
		l[i] = b.Label()
	}
	return l
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

func findMaxValue(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	max := y[0]
	for _, v := range y {
		if v > max {
			max = v
		}
	}
	return max
}

// calculateChartDimensions sizes the canvas from the bar count. Few bars get
// extra room so labels stay readable.
func calculateChartDimensions(bars int, minBarWidth float64) (width, height int) {
	if bars <= 0 || minBarWidth <= 0 {
		return 0, 0
	}
	x := 1.1
	if bars < 2 {
		x = 10.0
	} else if bars < 10 {
		x = 3.0
	}
	const (
		paddingY     = 100
		spacingRatio = 0.2
		aspectRatio  = 9.0 / 16.0
	)
	barSpacing := minBarWidth * spacingRatio
	totalWidth := (minBarWidth+barSpacing)*float64(bars) + paddingY
	width = int(totalWidth*x) + paddingY
	height = int(float64(width) * aspectRatio)
	return width, height
}

func generateBarValues(d dataForGraph) []chart.Value {
	y := d.getYValues()
	labels := d.labels()
	bars := make([]chart.Value, 0, len(y))
	for i := range y {
		bars = append(bars, chart.Value{
			Value: y[i],
			Label: labels[i],
			Style: chart.Style{FillColor: drawing.ColorBlue.WithAlpha(100)},
		})
	}
	return bars
}

func generateGrid(max float64) []chart.Tick {
	step := calculateGridStep(max)
	if step <= 0 {
		return []chart.Tick{{Value: 0, Label: "0"}, {Value: 1, Label: "1"}}
	}
	var ticks []chart.Tick
	for i := 0; ; i++ {
		v := float64(i) * step
		ticks = append(ticks, chart.Tick{Value: v, Label: formatBound(v)})
		if v >= max {
			break
		}
	}
	return ticks
}
