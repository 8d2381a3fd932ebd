package plot

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pivolan/stats_dashboard/summary"
)

func pageTitle(title string) charts.GlobalOpts {
	return charts.WithTitleOpts(opts.Title{Title: title})
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1000px", Height: "600px"})
}

func PieHTML(title string, labels []string, counts []float64) ([]byte, error) {
	if len(labels) == 0 || len(labels) != len(counts) {
		return nil, ErrNoValues
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(initOpts(title), pageTitle(title))
	items := make([]opts.PieData, len(labels))
	for i := range labels {
		items[i] = opts.PieData{Name: labels[i], Value: counts[i]}
	}
	pie.AddSeries("count", items).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Formatter: "{b}: {d}%"}),
	)
	return render(pie.Render)
}

func BarHTML(title string, labels []string, counts []float64) ([]byte, error) {
	if len(labels) == 0 || len(labels) != len(counts) {
		return nil, ErrNoValues
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(initOpts(title), pageTitle(title))
	items := make([]opts.BarData, len(counts))
	for i, c := range counts {
		items[i] = opts.BarData{Value: c}
	}
	bar.SetXAxis(labels).AddSeries("count", items)
	return render(bar.Render)
}

func HistogramHTML(title string, bins []Bin) ([]byte, error) {
	if len(bins) == 0 {
		return nil, ErrNoValues
	}
	labels := make([]string, len(bins))
	counts := make([]float64, len(bins))
	for i, b := range bins {
		labels[i] = b.Label()
		counts[i] = float64(b.Count)
	}
	return BarHTML(title, labels, counts)
}

// BoxPlotHTML draws one box per numeric summary from its five-number
// summary. Columns without values are skipped.
func BoxPlotHTML(title string, columns []summary.NumericSummary) ([]byte, error) {
	var names []string
	var items []opts.BoxPlotData
	for _, c := range columns {
		if c.Count == 0 {
			continue
		}
		names = append(names, c.Column)
		items = append(items, opts.BoxPlotData{
			Name:  c.Column,
			Value: []float64{c.Min.Float(), c.Q25.Float(), c.Median.Float(), c.Q75.Float(), c.Max.Float()},
		})
	}
	if len(items) == 0 {
		return nil, ErrNoValues
	}
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(initOpts(title), pageTitle(title))
	box.SetXAxis(names).AddSeries("distribution", items)
	return render(box.Render)
}

// HeatmapHTML draws a labelled square matrix. Undefined cells are left
// blank.
func HeatmapHTML(title string, grid summary.LabeledArray) ([]byte, error) {
	if len(grid.Labels) == 0 {
		return nil, ErrNoValues
	}
	var items []opts.HeatMapData
	for i := range grid.Values {
		for j, v := range grid.Values[i] {
			var value interface{} = "-"
			if v.Defined() {
				value = v.Format(3)
			}
			items = append(items, opts.HeatMapData{Value: [3]interface{}{j, i, value}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		initOpts(title),
		pageTitle(title),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: grid.Labels}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: grid.Labels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Min: -1,
			Max: 1,
			InRange: &opts.VisualMapInRange{
				Color: []string{"#313695", "#f7f7f7", "#a50026"},
			},
		}),
	)
	hm.AddSeries("correlation", items)
	return render(hm.Render)
}

func render(fn func(w io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return nil, fmt.Errorf("render html chart: %w", err)
	}
	return buf.Bytes(), nil
}
