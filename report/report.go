// Package report renders engine results as text tables and spreadsheet files.
package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pivolan/stats_dashboard/domain/models"
	"github.com/pivolan/stats_dashboard/summary"
)

// Precision is the number of decimals shown in text reports.
const Precision = 3

type Report struct {
	Name        string
	Dataset     models.Dataset
	Kinds       summary.Kinds
	Descriptive *summary.Descriptive
	Advanced    *summary.Advanced
	Correlation *summary.Correlation
}

// Analyze runs every engine operation over d.
func Analyze(name string, d models.Dataset) (*Report, error) {
	desc, err := summary.DescriptiveSummary(d)
	if err != nil {
		return nil, fmt.Errorf("descriptive summary: %w", err)
	}
	adv, err := summary.AdvancedStats(d)
	if err != nil {
		return nil, fmt.Errorf("advanced stats: %w", err)
	}
	return &Report{
		Name:        name,
		Dataset:     d,
		Kinds:       summary.ClassifyColumns(d),
		Descriptive: desc,
		Advanced:    adv,
		Correlation: summary.CorrelationMatrix(d),
	}, nil
}

func formatStat(s summary.Stat) string {
	return s.Format(Precision)
}

// Text renders the whole report as plain-text tables.
func (r *Report) Text() string {
	var b strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&b, "Dataset: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Rows: %d, columns: %d\n\n", r.Dataset.Rows(), len(r.Dataset.Columns))

	b.WriteString(r.ColumnsText())
	if len(r.Descriptive.Numeric) > 0 {
		b.WriteString("\n\nDescriptive statistics\n")
		b.WriteString(RenderTable(r.Descriptive.TableFormat(formatStat)))
	}
	if len(r.Descriptive.Categorical) > 0 {
		b.WriteString("\n\nValue counts\n")
		b.WriteString(RenderTable(r.Descriptive.FrequencyTable()))
	}
	if len(r.Advanced.Columns) > 0 {
		b.WriteString("\n\nAdvanced statistics\n")
		b.WriteString(RenderTable(r.Advanced.TableFormat(formatStat)))
	}
	b.WriteString("\n\nCorrelation\n")
	if r.Correlation.Applicable {
		b.WriteString(RenderTable(r.Correlation.TableFormat(formatStat)))
	} else {
		b.WriteString("Not applicable: fewer than two numeric columns.")
	}
	b.WriteString("\n")
	return b.String()
}

// ColumnsText lists every column with its detected kind.
func (r *Report) ColumnsText() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Column", "Kind"})
	for _, name := range r.Dataset.Names() {
		t.AppendRow(table.Row{name, r.Kinds[name].String()})
	}
	t.SetStyle(table.StyleDefault)
	return t.Render()
}

// ColumnText renders the statistics of one column vertically, which fits
// narrow chat windows.
func (r *Report) ColumnText(name string) (string, bool) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	if s, ok := r.Advanced.Column(name); ok {
		t.SetTitle(name)
		single := &summary.Advanced{Columns: []summary.ColumnStats{s}}
		for _, row := range single.TableFormat(formatStat).Rows {
			t.AppendRow(table.Row{row[0], row[1]})
		}
		if d, ok := r.Descriptive.NumericColumn(name); ok {
			t.AppendSeparator()
			t.AppendRow(table.Row{"min", formatStat(d.Min)})
			t.AppendRow(table.Row{"25%", formatStat(d.Q25)})
			t.AppendRow(table.Row{"75%", formatStat(d.Q75)})
			t.AppendRow(table.Row{"max", formatStat(d.Max)})
		}
		return t.Render(), true
	}
	if c, ok := r.Descriptive.CategoricalColumn(name); ok {
		t.SetTitle(fmt.Sprintf("%s (%d distinct)", name, c.Distinct))
		for _, f := range c.Frequencies {
			t.AppendRow(table.Row{f.Value, f.Count})
		}
		return t.Render(), true
	}
	return "", false
}

// RenderTable draws tbl with the default box style.
func RenderTable(tbl summary.Table) string {
	t := table.NewWriter()
	header := make(table.Row, len(tbl.Header))
	for i, h := range tbl.Header {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, r := range tbl.Rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		t.AppendRow(row)
	}
	t.SetStyle(table.StyleDefault)
	return t.Render()
}
