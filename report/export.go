package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pivolan/stats_dashboard/summary"
)

const maxSheetName = 31

type Sheet struct {
	Name  string
	Table summary.Table
}

// WriteCSV writes tbl with its header. A UTF-8 byte order mark is prepended
// when bom is set so spreadsheet programs detect the encoding.
func WriteCSV(w io.Writer, tbl summary.Table, bom bool) error {
	if bom {
		if _, err := io.WriteString(w, "\uFEFF"); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(tbl.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(tbl.Rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes one worksheet per sheet. Cells that parse as numbers are
// stored as numbers.
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("write xlsx: no sheets")
	}
	f := excelize.NewFile()
	defer f.Close()

	used := map[string]bool{}
	for i, sheet := range sheets {
		name := sheetName(sheet.Name, i, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeSheet(f, name, sheet.Table); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, name string, tbl summary.Table) error {
	rows := append([][]string{tbl.Header}, tbl.Rows...)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(r))
		for j, v := range r {
			values[j] = v
			if i > 0 {
				if num, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(num, 0) && !math.IsNaN(num) {
					values[j] = num
				}
			}
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func sheetName(name string, index int, used map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = fmt.Sprintf("Sheet%d", index+1)
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	base := name
	for n := 1; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		runes := []rune(base)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		name = string(runes) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

// Sheets lays the report out as spreadsheet tabs: the data itself, then
// every computed table that has content.
func (r *Report) Sheets() []Sheet {
	sheets := []Sheet{{Name: "data", Table: summary.DatasetTable(r.Dataset)}}
	if len(r.Descriptive.Numeric) > 0 {
		sheets = append(sheets, Sheet{Name: "summary", Table: r.Descriptive.Table()})
	}
	if len(r.Descriptive.Categorical) > 0 {
		sheets = append(sheets, Sheet{Name: "value counts", Table: r.Descriptive.FrequencyTable()})
	}
	if len(r.Advanced.Columns) > 0 {
		sheets = append(sheets, Sheet{Name: "advanced", Table: r.Advanced.Table()})
	}
	if r.Correlation.Applicable {
		sheets = append(sheets, Sheet{Name: "correlation", Table: r.Correlation.Table()})
	}
	return sheets
}
