package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/pivolan/stats_dashboard/domain/models"
)

// ReadXLSX reads the first sheet of a workbook. Cells are taken as their
// formatted text and typed like CSV fields.
func ReadXLSX(r io.Reader, opts Options) (models.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.Dataset{}, ErrNoData
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return models.Dataset{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRecords(rows, opts)
}
