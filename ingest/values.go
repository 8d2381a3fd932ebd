package ingest

import (
	"strconv"
	"strings"

	"github.com/pivolan/go_utils"

	"github.com/pivolan/stats_dashboard/domain/models"
)

// missingMarkers are spellings treated as an absent value, compared
// case-insensitively after trimming.
var missingMarkers = []string{"", "na", "n/a", "nan", "null", "none", "-"}

// ParseCell types a raw field: missing markers become missing, finite
// numbers become numeric and everything else is kept as text.
func ParseCell(raw string) models.Value {
	s := strings.TrimSpace(raw)
	if go_utils.InArray(strings.ToLower(s), missingMarkers) {
		return models.MissingValue()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		v := models.NumberValue(f)
		if v.IsMissing() {
			return models.TextValue(s)
		}
		return v
	}
	return models.TextValue(s)
}

// buildDataset turns header names and raw records into a Dataset. Short
// records are padded with missing values and long ones truncated.
func buildDataset(headers []string, records [][]string) (models.Dataset, error) {
	columns := make([]models.Column, len(headers))
	for i, name := range headers {
		columns[i] = models.Column{Name: name, Values: make([]models.Value, 0, len(records))}
	}
	for _, record := range records {
		if isBlankRecord(record) {
			continue
		}
		for i := range columns {
			v := models.MissingValue()
			if i < len(record) {
				v = ParseCell(record[i])
			}
			columns[i].Values = append(columns[i].Values, v)
		}
	}
	return models.NewDataset(columns...)
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
