package ingest

import (
	"strings"

	"github.com/pivolan/stats_dashboard/domain/models"
)

// ParseManual reads hand-entered rows. The first non-blank line is always
// the header; fields are split on the detected delimiter.
func ParseManual(text string) (models.Dataset, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return models.Dataset{}, ErrNoData
	}
	return ReadCSV(strings.NewReader(text), Options{Header: HeaderPresent, KeepNames: true})
}
