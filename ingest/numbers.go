package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pivolan/stats_dashboard/domain/models"
)

var numberPattern = regexp.MustCompile(`-?\d*\.?\d+`)

// ExtractNumbers pulls every number out of free text. Commas and line
// breaks separate values, so "1,5" yields 1 and 5.
func ExtractNumbers(text string) []float64 {
	text = strings.ReplaceAll(text, ",", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	matches := numberPattern.FindAllString(text, -1)
	numbers := make([]float64, 0, len(matches))
	for _, match := range matches {
		if num, err := strconv.ParseFloat(match, 64); err == nil {
			numbers = append(numbers, num)
		}
	}
	return numbers
}

// NumbersColumn is the column name of datasets built by NumbersDataset.
const NumbersColumn = "value"

// NumbersDataset wraps the numbers found in text as a one-column dataset.
func NumbersDataset(text string) (models.Dataset, error) {
	numbers := ExtractNumbers(text)
	if len(numbers) == 0 {
		return models.Dataset{}, ErrNoData
	}
	values := make([]models.Value, len(numbers))
	for i, n := range numbers {
		values[i] = models.NumberValue(n)
	}
	return models.NewDataset(models.Column{Name: NumbersColumn, Values: values})
}
