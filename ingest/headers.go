package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

type HeaderAnalysis struct {
	Headers        []string // final column names
	FirstRowIsData bool     // first row holds values, names were generated
	FirstDataRow   []string
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\s\d{2}:\d{2}:\d{2}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\s\d{2}:\d{2}:\d{2}\.\d+$`),
}

var specialSymbols = regexp.MustCompile("[^a-zA-Z0-9]+")

// AnalyzeHeaders decides whether firstRow is a header. When at least half of
// the fields look like names it is; otherwise names column_1..column_N are
// generated and the row is kept as data. With normalize set, names are
// transliterated and reduced to [a-z0-9_].
func AnalyzeHeaders(firstRow []string, normalize bool) *HeaderAnalysis {
	if len(firstRow) == 0 {
		return nil
	}

	result := &HeaderAnalysis{
		Headers:      make([]string, len(firstRow)),
		FirstDataRow: firstRow,
	}

	headerLikeCount := 0
	for _, field := range firstRow {
		if isLikelyHeader(field) {
			headerLikeCount++
		}
	}

	if float64(headerLikeCount)/float64(len(firstRow)) >= 0.5 {
		for i, header := range firstRow {
			if normalize {
				result.Headers[i] = cleanHeaderName(header, i)
			} else {
				result.Headers[i] = displayHeaderName(header, i)
			}
		}
	} else {
		result.FirstRowIsData = true
		for i := range firstRow {
			result.Headers[i] = generateColumnName(i)
		}
	}

	result.Headers = ValidateHeaders(result.Headers)
	return result
}

// namedHeaders treats firstRow as a header unconditionally.
func namedHeaders(firstRow []string, normalize bool) *HeaderAnalysis {
	result := &HeaderAnalysis{Headers: make([]string, len(firstRow)), FirstDataRow: firstRow}
	for i, header := range firstRow {
		if normalize {
			result.Headers[i] = cleanHeaderName(header, i)
		} else {
			result.Headers[i] = displayHeaderName(header, i)
		}
	}
	result.Headers = ValidateHeaders(result.Headers)
	return result
}

func generatedHeaders(firstRow []string) *HeaderAnalysis {
	result := &HeaderAnalysis{Headers: make([]string, len(firstRow)), FirstRowIsData: true, FirstDataRow: firstRow}
	for i := range firstRow {
		result.Headers[i] = generateColumnName(i)
	}
	return result
}

func isLikelyHeader(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return false
	}
	for _, pattern := range datePatterns {
		if pattern.MatchString(text) {
			return false
		}
	}

	letters, digits, specials := 0, 0, 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r):
		default:
			specials++
		}
	}

	totalChars := letters + digits + specials
	if totalChars == 0 {
		return false
	}
	return letters > 0 && float64(letters)/float64(totalChars) >= 0.3
}

func generateColumnName(index int) string {
	return fmt.Sprintf("column_%d", index+1)
}

// ValidateHeaders suffixes repeated names with _1, _2, ...
func ValidateHeaders(headers []string) []string {
	seen := make(map[string]int)
	result := make([]string, len(headers))

	for i, header := range headers {
		originalHeader := header
		counter := 1
		for {
			if count, exists := seen[header]; exists {
				header = fmt.Sprintf("%s_%d", originalHeader, counter)
				counter++
			} else {
				seen[header] = count + 1
				break
			}
		}
		result[i] = header
	}
	return result
}

func displayHeaderName(header string, index int) string {
	header = strings.TrimSpace(strings.TrimPrefix(header, "\uFEFF"))
	if header == "" {
		return generateColumnName(index)
	}
	return header
}

func cleanHeaderName(header string, index int) string {
	header = strings.TrimSpace(strings.TrimPrefix(header, "\uFEFF"))
	if header == "" || !isLikelyHeader(header) {
		return generateColumnName(index)
	}
	cleaned := CleanName(header)
	if cleaned == "" {
		return generateColumnName(index)
	}
	return cleaned
}

// CleanName turns an arbitrary label into a lowercase ASCII identifier made
// of letters, digits and single underscores. Non-Latin scripts are
// transliterated first, so "Выручка" becomes "vyruchka".
func CleanName(name string) string {
	ascii := unidecode.Unidecode(name)
	cleaned := specialSymbols.ReplaceAllString(ascii, "_")
	cleaned = strings.Trim(cleaned, "_")
	return strings.ToLower(cleaned)
}
