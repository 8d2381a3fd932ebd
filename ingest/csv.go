package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pivolan/stats_dashboard/domain/models"
)

var (
	ErrNoData            = errors.New("ingest: no data rows")
	ErrUnsupportedFormat = errors.New("ingest: unsupported file format")
)

type HeaderMode int

const (
	// HeaderAuto runs AnalyzeHeaders on the first row.
	HeaderAuto HeaderMode = iota
	HeaderPresent
	HeaderAbsent
)

type Options struct {
	// Delimiter overrides detection when non-zero.
	Delimiter rune
	Header    HeaderMode
	// KeepNames leaves header text as written instead of cleaning it.
	KeepNames bool
}

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// ReadCSV parses delimited text into a Dataset.
func ReadCSV(r io.Reader, opts Options) (models.Dataset, error) {
	br := bufio.NewReader(r)
	comma := opts.Delimiter
	if comma == 0 {
		sample, _ := br.Peek(64 * 1024)
		comma = DetectDelimiter(sample)
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return models.Dataset{}, fmt.Errorf("read csv: %w", err)
	}
	return fromRecords(records, opts)
}

func fromRecords(records [][]string, opts Options) (models.Dataset, error) {
	for len(records) > 0 && isBlankRecord(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return models.Dataset{}, ErrNoData
	}

	var analysis *HeaderAnalysis
	switch opts.Header {
	case HeaderPresent:
		analysis = namedHeaders(records[0], !opts.KeepNames)
	case HeaderAbsent:
		analysis = generatedHeaders(records[0])
	default:
		analysis = AnalyzeHeaders(records[0], !opts.KeepNames)
	}

	rows := records[1:]
	if analysis.FirstRowIsData {
		rows = records
	}
	if len(rows) == 0 {
		return models.Dataset{}, ErrNoData
	}
	return buildDataset(analysis.Headers, rows)
}

// DetectDelimiter picks the candidate that splits the first lines into the
// most consistent, widest rows. Comma wins ties.
func DetectDelimiter(sample []byte) rune {
	lines := strings.Split(string(bytes.TrimLeft(sample, "\uFEFF")), "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	// The last line of a peeked sample may be cut short.
	if len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}

	best, bestScore := ',', 0
	for _, d := range candidateDelimiters {
		counts := make(map[int]int)
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			counts[strings.Count(line, string(d))]++
		}
		for fields, lineCount := range counts {
			if fields == 0 {
				continue
			}
			if score := lineCount * (fields + 1); score > bestScore {
				best, bestScore = d, score
			}
		}
	}
	return best
}
