package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pivolan/stats_dashboard/domain/models"
)

// ReadUpload parses an uploaded file, dispatching on its name. Archives
// (.zip, .gz, .lz4) are unpacked first; the inner file must be .csv, .tsv,
// .txt or .xlsx.
func ReadUpload(name string, r io.Reader, opts Options, maxUnpacked int64) (models.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("read upload: %w", err)
	}
	inner, data, err := unpack(name, data, maxUnpacked)
	if err != nil {
		return models.Dataset{}, err
	}

	switch strings.ToLower(path.Ext(inner)) {
	case ".csv", ".txt":
		return ReadCSV(bytes.NewReader(data), opts)
	case ".tsv":
		if opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		return ReadCSV(bytes.NewReader(data), opts)
	case ".xlsx":
		return ReadXLSX(bytes.NewReader(data), opts)
	}
	return models.Dataset{}, fmt.Errorf("%s: %w", inner, ErrUnsupportedFormat)
}

// ReadFile is ReadUpload for a file on disk.
func ReadFile(filePath string, opts Options, maxUnpacked int64) (models.Dataset, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return models.Dataset{}, err
	}
	defer f.Close()
	return ReadUpload(filepath.Base(filePath), f, opts, maxUnpacked)
}
