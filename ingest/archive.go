package ingest

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/pierrec/lz4"
)

// DefaultMaxUnpacked caps the size of a decompressed upload.
const DefaultMaxUnpacked = 256 << 20

// unpack decompresses archived uploads in memory. It returns the inner file
// name and contents; other names pass through untouched.
func unpack(name string, data []byte, limit int64) (string, []byte, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".zip":
		return unpackZip(data, limit)
	case ".gz":
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", nil, fmt.Errorf("open gzip: %w", err)
		}
		defer gr.Close()
		out, err := readLimited(gr, limit)
		return strings.TrimSuffix(name, path.Ext(name)), out, err
	case ".lz4":
		out, err := readLimited(lz4.NewReader(bytes.NewReader(data)), limit)
		return strings.TrimSuffix(name, path.Ext(name)), out, err
	}
	return name, data, nil
}

// unpackZip extracts the largest regular file of the archive.
func unpackZip(data []byte, limit int64) (string, []byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("open zip: %w", err)
	}

	var largestFile *zip.File
	var largestSize uint64
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if largestFile == nil || f.UncompressedSize64 > largestSize {
			largestFile = f
			largestSize = f.UncompressedSize64
		}
	}
	if largestFile == nil {
		return "", nil, ErrNoData
	}

	rc, err := largestFile.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", largestFile.Name, err)
	}
	defer rc.Close()
	out, err := readLimited(rc, limit)
	return path.Base(largestFile.Name), out, err
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxUnpacked
	}
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("decompressed data exceeds %d bytes", limit)
	}
	return out, nil
}
