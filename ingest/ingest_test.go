package ingest

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pierrec/lz4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pivolan/stats_dashboard/domain/models"
)

const salesCSV = "Category;Value\nA;10\nB;N/A\n\nA;x\n"

func TestParseCell(t *testing.T) {
	tests := []struct {
		raw  string
		want models.Value
	}{
		{"", models.MissingValue()},
		{"  ", models.MissingValue()},
		{"NA", models.MissingValue()},
		{"n/a", models.MissingValue()},
		{"NaN", models.MissingValue()},
		{"null", models.MissingValue()},
		{"-", models.MissingValue()},
		{"42", models.NumberValue(42)},
		{" -1.5e3 ", models.NumberValue(-1500)},
		{"Inf", models.TextValue("Inf")},
		{"abc", models.TextValue("abc")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCell(tt.raw))
		})
	}
}

func TestReadCSV(t *testing.T) {
	d, err := ReadCSV(strings.NewReader(salesCSV), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"category", "value"}, d.Names())
	require.Equal(t, 3, d.Rows())
	value, ok := d.Column("value")
	require.True(t, ok)
	assert.Equal(t, []models.Value{models.NumberValue(10), models.MissingValue(), models.TextValue("x")}, value.Values)
}

func TestReadCSVRaggedRows(t *testing.T) {
	d, err := ReadCSV(strings.NewReader("a,b,c\n1,2\n3,4,5,6\n"), Options{})
	require.NoError(t, err)

	require.Equal(t, 2, d.Rows())
	c, _ := d.Column("c")
	assert.Equal(t, []models.Value{models.MissingValue(), models.NumberValue(5)}, c.Values)
}

func TestReadCSVHeaderModes(t *testing.T) {
	d, err := ReadCSV(strings.NewReader("1,2\n3,4\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"column_1", "column_2"}, d.Names())
	assert.Equal(t, 2, d.Rows())

	d, err = ReadCSV(strings.NewReader("1,2\n3,4\n"), Options{Header: HeaderPresent})
	require.NoError(t, err)
	assert.Equal(t, []string{"column_1", "column_2"}, d.Names())
	assert.Equal(t, 1, d.Rows())

	d, err = ReadCSV(strings.NewReader("Name,Age\nAnn,30\n"), Options{Header: HeaderAbsent})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Rows())

	d, err = ReadCSV(strings.NewReader("Unit Price|Qty\n1.5|2\n"), Options{KeepNames: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Unit Price", "Qty"}, d.Names())
}

func TestReadCSVNoData(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), Options{})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = ReadCSV(strings.NewReader("Name,Age\n"), Options{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon", "a;b\n1,5;2,5\n3,1;4\n", ';'},
		{"tab", "a\tb\tc\n1\t2\t3\n", '\t'},
		{"pipe", "a|b\n1|2\n", '|'},
		{"single column", "value\n1\n2\n", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter([]byte(tt.sample)))
		})
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Name", "Score"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Ann", 10}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Bob", 12.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	d, err := ReadXLSX(buf, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "score"}, d.Names())
	score, _ := d.Column("score")
	assert.Equal(t, []models.Value{models.NumberValue(10), models.NumberValue(12.5)}, score.Values)
}

func TestReadUploadArchives(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(salesCSV))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var lz bytes.Buffer
	lw := lz4.NewWriter(&lz)
	_, err = lw.Write([]byte(salesCSV))
	require.NoError(t, err)
	require.NoError(t, lw.Close())

	var zipped bytes.Buffer
	zw := zip.NewWriter(&zipped)
	readme, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, err = readme.Write([]byte("x"))
	require.NoError(t, err)
	data, err := zw.Create("export/sales.csv")
	require.NoError(t, err)
	_, err = data.Write([]byte(salesCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	tests := []struct {
		name string
		data []byte
	}{
		{"sales.csv", []byte(salesCSV)},
		{"sales.csv.gz", gz.Bytes()},
		{"sales.csv.lz4", lz.Bytes()},
		{"sales.zip", zipped.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ReadUpload(tt.name, bytes.NewReader(tt.data), Options{}, 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"category", "value"}, d.Names())
			assert.Equal(t, 3, d.Rows())
		})
	}
}

func TestReadUploadLimits(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(strings.Repeat("1,2\n", 100)))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	_, err = ReadUpload("big.csv.gz", bytes.NewReader(gz.Bytes()), Options{}, 50)
	assert.Error(t, err)

	_, err = ReadUpload("data.json", strings.NewReader("{}"), Options{}, 0)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.tsv")
	require.NoError(t, os.WriteFile(path, []byte("x\ty\n1\t2\n3\t4\n"), 0o644))

	d, err := ReadFile(path, Options{}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, d.Names())
	assert.Equal(t, 2, d.Rows())
}

func TestParseManual(t *testing.T) {
	d, err := ParseManual("Fruit, Price\r\napple, 1.2\r\npear, 0.8\r\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fruit", "Price"}, d.Names())
	price, _ := d.Column("Price")
	assert.Equal(t, []models.Value{models.NumberValue(1.2), models.NumberValue(0.8)}, price.Values)

	_, err = ParseManual("  \n")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestExtractNumbers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []float64
	}{
		{"mixed text", "Prices: 10, 20.5 and -3\n.75", []float64{10, 20.5, -3, 0.75}},
		{"comma separated", "1,5", []float64{1, 5}},
		{"none", "no numbers here", []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractNumbers(tt.text))
		})
	}
}

func TestNumbersDataset(t *testing.T) {
	d, err := NumbersDataset("3 1 2")
	require.NoError(t, err)
	assert.Equal(t, []string{NumbersColumn}, d.Names())
	assert.Equal(t, 3, d.Rows())

	_, err = NumbersDataset("nothing")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSamples(t *testing.T) {
	assert.Equal(t, []string{"sales", "students", "weather"}, SampleNames())

	sales, err := Sample("sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"Product", "Category", "Region", "Sales", "Units"}, sales.Names())
	assert.Equal(t, 6, sales.Rows())

	students, err := Sample("students")
	require.NoError(t, err)
	physics, _ := students.Column("Physics")
	assert.True(t, physics.Values[7].IsMissing())

	assert.Len(t, Samples(), 3)

	_, err = Sample("unknown")
	assert.Error(t, err)
}
