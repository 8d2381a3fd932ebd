package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pivolan/stats_dashboard/store"
	"github.com/pivolan/stats_dashboard/summary"
)

func doRequest(t *testing.T, h http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSample(t *testing.T, h http.Handler, name string) datasetResponse {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/datasets/samples/"+name, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp datasetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSampleEndpoints(t *testing.T) {
	h := newRouter(newTestDashboard(t))
	ds := createSample(t, h, "sales")
	assert.Equal(t, 6, ds.Rows)
	assert.False(t, ds.Queryable)
	require.Len(t, ds.Columns, 5)
	assert.Equal(t, columnInfo{Name: "Sales", Kind: summary.Numeric}, ds.Columns[3])

	rec := doRequest(t, h, http.MethodGet, "/datasets/"+ds.ID+"/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var desc struct {
		Numeric []struct {
			Column string  `json:"column"`
			Mean   float64 `json:"mean"`
		} `json:"numeric"`
		Categorical []struct {
			Column   string `json:"column"`
			Distinct int    `json:"distinct"`
		} `json:"categorical"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &desc))
	require.Len(t, desc.Numeric, 2)
	assert.Equal(t, "Sales", desc.Numeric[0].Column)
	assert.InDelta(t, 34166.666666666664, desc.Numeric[0].Mean, 1e-6)
	require.Len(t, desc.Categorical, 3)
	assert.Equal(t, 3, desc.Categorical[1].Distinct)

	rec = doRequest(t, h, http.MethodGet, "/datasets/"+ds.ID+"/advanced", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"t_statistic":0`)
	assert.Contains(t, rec.Body.String(), `"p_value":1`)

	rec = doRequest(t, h, http.MethodGet, "/datasets/"+ds.ID+"/correlation", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var corr struct {
		Applicable bool        `json:"applicable"`
		Columns    []string    `json:"columns"`
		Matrix     [][]float64 `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &corr))
	assert.True(t, corr.Applicable)
	assert.Equal(t, []string{"Sales", "Units"}, corr.Columns)
	assert.Equal(t, 1.0, corr.Matrix[0][0])
	assert.Equal(t, corr.Matrix[0][1], corr.Matrix[1][0])

	rec = doRequest(t, h, http.MethodGet, "/datasets/"+ds.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"categorical"`)
}

func TestReportAndExports(t *testing.T) {
	h := newRouter(newTestDashboard(t))
	ds := createSample(t, h, "students")

	rec := doRequest(t, h, http.MethodGet, "/datasets/"+ds.ID+"/report.txt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Descriptive statistics")
	assert.Contains(t, rec.Body.String(), "Correlation")

	rec = doRequest(t, h, http.MethodGet, "/datasets/"+ds.ID+"/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 9)
	assert.Equal(t, []string{"statistic", "Math", "Physics", "Hours"}, records[0])
	assert.Equal(t, []string{"count", "8", "7", "8"}, records[1])

	rec = doRequest(t, h, http.MethodGet, "/datasets/"+ds.ID+"/export.csv?table=data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	records, err = csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 9)

	rec = doRequest(t, h, http.MethodGet, "/datasets/"+ds.ID+"/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestChartEndpoint(t *testing.T) {
	h := newRouter(newTestDashboard(t))
	ds := createSample(t, h, "sales")
	base := "/datasets/" + ds.ID + "/charts/"

	tests := []struct {
		name        string
		path        string
		status      int
		contentType string
	}{
		{"pie png default column", base + "pie", http.StatusOK, "image/png"},
		{"bar html", base + "bar?column=Region&format=html", http.StatusOK, "text/html; charset=utf-8"},
		{"histogram png", base + "histogram?column=Sales", http.StatusOK, "image/png"},
		{"boxplot html", base + "boxplot?format=html", http.StatusOK, "text/html; charset=utf-8"},
		{"heatmap html", base + "heatmap?format=html", http.StatusOK, "text/html; charset=utf-8"},
		{"heatmap png", base + "heatmap", http.StatusBadRequest, ""},
		{"pie of numeric column", base + "pie?column=Sales", http.StatusBadRequest, ""},
		{"unknown column", base + "pie?column=Nope", http.StatusNotFound, ""},
		{"unknown kind", base + "radar", http.StatusNotFound, ""},
		{"bad format", base + "pie?format=svg", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, tt.path, "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestUploadEndpoint(t *testing.T) {
	dash := newTestDashboard(t)
	h := newRouter(dash)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "prices.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Category;Value\nA;10\nB;N/A\nA;30\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp datasetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "prices.csv", resp.Name)
	assert.Equal(t, 3, resp.Rows)
	assert.Equal(t, []columnInfo{{Name: "category", Kind: summary.Categorical}, {Name: "value", Kind: summary.Numeric}}, resp.Columns)
}

func TestUploadsThroughOneLinkKeepSeparateFiles(t *testing.T) {
	dash := newTestDashboard(t)
	h := newRouter(dash)
	link := uuid.NewV4().String()

	for _, body := range []string{"n\n1\n2\n", "n\n3\n4\n5\n"} {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("uuid", link))
		fw, err := mw.CreateFormFile("file", "same.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/datasets", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	var contents []string
	err := filepath.WalkDir(filepath.Join(dash.cfg.UploadDir, link), func(path string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return err
		}
		assert.Equal(t, "same.csv", e.Name())
		data, err := os.ReadFile(path)
		contents = append(contents, string(data))
		return err
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"n\n1\n2\n", "n\n3\n4\n5\n"}, contents)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	h := newRouter(newTestDashboard(t))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "empty.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Name,Age\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/datasets", "not multipart")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManualAndNumbers(t *testing.T) {
	h := newRouter(newTestDashboard(t))

	rec := doRequest(t, h, http.MethodPost, "/datasets/manual", "Fruit,Price\napple,1.2\npear,0.8\n")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"rows":2`)

	rec = doRequest(t, h, http.MethodPost, "/datasets/numbers", "1, 2, 3 and 10")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows":4`)

	rec = doRequest(t, h, http.MethodPost, "/datasets/numbers", "no numbers at all")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":400`)

	rec = doRequest(t, h, http.MethodPost, "/datasets/samples/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/datasets/does-not-exist/summary", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueryEndpoint(t *testing.T) {
	dash := newTestDashboard(t)
	h := newRouter(dash)

	ds := createSample(t, h, "sales")
	rec := doRequest(t, h, http.MethodPost, "/datasets/"+ds.ID+"/query", "SELECT * FROM dataset")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	fs := newFakeStore()
	fs.result = numbersDataset(t, "total", 10, 20)
	dash.store = fs
	ds = createSample(t, h, "sales")
	assert.True(t, ds.Queryable)

	rec = doRequest(t, h, http.MethodPost, "/datasets/"+ds.ID+"/query", "SELECT Sales AS total FROM dataset")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp datasetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sales (query)", resp.Name)
	assert.Equal(t, 2, resp.Rows)

	fs.err = &store.QueryError{Query: "DROP TABLE dataset", Reason: "DROP statements are not allowed, only SELECT", Err: store.ErrUnsupportedQuery}
	rec = doRequest(t, h, http.MethodPost, "/datasets/"+ds.ID+"/query", "DROP TABLE dataset")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not allowed")
}

func TestIndexAndHealth(t *testing.T) {
	h := newRouter(newTestDashboard(t))

	rec := doRequest(t, h, http.MethodGet, "/?id=abc-123", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="abc-123"`)
	assert.Contains(t, rec.Body.String(), "sales")

	rec = doRequest(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
