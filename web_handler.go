package main

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	uuid "github.com/satori/go.uuid"

	"github.com/pivolan/stats_dashboard/ingest"
	"github.com/pivolan/stats_dashboard/report"
	"github.com/pivolan/stats_dashboard/summary"
)

// Problem is an RFC 7807 error body.
type Problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (p Problem) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

type columnInfo struct {
	Name string             `json:"name"`
	Kind summary.ColumnKind `json:"kind"`
}

type datasetResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Rows      int          `json:"rows"`
	Columns   []columnInfo `json:"columns"`
	Queryable bool         `json:"queryable"`
}

func newDatasetResponse(s *session) datasetResponse {
	resp := datasetResponse{
		ID:        s.ID,
		Name:      s.Name,
		Rows:      s.Report.Dataset.Rows(),
		Columns:   []columnInfo{},
		Queryable: s.Table != "",
	}
	for _, name := range s.Report.Dataset.Names() {
		resp.Columns = append(resp.Columns, columnInfo{Name: name, Kind: s.Report.Kinds[name]})
	}
	return resp
}

var uploadPage = template.Must(template.New("upload").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Statistics dashboard</title></head>
<body>
<h1>Statistics dashboard</h1>
<form action="/datasets" method="post" enctype="multipart/form-data">
  <input type="hidden" name="uuid" value="{{.UploadID}}">
  <input type="file" name="file" accept=".csv,.tsv,.txt,.xlsx,.zip,.gz,.lz4">
  <button type="submit">Upload</button>
</form>
<p>Samples:{{range .Samples}} <code>POST /datasets/samples/{{.}}</code>{{end}}</p>
<p>Charts: {{range .Charts}}<code>{{.}}</code> {{end}}</p>
</body>
</html>
`))

func newRouter(d *dashboard) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.logger))
	r.Use(middleware.Recoverer)

	h := &webHandler{dash: d}
	r.Get("/", h.index)
	r.Get("/healthz", h.health)
	r.Route("/datasets", func(r chi.Router) {
		r.Post("/", h.upload)
		r.Post("/manual", h.manual)
		r.Post("/numbers", h.numbers)
		r.Post("/samples/{name}", h.sample)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.loadSession)
			r.Get("/", h.dataset)
			r.Get("/summary", h.summary)
			r.Get("/advanced", h.advanced)
			r.Get("/correlation", h.correlation)
			r.Get("/report.txt", h.reportText)
			r.Get("/export.csv", h.exportCSV)
			r.Get("/export.xlsx", h.exportXLSX)
			r.Get("/charts/{kind}", h.chart)
			r.Post("/query", h.query)
		})
	})
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type webHandler struct {
	dash *dashboard
}

type sessionKey struct{}

func contextWithSession(r *http.Request, s *session) context.Context {
	return context.WithValue(r.Context(), sessionKey{}, s)
}

func sessionFrom(r *http.Request) *session {
	return r.Context().Value(sessionKey{}).(*session)
}

func (h *webHandler) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.dash.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	render.Render(w, r, Problem{Title: http.StatusText(status), Status: status, Detail: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errUnknownColumn), errors.Is(err, errUnknownChart):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	}
	// Everything else stems from bad input.
	return http.StatusBadRequest
}

func (h *webHandler) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := uploadPage.Execute(w, map[string]interface{}{
		"UploadID": r.URL.Query().Get("id"),
		"Samples":  ingest.SampleNames(),
		"Charts":   chartKinds,
	})
	if err != nil {
		h.dash.logger.Error("render upload page", "error", err)
	}
}

func (h *webHandler) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":   "ok",
		"sessions": h.dash.sessions.count(),
		"store":    h.dash.store != nil,
	})
}

func (h *webHandler) created(w http.ResponseWriter, r *http.Request, s *session) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newDatasetResponse(s))
}

func (h *webHandler) upload(w http.ResponseWriter, r *http.Request) {
	limit := h.dash.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	defer file.Close()

	uploadID := r.FormValue("uuid")
	dir := uploadID
	if _, err := uuid.FromString(dir); err != nil {
		dir = uuid.NewV4().String()
	}
	name := filepath.Base(header.Filename)
	// one directory per request, uploads through the same link may share a name
	filePath := filepath.Join(h.dash.cfg.UploadDir, dir, uuid.NewV4().String(), name)
	if err := saveUpload(filePath, file); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	ds, err := ingest.ReadFile(filePath, ingest.Options{}, limit)
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	s, err := h.dash.addDataset(r.Context(), name, ds)
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	h.dash.deliver(uploadID, s)
	h.created(w, r, s)
}

func saveUpload(filePath string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(filePath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (h *webHandler) readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.dash.cfg.MaxUploadBytes()))
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return "", false
	}
	return string(body), true
}

func (h *webHandler) manual(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readBody(w, r)
	if !ok {
		return
	}
	ds, err := ingest.ParseManual(text)
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	s, err := h.dash.addDataset(r.Context(), "manual entry", ds)
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	h.created(w, r, s)
}

func (h *webHandler) numbers(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readBody(w, r)
	if !ok {
		return
	}
	ds, err := ingest.NumbersDataset(text)
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	s, err := h.dash.addDataset(r.Context(), "numbers", ds)
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	h.created(w, r, s)
}

func (h *webHandler) sample(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ds, err := ingest.Sample(name)
	if err != nil {
		h.fail(w, r, http.StatusNotFound, err)
		return
	}
	s, err := h.dash.addDataset(r.Context(), name, ds)
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	h.created(w, r, s)
}

func (h *webHandler) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s, ok := h.dash.sessions.get(id)
		if !ok {
			h.fail(w, r, http.StatusNotFound, errors.New("unknown dataset "+id))
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithSession(r, s)))
	})
}

func (h *webHandler) dataset(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, newDatasetResponse(sessionFrom(r)))
}

func (h *webHandler) summary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, sessionFrom(r).Report.Descriptive)
}

func (h *webHandler) advanced(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, sessionFrom(r).Report.Advanced)
}

func (h *webHandler) correlation(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, sessionFrom(r).Report.Correlation)
}

func (h *webHandler) reportText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, sessionFrom(r).Report.Text())
}

func (h *webHandler) exportCSV(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	tbl := s.Report.Descriptive.Table()
	if r.URL.Query().Get("table") == "data" {
		tbl = summary.DatasetTable(s.Report.Dataset)
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, tbl, r.URL.Query().Get("bom") == "1"); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportName(s, "csv")+`"`)
	w.Write(buf.Bytes())
}

func (h *webHandler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, s.Report.Sheets()...); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportName(s, "xlsx")+`"`)
	w.Write(buf.Bytes())
}

func (h *webHandler) chart(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := renderChart(sessionFrom(r), chi.URLParam(r, "kind"), r.URL.Query().Get("column"), r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func (h *webHandler) query(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readBody(w, r)
	if !ok {
		return
	}
	s, err := h.dash.query(r.Context(), sessionFrom(r), strings.TrimSpace(text))
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	h.created(w, r, s)
}

func exportName(s *session, ext string) string {
	base := ingest.CleanName(strings.TrimSuffix(s.Name, filepath.Ext(s.Name)))
	if base == "" {
		base = "dataset"
	}
	return base + "_summary_" + time.Now().Format("20060102-150405") + "." + ext
}
