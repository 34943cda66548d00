package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
)

const uploadCSV = `Report_id,Time_days,Species,Sex,Dose_mg_kg,Mean_Cmax_ng_ml
R1,7,Rat,M,0,1
R2,7,Rat,F,1,2
R3,7,Rat,M,2,5
M1,7,Mouse,F,1,3
R4,14,Rat,M,1,1
`

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	s := New(Options{
		Ingest: dataset.DefaultOptions(),
		Chart:  chart.Settings{Percentage: dataset.DefaultPercentageColumns()},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return s, s.Routes()
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var e APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func upload(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodPost, "/api/dataset?name=study.csv", strings.NewReader(uploadCSV), "text/csv")
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChartBeforeUpload(t *testing.T) {
	_, h := newTestServer(t)
	for _, path := range []string{"/api/chart", "/api/dataset", "/api/dataset/rows"} {
		rec := do(t, h, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, CodeNoDataset, decodeAPIError(t, rec).ErrorCode, path)
	}
}

func TestUploadRawCSV(t *testing.T) {
	s, h := newTestServer(t)
	rec := upload(t, h)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary struct {
		ID     string `json:"id"`
		Source string `json:"source"`
		Rows   int    `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, "study.csv", summary.Source)
	assert.Equal(t, 5, summary.Rows)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.uploads.WithLabelValues("ok")))
	assert.Equal(t, 5.0, testutil.ToFloat64(s.metrics.rows))

	rec = do(t, h, http.MethodGet, "/api/chart", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap chart.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, summary.ID, snap.DatasetID)
	assert.Equal(t, dataset.FieldDose, snap.View.X)
	assert.Equal(t, []float64{7, 14}, snap.Times)
}

func TestUploadMultipart(t *testing.T) {
	_, h := newTestServer(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "study.tsv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, strings.ReplaceAll(uploadCSV, ",", "\t"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/api/dataset", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"source":"study.tsv"`)
}

func TestUploadParseError(t *testing.T) {
	s, h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/dataset", strings.NewReader(""), "text/csv")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeAPIError(t, rec)
	assert.Equal(t, CodeParse, e.ErrorCode)
	assert.Contains(t, e.Message, "could not detect headers")
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.uploads.WithLabelValues("parse_error")))

	rec = do(t, h, http.MethodGet, "/api/chart", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeAPIError(t, rec).Message, "last upload failed")
}

func TestUploadTooLarge(t *testing.T) {
	s := New(Options{Ingest: dataset.DefaultOptions(), MaxUploadMB: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := s.Routes()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "big.csv")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("a,b\n"), 1<<19))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/api/dataset", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, CodeTooLarge, decodeAPIError(t, rec).ErrorCode)
}

func TestUploadTooLargeRawBody(t *testing.T) {
	s := New(Options{Ingest: dataset.DefaultOptions(), MaxUploadMB: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := s.Routes()
	require.Equal(t, http.StatusCreated, upload(t, h).Code)

	big := "Report_id,Time_days\n" + strings.Repeat("R1,7\n", 1<<19)
	rec := do(t, h, http.MethodPost, "/api/dataset?name=big.csv", strings.NewReader(big), "text/csv")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, CodeTooLarge, decodeAPIError(t, rec).ErrorCode)

	rec = do(t, h, http.MethodGet, "/api/chart", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, "a rejected upload leaves the loaded dataset alone")
	assert.NoError(t, s.session.Err())
}

func TestUploadNonFiniteValues(t *testing.T) {
	_, h := newTestServer(t)
	csv := "Report_id,Time_days,Species,Dose_mg_kg,Mean_Cmax_ng_ml\n" +
		"R1,7,Rat,1e90,1\n" +
		"R2,7,Rat,2e90,2\n" +
		"R3,7,Rat,3e90,3\n" +
		"R4,Infinity,Rat,1,2\n" +
		"R5,1e400,Rat,1,2\n"
	rec := do(t, h, http.MethodPost, "/api/dataset?name=odd.csv", strings.NewReader(csv), "text/csv")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"dropped":2`)

	rec = do(t, h, http.MethodGet, "/api/chart", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := `{"x":"Dose_mg_kg","y":"Mean_Cmax_ng_ml","mode":"curve"}`
	rec = do(t, h, http.MethodPut, "/api/view", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"curves":{"facets":[]}`, "the overflowing Rat group is not fitted")
}

func TestRespondUnencodable(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.respond(rec, httptest.NewRequest(http.MethodGet, "/api/chart", nil), http.StatusOK, math.Inf(1))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeInternal, decodeAPIError(t, rec).ErrorCode)
}

func TestLoadNil(t *testing.T) {
	s, h := newTestServer(t)
	s.Load(nil)
	rec := do(t, h, http.MethodGet, "/api/chart", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutView(t *testing.T) {
	_, h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h).Code)

	body := `{"x":"Dose_mg_kg","y":"Mean_Cmax_ng_ml","mode":"curve","filters":{"Species":["Rat"]}}`
	rec := do(t, h, http.MethodPut, "/api/view", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap chart.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, chart.ModeCurve, snap.View.Mode)
	assert.Equal(t, 4, snap.FilteredN)
	require.Len(t, snap.Curves.Facets, 1)
	assert.Equal(t, "Rat", snap.Curves.Facets[0].Curves[0].Name)

	rec = do(t, h, http.MethodGet, "/api/dataset/rows?filtered=true", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 4)

	rec = do(t, h, http.MethodGet, "/api/dataset/rows", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 5)
}

func TestPutView_InvalidMode(t *testing.T) {
	_, h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h).Code)

	rec := do(t, h, http.MethodPut, "/api/view", strings.NewReader(`{"x":"Dose_mg_kg","y":"Mean_Cmax_ng_ml","mode":"bar"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeAPIError(t, rec)
	assert.Equal(t, CodeValidation, e.ErrorCode)
	assert.Contains(t, rec.Body.String(), "Mode must be one of: scatter, curve, line")
}

func TestPutView_BadFilterColumn(t *testing.T) {
	_, h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h).Code)

	rec := do(t, h, http.MethodPut, "/api/view", strings.NewReader(`{"x":"Dose_mg_kg","y":"Mean_Cmax_ng_ml","filters":{"Dose_mg_kg":["1"]}}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, CodeValidation, decodeAPIError(t, rec).ErrorCode)
}

func TestPutView_MalformedJSON(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodPut, "/api/view", strings.NewReader(`{`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeBadRequest, decodeAPIError(t, rec).ErrorCode)
}

func TestPutView_NoDataset(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodPut, "/api/view", strings.NewReader(`{"mode":"curve"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSupersededUpload(t *testing.T) {
	s, h := newTestServer(t)
	// an upload that began before this one finishes after it
	s.mu.Lock()
	stale := s.session.BeginUpload()
	s.mu.Unlock()

	require.Equal(t, http.StatusCreated, upload(t, h).Code)

	s.mu.Lock()
	applied := s.session.CompleteUpload(stale, &dataset.Dataset{}, nil)
	s.mu.Unlock()
	assert.False(t, applied)
	assert.Equal(t, 5, len(s.session.Dataset().Rows))
}

func TestLoadAndMetricsEndpoint(t *testing.T) {
	s, h := newTestServer(t)
	tbl, err := dataset.ReadCSV(strings.NewReader(uploadCSV), "study.csv", dataset.ReadOptions{})
	require.NoError(t, err)
	s.Load(dataset.Ingest(tbl, dataset.DefaultOptions()))

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/chart", nil, "").Code)

	rec := do(t, h, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, "pkplot_dataset_rows 5")
	assert.Contains(t, out, `pkplot_http_requests_total{method="GET",route="/api/chart",status="200"} 1`)
}
