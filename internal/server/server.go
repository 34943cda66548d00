// Package server exposes a chart session over HTTP: upload a dataset,
// change the view, read back the chart bundle.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
	"github.com/KaramelBytes/pkplot-cli/internal/logging"
	"github.com/KaramelBytes/pkplot-cli/internal/report"
)

// Options configures a Server.
type Options struct {
	Ingest      dataset.Options
	Read        dataset.ReadOptions
	Chart       chart.Settings
	MaxUploadMB int
}

// Server owns one chart session. Handlers serialize access to it.
type Server struct {
	opt      Options
	log      *slog.Logger
	metrics  *Metrics
	validate *validator.Validate

	mu      sync.Mutex
	session *chart.Session
}

// New creates a server with an empty session.
func New(opt Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opt.MaxUploadMB <= 0 {
		opt.MaxUploadMB = 32
	}
	return &Server{
		opt:      opt,
		log:      logger.With("component", "server"),
		metrics:  NewMetrics(),
		validate: validator.New(),
		session:  chart.NewSession(opt.Chart),
	}
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Load installs a dataset directly, as if it had been uploaded.
func (s *Server) Load(ds *dataset.Dataset) {
	if ds == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observe(s.session.Load(ds))
	s.metrics.rows.Set(float64(len(ds.Rows)))
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Post("/dataset", s.handleUpload)
		r.Get("/dataset", s.handleDataset)
		r.Get("/dataset/rows", s.handleRows)
		r.Put("/view", s.handleView)
		r.Get("/chart", s.handleChart)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		r = r.WithContext(ctx)
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.DebugContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// handleUpload replaces the dataset. Parsing runs outside the lock; if a
// newer upload started meanwhile, this one's result is discarded.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.opt.MaxUploadMB)<<20)
	body, name, err := uploadBody(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, newAPIError(http.StatusRequestEntityTooLarge, CodeTooLarge, err.Error()))
			return
		}
		s.fail(w, r, newAPIError(http.StatusBadRequest, CodeBadRequest, err.Error()))
		return
	}
	defer body.Close()

	s.mu.Lock()
	token := s.session.BeginUpload()
	s.mu.Unlock()

	var ds *dataset.Dataset
	t, err := dataset.Read(body, name, s.opt.Read)
	if err == nil {
		ds = dataset.Ingest(t, s.opt.Ingest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.CompleteUpload(token, ds, err) {
		s.metrics.uploads.WithLabelValues("superseded").Inc()
		s.fail(w, r, newAPIError(http.StatusConflict, CodeSuperseded, "upload superseded by a newer one"))
		return
	}
	if err != nil {
		s.metrics.uploads.WithLabelValues("parse_error").Inc()
		s.log.WarnContext(r.Context(), "upload rejected", "file", name, "error", err)
		s.fail(w, r, newAPIError(http.StatusBadRequest, CodeParse, err.Error()))
		return
	}
	s.metrics.uploads.WithLabelValues("ok").Inc()
	s.metrics.rows.Set(float64(len(ds.Rows)))
	s.observe(s.session.Snapshot())
	s.log.InfoContext(r.Context(), "dataset loaded",
		"file", name, "dataset_id", ds.ID, "rows", len(ds.Rows), "dropped", ds.Dropped)

	s.respond(w, r, http.StatusCreated, report.NewDatasetSummary(ds))
}

// uploadBody accepts a multipart "file" field or a raw body.
func uploadBody(r *http.Request) (io.ReadCloser, string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("read upload: %w", err)
		}
		return f, hdr.Filename, nil
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		switch ct {
		case "text/tab-separated-values":
			name = "upload.tsv"
		case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
			name = "upload.xlsx"
		default:
			name = "upload.csv"
		}
	}
	// read now so an oversized body fails before the session is touched
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), name, nil
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds := s.session.Dataset()
	if ds == nil {
		s.fail(w, r, s.noDataset())
		return
	}
	s.respond(w, r, http.StatusOK, report.NewDatasetSummary(ds))
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds := s.session.Dataset()
	if ds == nil {
		s.fail(w, r, s.noDataset())
		return
	}
	rows := ds.Rows
	if strings.EqualFold(r.URL.Query().Get("filtered"), "true") {
		if snap := s.session.Snapshot(); snap != nil {
			rows = snap.Filtered
		}
	}
	if rows == nil {
		rows = []dataset.Row{}
	}
	s.respond(w, r, http.StatusOK, rows)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	var v chart.ViewConfig
	if err := render.DecodeJSON(r.Body, &v); err != nil {
		s.fail(w, r, newAPIError(http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("decode view: %v", err)))
		return
	}
	if err := s.validate.Struct(v); err != nil {
		s.fail(w, r, validationError(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Dataset() == nil {
		s.fail(w, r, s.noDataset())
		return
	}
	snap, err := s.session.Apply(v)
	if err != nil {
		s.fail(w, r, newAPIError(http.StatusUnprocessableEntity, CodeValidation, err.Error()))
		return
	}
	s.observe(snap)
	s.respond(w, r, http.StatusOK, snap)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.session.Snapshot()
	if snap == nil {
		s.fail(w, r, s.noDataset())
		return
	}
	s.respond(w, r, http.StatusOK, snap)
}

func (s *Server) observe(snap *chart.Snapshot) {
	if snap != nil {
		s.metrics.curves.Set(float64(snap.Curves.Count()))
	}
}

func (s *Server) noDataset() *APIError {
	msg := "no dataset loaded"
	if err := s.session.Err(); err != nil {
		msg = fmt.Sprintf("no dataset loaded: last upload failed: %v", err)
	}
	return newAPIError(http.StatusNotFound, CodeNoDataset, msg)
}

// respond encodes v before the status is committed, so a body that cannot
// be encoded turns into a structured 500 instead of a truncated 200.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		s.fail(w, r, newAPIError(http.StatusInternalServerError, CodeInternal, fmt.Sprintf("encode response: %v", err)))
		return
	}
	render.Status(r, status)
	render.JSON(w, r, json.RawMessage(buf))
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, e *APIError) {
	if e.StatusCode >= 500 {
		s.log.ErrorContext(r.Context(), "request failed", "error", e.Message, "path", r.URL.Path)
	}
	_ = render.Render(w, r, e)
}

func validationError(err error) *APIError {
	e := newAPIError(http.StatusBadRequest, CodeValidation, "invalid view")
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			msg := fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
			if fe.Tag() == "oneof" {
				msg = fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
			}
			details = append(details, FieldError{Field: fe.Field(), Message: msg})
		}
		e.Details = details
	}
	return e
}
