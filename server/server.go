// Package server exposes the priority matrix over a small read-only JSON
// API. Every request recomputes its selection from the shared catalog.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spektr-org/priomatrix/dataset"
	"github.com/spektr-org/priomatrix/engine"
	"github.com/spektr-org/priomatrix/helpers"
	"github.com/spektr-org/priomatrix/render"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Server serves one catalog. It holds no mutable state besides metrics.
type Server struct {
	catalog  *dataset.Catalog
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	engine   []engine.Option
	topN     int
	mux      *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngineOptions passes options to every engine.Execute call.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Server) { s.engine = append(s.engine, opts...) }
}

// WithTopN sets the ranking length used when a request has no top parameter.
func WithTopN(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.topN = n
		}
	}
}

// New builds a Server with its own prometheus registry.
func New(cat *dataset.Catalog, opts ...Option) *Server {
	s := &Server{
		catalog:  cat,
		logger:   zap.NewNop(),
		registry: prometheus.NewRegistry(),
		topN:     engine.DefaultTopN,
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry.MustRegister(collectors.NewGoCollector())
	s.metrics = NewMetrics(s.registry)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /healthz", s.handleHealth)
	s.handle("GET /api/catalog", s.handleCatalog)
	s.handle("GET /api/view", s.handleView)
	s.handle("GET /api/points", s.handlePoints)
	s.handle("GET /api/ranking", s.handleRanking)
	s.handle("GET /api/categories", s.handleCategories)
	s.handle("GET /api/consistency", s.handleConsistency)
	s.handle("GET /api/chart/{name}", s.handleChart)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readHeaderTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ============================================================================
// MIDDLEWARE
// ============================================================================

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	route := pattern[strings.IndexByte(pattern, ' ')+1:]
	s.mux.Handle(pattern, s.instrument(route, h))
}

// instrument assigns a request id, records metrics and logs the request.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		took := time.Since(start)

		s.metrics.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.metrics.latency.WithLabelValues(route).Observe(took.Seconds())
		s.logger.Debug("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", rec.status),
			zap.Duration("took", took),
		)
	})
}

// ============================================================================
// REQUEST PARSING
// ============================================================================

// SelectionFromQuery builds a Selection from query parameters. An absent
// list parameter means the catalog default; a present but empty one selects
// nothing.
func SelectionFromQuery(cat *dataset.Catalog, q map[string][]string) engine.Selection {
	sel := engine.DefaultSelection(cat)
	if v, ok := q["sources"]; ok {
		sel.Sources = splitAll(v)
	}
	if v, ok := q["categories"]; ok {
		sel.Categories = splitAll(v)
	}
	if v, ok := q["principles"]; ok {
		sel.Principles = splitAll(v)
	}
	if v, ok := q["mode"]; ok && len(v) > 0 {
		sel.Mode = engine.Mode(v[0])
	}
	return sel
}

func splitAll(values []string) []string {
	out := []string{}
	for _, v := range values {
		out = append(out, engine.SplitList(v)...)
	}
	return out
}

func (s *Server) compute(r *http.Request) (*engine.Result, error) {
	q := r.URL.Query()
	opts := append([]engine.Option{engine.WithTopN(s.topN), engine.WithLogger(s.logger)}, s.engine...)
	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("top must be a positive integer, got %q", v)
		}
		opts = append(opts, engine.WithTopN(n))
	}

	start := time.Now()
	res, err := engine.Execute(s.catalog, SelectionFromQuery(s.catalog, q), opts...)
	if err != nil {
		return nil, err
	}
	s.metrics.compute.Observe(time.Since(start).Seconds())
	s.metrics.points.Observe(float64(len(res.Points)))
	return res, nil
}

// ============================================================================
// HANDLERS
// ============================================================================

type catalogResponse struct {
	Sources        []dataset.SourceMeta   `json:"sources"`
	DefaultSources []string               `json:"default_sources"`
	Categories     []dataset.CategoryMeta `json:"categories"`
	Principles     []dataset.Principle    `json:"principles"`
}

type pointsResponse struct {
	Mode   engine.Mode    `json:"mode"`
	Count  int            `json:"count"`
	Points []engine.Point `json:"points"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogResponse{
		Sources:        s.catalog.Sources(),
		DefaultSources: s.catalog.DefaultSources(),
		Categories:     s.catalog.Categories(),
		Principles:     s.catalog.Principles(),
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	res, ok := s.result(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	res, ok := s.result(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", helpers.DefaultFileName))
		if err := helpers.WriteCSV(w, res.Points); err != nil {
			s.logger.Warn("write CSV", zap.Error(err))
		}
		return
	}
	writeJSON(w, http.StatusOK, pointsResponse{Mode: res.Mode, Count: len(res.Points), Points: res.Points})
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	res, ok := s.result(w, r)
	if !ok {
		return
	}
	ranking := res.Ranking
	if ranking == nil {
		ranking = &engine.Ranking{Top: []engine.RankedPoint{}, Bottom: []engine.RankedPoint{}}
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	res, ok := s.result(w, r)
	if !ok {
		return
	}
	stats := res.Categories
	if stats == nil {
		stats = []engine.CategoryStat{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request) {
	res, ok := s.result(w, r)
	if !ok {
		return
	}
	scores := res.Consistency
	if scores == nil {
		scores = []engine.ConsistencyScore{}
	}
	writeJSON(w, http.StatusOK, scores)
}

// handleChart renders "matrix", "relevance" or "urgency" as PNG or SVG.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	name := r.PathValue("name")
	if name != "matrix" && name != engine.MeasureRelevance && name != engine.MeasureUrgency {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown chart %q", name))
		return
	}

	res, ok := s.result(w, r)
	if !ok {
		return
	}
	if res.Empty {
		writeError(w, http.StatusNotFound, errors.New(engine.EmptyReply))
		return
	}

	var buf bytes.Buffer
	if name == "matrix" {
		err = render.Matrix(res.Matrix, format, &buf)
	} else {
		err = render.Histogram(histogramFor(res, name), format, &buf)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write(buf.Bytes())
}

// histogramFor picks the histogram chart whose x axis is the measure.
func histogramFor(res *engine.Result, measure string) *engine.ChartConfig {
	label := engine.LabelForDimension(measure)
	for i := range res.Histograms {
		if res.Histograms[i].XAxis == label {
			return &res.Histograms[i]
		}
	}
	return nil
}

// result runs the request's selection and writes a 400 on bad input.
func (s *Server) result(w http.ResponseWriter, r *http.Request) (*engine.Result, bool) {
	res, err := s.compute(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return res, true
}

// ============================================================================
// RESPONSES
// ============================================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
