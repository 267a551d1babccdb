package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spektr-org/priomatrix/dataset"
	"github.com/spektr-org/priomatrix/engine"
	"github.com/spektr-org/priomatrix/helpers"
)

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// ============================================================================
// SELECTION FROM QUERY
// ============================================================================

func TestSelectionFromQuery(t *testing.T) {
	cat := dataset.Default()

	sel := SelectionFromQuery(cat, map[string][]string{})
	assert.Equal(t, engine.DefaultSelection(cat), sel)

	sel = SelectionFromQuery(cat, map[string][]string{
		"sources":    {"I1, I2", "workshop"},
		"categories": {""},
		"mode":       {"aggregate"},
	})
	assert.Equal(t, []string{"I1", "I2", "workshop"}, sel.Sources)
	assert.NotNil(t, sel.Categories)
	assert.Empty(t, sel.Categories)
	assert.Equal(t, cat.PrincipleNames(), sel.Principles)
	assert.Equal(t, engine.Mode("aggregate"), sel.Mode)
}

// ============================================================================
// HANDLERS
// ============================================================================

func TestHealth(t *testing.T) {
	rec := get(t, New(dataset.Default()), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDEchoed(t *testing.T) {
	s := New(dataset.Default())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCatalog(t *testing.T) {
	cat := dataset.Default()
	rec := get(t, New(cat), "/api/catalog")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[catalogResponse](t, rec)
	assert.Equal(t, cat.DefaultSources(), body.DefaultSources)
	assert.Len(t, body.Principles, cat.Len())
	assert.Len(t, body.Categories, len(cat.CategoryNames()))
}

func TestPointsDefault(t *testing.T) {
	rec := get(t, New(dataset.Default()), "/api/points")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode[pointsResponse](t, rec)
	assert.Equal(t, engine.ModeRaw, body.Mode)
	assert.Equal(t, 122, body.Count)
	assert.Len(t, body.Points, 122)
}

func TestPointsAggregate(t *testing.T) {
	rec := get(t, New(dataset.Default()), "/api/points?mode=mean&principles=usability&sources=workshop,I1,I2,I4")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[pointsResponse](t, rec)
	require.Len(t, body.Points, 1)
	p := body.Points[0]
	assert.Equal(t, "Usability", p.Name)
	assert.InDelta(t, 9.0, p.Relevance, 1e-9)
	assert.InDelta(t, 8.5, p.Urgency, 1e-9)
	assert.Equal(t, 4, p.Count)
}

func TestPointsCSV(t *testing.T) {
	rec := get(t, New(dataset.Default()), "/api/points?format=csv&sources=I1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), helpers.DefaultFileName)

	points, err := helpers.ReadCSV(rec.Body)
	require.NoError(t, err)
	assert.NotEmpty(t, points)
	for _, p := range points {
		assert.Equal(t, 1, p.Count)
	}
}

func TestViewEmptySelection(t *testing.T) {
	rec := get(t, New(dataset.Default()), "/api/view?sources=")
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[engine.Result](t, rec)
	assert.True(t, res.Empty)
	assert.Empty(t, res.Points)
	assert.Equal(t, engine.EmptyReply, res.Reply)
}

func TestViewExcludesCategory(t *testing.T) {
	cat := dataset.Default()
	var keep []string
	for _, c := range cat.CategoryNames() {
		if c != "Monitoring" {
			keep = append(keep, c)
		}
	}
	rec := get(t, New(cat), "/api/view?categories="+url.QueryEscape(strings.Join(keep, ",")))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[engine.Result](t, rec)
	require.NotEmpty(t, res.Points)
	assert.Len(t, res.Points, 112)
	for _, p := range res.Points {
		assert.NotEqual(t, "Monitoring", p.Category)
	}
	for _, c := range res.Consistency {
		assert.NotEqual(t, "Monitoring", c.Category)
	}
}

func TestRanking(t *testing.T) {
	rec := get(t, New(dataset.Default(), WithTopN(5)), "/api/ranking")
	require.Equal(t, http.StatusOK, rec.Code)
	r := decode[engine.Ranking](t, rec)
	assert.Len(t, r.Top, 5)
	assert.Len(t, r.Bottom, 5)
	assert.GreaterOrEqual(t, r.Top[0].Score, r.Top[4].Score)

	rec = get(t, New(dataset.Default(), WithTopN(5)), "/api/ranking?top=3")
	r = decode[engine.Ranking](t, rec)
	assert.Len(t, r.Top, 3)

	rec = get(t, New(dataset.Default()), "/api/ranking?sources=")
	require.Equal(t, http.StatusOK, rec.Code)
	r = decode[engine.Ranking](t, rec)
	assert.Empty(t, r.Top)
}

func TestCategoriesAndConsistency(t *testing.T) {
	s := New(dataset.Default())

	rec := get(t, s, "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[[]engine.CategoryStat](t, rec)
	assert.NotEmpty(t, stats)

	rec = get(t, s, "/api/consistency")
	require.Equal(t, http.StatusOK, rec.Code)
	scores := decode[[]engine.ConsistencyScore](t, rec)
	assert.Len(t, scores, 25)

	rec = get(t, s, "/api/consistency?principles=")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestBadRequests(t *testing.T) {
	s := New(dataset.Default())
	for _, target := range []string{
		"/api/view?mode=median",
		"/api/points?sources=nobody",
		"/api/ranking?top=0",
		"/api/ranking?top=x",
		"/api/chart/matrix?format=gif",
	} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, s, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[errorResponse](t, rec)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestChart(t *testing.T) {
	s := New(dataset.Default())

	rec := get(t, s, "/api/chart/matrix")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = get(t, s, "/api/chart/urgency?format=svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/chart/pie").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/chart/matrix?sources=").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s := New(dataset.Default())
	req := httptest.NewRequest(http.MethodPost, "/api/view", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ============================================================================
// METRICS & LOGGING
// ============================================================================

func TestMetrics(t *testing.T) {
	s := New(dataset.Default())
	get(t, s, "/api/points")
	get(t, s, "/api/points")
	get(t, s, "/api/view?mode=median")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `priomatrix_http_requests_total{route="/api/points",status="200"} 2`)
	assert.Contains(t, body, `priomatrix_http_requests_total{route="/api/view",status="400"} 1`)
	assert.Contains(t, body, "priomatrix_points_produced_count 2")
	assert.Contains(t, body, "priomatrix_compute_duration_seconds_bucket")
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := New(dataset.Default(), WithLogger(zap.New(core)))
	get(t, s, "/api/ranking?top=2")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/ranking", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.NotEmpty(t, fields["request_id"])
	assert.NotEmpty(t, logs.FilterMessage("transformed selection").All())
}

func TestListenAndServeShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(dataset.Default()).ListenAndServe(ctx, addr, time.Second, time.Second) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
