package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/water-level-dashboard-service/internal/adapter/document"
	httpadapter "github.com/couchcryptid/water-level-dashboard-service/internal/adapter/http"
	"github.com/couchcryptid/water-level-dashboard-service/internal/dashboard"
	"github.com/couchcryptid/water-level-dashboard-service/internal/domain"
	"github.com/couchcryptid/water-level-dashboard-service/internal/observability"
	"github.com/couchcryptid/water-level-dashboard-service/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stationsDoc = `[
		{"id":"GW-01","name":"Aurangabad","district":"Aurangabad","state":"Maharashtra","lat":19.88,"lon":75.34},
		{"id":"GW-02","name":"Jalna","district":"Jalna","state":"Maharashtra","lat":19.84,"lon":75.88}
	]`
	readingsDoc = `[
		{"station_id":"GW-01","timestamp":"2024-06-02T00:00:00Z","water_level_m":12.4},
		{"station_id":"GW-01","timestamp":"2024-06-01T00:00:00Z","water_level_m":10.2}
	]`
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer writes the documents to disk and wires a real dashboard over
// them. An empty document path is left missing to simulate a failed load.
func newTestServer(t *testing.T, stations, readings string, load bool) *httpadapter.Server {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if body != "" {
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		}
		return path
	}

	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	fetcher := document.NewFetcher(logger)
	svc := dashboard.New(
		store.NewStationStore(write("stations.json", stations), fetcher, time.Second, logger, metrics),
		store.NewReadingStore(write("waterlevels.json", readings), fetcher, time.Second, logger, metrics),
		dashboard.Options{ThresholdM: domain.DefaultThresholdM, CorrelationSize: 8},
		logger, metrics,
	)
	if load {
		_ = svc.LoadAll(context.Background())
	}
	return httpadapter.NewServer(":0", svc, logger)
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) dashboard.View {
	t.Helper()
	var v dashboard.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(t, stationsDoc, readingsDoc, true)
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	notLoaded := newTestServer(t, stationsDoc, readingsDoc, false)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, notLoaded, http.MethodGet, "/readyz", "").Code)

	loaded := newTestServer(t, stationsDoc, readingsDoc, true)
	assert.Equal(t, http.StatusOK, do(t, loaded, http.MethodGet, "/readyz", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, stationsDoc, readingsDoc, true)
	rec := do(t, srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStations(t *testing.T) {
	srv := newTestServer(t, stationsDoc, readingsDoc, true)
	rec := do(t, srv, http.MethodGet, "/api/stations", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var stations []domain.Station
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stations))
	require.Len(t, stations, 2)
	assert.Equal(t, "Aurangabad", stations[0].Name)
	assert.Equal(t, 75.34, stations[0].Lon)
}

func TestStations_LoadFailure(t *testing.T) {
	srv := newTestServer(t, "", readingsDoc, true)
	rec := do(t, srv, http.MethodGet, "/api/stations", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "stations")

	v := decodeView(t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	assert.Equal(t, dashboard.ViewLoadError, v.State)
}

func TestSelectionFlow(t *testing.T) {
	srv := newTestServer(t, stationsDoc, readingsDoc, true)

	v := decodeView(t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	assert.Equal(t, dashboard.ViewPrompt, v.State)

	rec := do(t, srv, http.MethodPost, "/api/selection",
		`{"id":"GW-01","name":"Aurangabad","district":"Aurangabad","state":"Maharashtra","lat":19.88,"lon":75.34}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec)
	assert.Equal(t, dashboard.ViewOK, v.State)
	require.Len(t, v.Points, 2)
	assert.Equal(t, "2024-06-01T00:00:00Z", v.Points[0].Timestamp)
	assert.Equal(t, domain.AlertLow, v.Alert.Status)

	v = decodeView(t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	assert.Equal(t, domain.StationID("GW-01"), v.Station.ID)

	v = decodeView(t, do(t, srv, http.MethodPost, "/api/selection", `{"id":"GW-02"}`))
	assert.Equal(t, dashboard.ViewNoData, v.State)

	v = decodeView(t, do(t, srv, http.MethodDelete, "/api/selection", ""))
	assert.Equal(t, dashboard.ViewPrompt, v.State)
}

func TestSelect_BadRequests(t *testing.T) {
	srv := newTestServer(t, stationsDoc, readingsDoc, true)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/selection", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/selection", `{"name":"no id"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/api/selection", `{"id":"GW-99"}`).Code)
}

func TestStationView(t *testing.T) {
	srv := newTestServer(t, stationsDoc, readingsDoc, true)

	rec := do(t, srv, http.MethodGet, "/api/stations/GW-01/view", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dashboard.ViewOK, decodeView(t, rec).State)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/stations/GW-99/view", "").Code)

	v := decodeView(t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	assert.Equal(t, dashboard.ViewPrompt, v.State, "direct lookup does not select")
}

func TestReload(t *testing.T) {
	srv := newTestServer(t, stationsDoc, readingsDoc, true)
	rec := do(t, srv, http.MethodPost, "/api/reload", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := newTestServer(t, stationsDoc, "", true)
	rec = do(t, failing, http.MethodPost, "/api/reload", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestReload_SurvivesClientDisconnect(t *testing.T) {
	srv := newTestServer(t, stationsDoc, readingsDoc, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil).WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
	stations := do(t, srv, http.MethodGet, "/api/stations", "")
	assert.Equal(t, http.StatusOK, stations.Code)
}
