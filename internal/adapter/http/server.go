package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/water-level-dashboard-service/internal/dashboard"
	"github.com/couchcryptid/water-level-dashboard-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds selection request bodies.
const maxBodyBytes = 1 << 16

// Dashboard is the application surface the HTTP API exposes.
type Dashboard interface {
	sharedobs.ReadinessChecker
	Stations() ([]domain.Station, error)
	Select(ctx context.Context, id domain.StationID) (dashboard.View, error)
	Clear() dashboard.View
	View(ctx context.Context) dashboard.View
	StationView(ctx context.Context, id domain.StationID) (dashboard.View, error)
	Reload(ctx context.Context) error
}

// Server exposes the dashboard API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dash       Dashboard
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the dashboard API, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, dash Dashboard, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dash:   dash,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(dash))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/stations", s.handleStations)
	mux.HandleFunc("GET /api/stations/{id}/view", s.handleStationView)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /api/selection", s.handleSelect)
	mux.HandleFunc("DELETE /api/selection", s.handleClear)
	mux.HandleFunc("POST /api/reload", s.handleReload)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleStations(w http.ResponseWriter, _ *http.Request) {
	stations, err := s.dash.Stations()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if stations == nil {
		stations = []domain.Station{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, stations)
}

func (s *Server) handleStationView(w http.ResponseWriter, r *http.Request) {
	v, err := s.dash.StationView(r.Context(), domain.StationID(r.PathValue("id")))
	if err != nil {
		s.writeDashboardError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, v)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.dash.View(r.Context()))
}

// selectRequest is the station record the map sends on marker activation.
// Only the id is used; the selection refers back into the station list.
type selectRequest struct {
	ID json.RawMessage `json:"id"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := domain.ParseStationID(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("station id is required"))
		return
	}

	v, err := s.dash.Select(r.Context(), id)
	if err != nil {
		s.writeDashboardError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, v)
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.dash.Clear())
}

// handleReload detaches from the request so a client disconnect does not
// abort the loads; each store applies its own timeout.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.Reload(context.WithoutCancel(r.Context())); err != nil {
		s.logger.Warn("reload finished with errors", "error", err)
		sharedobs.WriteJSON(w, http.StatusBadGateway, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (s *Server) writeDashboardError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUnknownStation) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.logger.Error("dashboard request failed", "error", err)
	writeError(w, http.StatusInternalServerError, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
