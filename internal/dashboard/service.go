// Package dashboard ties the stores, selection state, correlation memo, and
// alert evaluation together into the views served to the page.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/water-level-dashboard-service/internal/domain"
	"github.com/couchcryptid/water-level-dashboard-service/internal/observability"
	"github.com/couchcryptid/water-level-dashboard-service/internal/store"
)

// Store is a loadable, atomically published document snapshot.
type Store[T any] interface {
	Name() string
	Load(ctx context.Context) error
	Snapshot() store.Snapshot[T]
	Err() error
}

// AlertPublisher delivers low-water notifications.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, event domain.AlertEvent) error
}

// Options configures a Service. Geocoder and Publisher are optional.
type Options struct {
	ThresholdM      float64
	Location        *time.Location
	CorrelationSize int
	Geocoder        domain.Geocoder
	Publisher       AlertPublisher
}

// Service is the dashboard's single owner of selection state.
type Service struct {
	stations   Store[domain.Station]
	readings   Store[domain.Reading]
	selection  Selection
	correlator *Correlator
	presenter  *Presenter
	thresholdM float64
	geocoder   domain.Geocoder
	publisher  AlertPublisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	settled    atomic.Bool
}

// New creates a Service over the two stores.
func New(stations Store[domain.Station], readings Store[domain.Reading], opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		stations:   stations,
		readings:   readings,
		correlator: NewCorrelator(opts.CorrelationSize, metrics),
		presenter:  NewPresenter(opts.Location),
		thresholdM: opts.ThresholdM,
		geocoder:   opts.Geocoder,
		publisher:  opts.Publisher,
		logger:     logger,
		metrics:    metrics,
	}
}

// LoadAll loads both documents concurrently. The loads succeed or fail
// independently; the returned error joins whichever failed.
func (s *Service) LoadAll(ctx context.Context) error {
	var (
		wg          sync.WaitGroup
		stationsErr error
		readingsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		stationsErr = s.stations.Load(ctx)
	}()
	go func() {
		defer wg.Done()
		readingsErr = s.readings.Load(ctx)
	}()
	wg.Wait()

	s.settled.Store(true)
	return errors.Join(stationsErr, readingsErr)
}

// Reload re-fetches both documents and resets the selection, as a page reload would.
func (s *Service) Reload(ctx context.Context) error {
	s.selection.Clear()
	return s.LoadAll(ctx)
}

// CheckReadiness reports ready once the initial loads have settled, whatever their outcome.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.settled.Load() {
		return errors.New("station and reading documents have not been loaded yet")
	}
	return nil
}

// Stations returns the station list for the map. The error is non-nil only
// when the station document failed and no earlier snapshot exists.
func (s *Service) Stations() ([]domain.Station, error) {
	snap := s.stations.Snapshot()
	if err := s.stations.Err(); err != nil && snap.Version == 0 {
		return nil, err
	}
	return snap.Items, nil
}

// Select makes id the current selection and returns its view. Unknown ids
// are rejected and leave the selection unchanged.
func (s *Service) Select(ctx context.Context, id domain.StationID) (View, error) {
	st, ok := s.lookup(id)
	if !ok {
		return View{}, fmt.Errorf("select station %q: %w", id, domain.ErrUnknownStation)
	}

	state := s.selection.Select(id)
	s.metrics.Selections.Inc()
	s.logger.Debug("station selected", "station_id", id, "seq", state.Seq)

	v, series := s.stationView(ctx, st)
	v.SelectionSeq = state.Seq

	if v.Alert != nil && v.Alert.Status == domain.AlertLow {
		s.publish(ctx, st, series)
	}
	return v, nil
}

// Clear drops the current selection.
func (s *Service) Clear() View {
	state := s.selection.Clear()
	v := s.baseView()
	v.SelectionSeq = state.Seq
	return v
}

// Current returns the selected station id, if any.
func (s *Service) Current() (domain.StationID, bool) {
	return s.selection.Current()
}

// View returns the view of the current selection.
func (s *Service) View(ctx context.Context) View {
	state := s.selection.State()
	if !state.Selected {
		v := s.baseView()
		v.SelectionSeq = state.Seq
		return v
	}

	st, ok := s.lookup(state.StationID)
	if !ok {
		v := s.baseView()
		v.SelectionSeq = state.Seq
		return v
	}
	v, _ := s.stationView(ctx, st)
	v.SelectionSeq = state.Seq
	return v
}

// StationView returns the view of id without touching the selection.
// An id missing from the Station Store is ErrUnknownStation, not an empty series.
func (s *Service) StationView(ctx context.Context, id domain.StationID) (View, error) {
	st, ok := s.lookup(id)
	if !ok {
		return View{}, fmt.Errorf("station %q: %w", id, domain.ErrUnknownStation)
	}
	v, _ := s.stationView(ctx, st)
	return v, nil
}

// baseView is the view without a usable selection: the station load error
// if the map has nothing to show, otherwise the prompt.
func (s *Service) baseView() View {
	if err := s.stations.Err(); err != nil && s.stations.Snapshot().Version == 0 {
		return s.presenter.LoadError(s.stations.Name(), err, nil, "")
	}
	return s.presenter.Prompt()
}

func (s *Service) stationView(ctx context.Context, st domain.Station) (View, []domain.Reading) {
	place := s.place(ctx, st)

	snap := s.readings.Snapshot()
	if err := s.readings.Err(); err != nil && snap.Version == 0 {
		return s.presenter.LoadError(s.readings.Name(), err, &st, place), nil
	}

	series := s.correlator.Series(snap, st.ID)
	status := domain.Evaluate(series, s.thresholdM)
	s.metrics.AlertEvaluations.WithLabelValues(string(status)).Inc()

	return s.presenter.Series(st, place, series, status, s.thresholdM), series
}

func (s *Service) lookup(id domain.StationID) (domain.Station, bool) {
	if id == "" {
		return domain.Station{}, false
	}
	for _, st := range s.stations.Snapshot().Items {
		if st.ID == id {
			return st, true
		}
	}
	return domain.Station{}, false
}

func (s *Service) place(ctx context.Context, st domain.Station) string {
	if s.geocoder == nil {
		return ""
	}
	result, err := s.geocoder.ReverseGeocode(ctx, st.Lat, st.Lon)
	if err != nil {
		s.logger.Warn("reverse geocoding failed",
			"station_id", st.ID,
			"lat", st.Lat,
			"lon", st.Lon,
			"error", err,
		)
		return ""
	}
	return result.FormattedAddress
}

func (s *Service) publish(ctx context.Context, st domain.Station, series []domain.Reading) {
	if s.publisher == nil {
		return
	}
	event := domain.NewAlertEvent(st, series, s.thresholdM)
	if err := s.publisher.PublishAlert(ctx, event); err != nil {
		s.metrics.AlertsPublished.WithLabelValues("error").Inc()
		s.logger.Error("publish alert failed", "station_id", st.ID, "error", err)
		return
	}
	s.metrics.AlertsPublished.WithLabelValues("success").Inc()
	s.logger.Info("low water alert published", "station_id", st.ID, "min_level_m", event.MinLevelM)
}
