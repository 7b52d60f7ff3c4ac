// Package store holds the immutable station and reading snapshots loaded
// from the external documents.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/water-level-dashboard-service/internal/adapter/document"
	"github.com/couchcryptid/water-level-dashboard-service/internal/domain"
	"github.com/couchcryptid/water-level-dashboard-service/internal/observability"
)

const (
	StationsStore = "stations"
	ReadingsStore = "readings"
)

// Fetcher retrieves the raw bytes of a document.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// Parser decodes a document into validated records.
type Parser[T any] func(data []byte) ([]T, domain.ParseReport, error)

// Snapshot is one published, read-only result of a successful load.
// Version 0 means nothing has been loaded yet.
type Snapshot[T any] struct {
	Items    []T
	Version  uint64
	LoadedAt time.Time
}

// Store loads a document and publishes it atomically. Readers never observe
// a partially parsed list.
type Store[T any] struct {
	name    string
	source  string
	fetcher Fetcher
	parse   Parser[T]
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics

	snap    atomic.Pointer[Snapshot[T]]
	lastErr atomic.Pointer[domain.LoadError]
	version atomic.Uint64

	// tickets orders overlapping loads by start time. A load that finishes
	// after a later-started one has recorded its outcome is discarded.
	tickets  atomic.Uint64
	recordMu sync.Mutex
	recorded uint64
}

// New creates an empty Store for the document at source.
func New[T any](name, source string, f Fetcher, parse Parser[T], timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Store[T] {
	return &Store[T]{
		name:    name,
		source:  source,
		fetcher: f,
		parse:   parse,
		timeout: timeout,
		logger:  logger.With("store", name),
		metrics: metrics,
	}
}

// NewStationStore creates the Station Store.
func NewStationStore(source string, f Fetcher, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Store[domain.Station] {
	return New(StationsStore, source, f, domain.ParseStations, timeout, logger, metrics)
}

// NewReadingStore creates the Reading Store.
func NewReadingStore(source string, f Fetcher, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Store[domain.Reading] {
	return New(ReadingsStore, source, f, domain.ParseReadings, timeout, logger, metrics)
}

// Name returns the store name used in logs, metrics, and errors.
func (s *Store[T]) Name() string { return s.name }

// Load fetches and parses the document once, then publishes the result.
// On failure it returns a *domain.LoadError and the previous snapshot stays.
func (s *Store[T]) Load(ctx context.Context) error {
	ticket := s.tickets.Add(1)
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	items, report, loadErr := s.fetchAndParse(ctx)
	s.metrics.LoadDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
	if len(report.Skipped) > 0 {
		s.metrics.RecordsSkipped.WithLabelValues(s.name).Add(float64(len(report.Skipped)))
		for _, bad := range report.Skipped {
			s.logger.Warn("skipping malformed record", "index", bad.Index, "field", bad.Field, "reason", bad.Reason)
		}
	}

	s.recordMu.Lock()
	defer s.recordMu.Unlock()
	if ticket < s.recorded {
		s.logger.Warn("discarding result of superseded load", "source", s.source, "ticket", ticket, "recorded", s.recorded)
		if loadErr != nil {
			return loadErr
		}
		return nil
	}
	s.recorded = ticket

	if loadErr != nil {
		s.lastErr.Store(loadErr)
		s.metrics.Loads.WithLabelValues(s.name, string(loadErr.Kind)).Inc()
		s.logger.Error("document load failed", "source", s.source, "kind", loadErr.Kind, "error", loadErr.Err)
		return loadErr
	}

	snap := &Snapshot[T]{
		Items:    items,
		Version:  s.version.Add(1),
		LoadedAt: domain.Now(),
	}
	s.snap.Store(snap)
	s.lastErr.Store(nil)

	s.metrics.Loads.WithLabelValues(s.name, "success").Inc()
	s.metrics.StoreRecords.WithLabelValues(s.name).Set(float64(len(items)))
	s.logger.Info("document loaded",
		"source", s.source,
		"records", len(items),
		"skipped", len(report.Skipped),
		"duplicates", report.Duplicates,
		"version", snap.Version,
	)
	return nil
}

func (s *Store[T]) fetchAndParse(ctx context.Context) ([]T, domain.ParseReport, *domain.LoadError) {
	data, err := s.fetcher.Fetch(ctx, s.source)
	if err != nil {
		return nil, domain.ParseReport{}, s.loadError(classifyFetch(ctx, err), err)
	}

	items, report, err := s.parse(data)
	if err != nil {
		kind := domain.LoadErrorDecode
		if errors.Is(err, domain.ErrSchemaMismatch) {
			kind = domain.LoadErrorSchema
		}
		return nil, report, s.loadError(kind, err)
	}
	return items, report, nil
}

func (s *Store[T]) loadError(kind domain.LoadErrorKind, err error) *domain.LoadError {
	return &domain.LoadError{Store: s.name, Source: s.source, Kind: kind, Err: err}
}

func classifyFetch(ctx context.Context, err error) domain.LoadErrorKind {
	var statusErr *document.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.LoadErrorTimeout
	case errors.As(err, &statusErr):
		return domain.LoadErrorStatus
	default:
		return domain.LoadErrorFetch
	}
}

// Snapshot returns the currently published snapshot, or an empty one when
// nothing has loaded yet.
func (s *Store[T]) Snapshot() Snapshot[T] {
	if snap := s.snap.Load(); snap != nil {
		return *snap
	}
	return Snapshot[T]{}
}

// Err returns the error of the most recent load, or nil if it succeeded or
// no load has been attempted.
func (s *Store[T]) Err() error {
	if e := s.lastErr.Load(); e != nil {
		return e
	}
	return nil
}
