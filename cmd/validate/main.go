// Command validate checks the stations and water-level documents against the
// schema the dashboard accepts. It reports every skipped record, cross-document
// consistency (orphaned readings, stations without data), temporal sanity, and
// a per-station alert summary.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -stations data/stations.json \
//	  -readings data/waterlevels.json \
//	  -threshold 11
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/water-level-dashboard-service/internal/adapter/document"
	"github.com/couchcryptid/water-level-dashboard-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase. Warnings are reported but
// do not fail the run.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	stationsSrc := flag.String("stations", "data/stations.json", "stations document path or URL")
	readingsSrc := flag.String("readings", "data/waterlevels.json", "readings document path or URL")
	threshold := flag.Float64("threshold", domain.DefaultThresholdM, "alert threshold in meters")
	asOfStr := flag.String("as-of", "", "evaluation time (RFC 3339); readings after it are flagged (default now)")
	timeout := flag.Duration("timeout", 10*time.Second, "fetch timeout per document")
	flag.Parse()

	if *asOfStr != "" {
		asOf, err := time.Parse(time.RFC3339, *asOfStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -as-of: %v\n", err)
			os.Exit(1)
		}
		domain.SetClock(clockwork.NewFakeClockAt(asOf))
	}

	os.Exit(run(*stationsSrc, *readingsSrc, *threshold, *timeout))
}

func run(stationsSrc, readingsSrc string, thresholdM float64, timeout time.Duration) int {
	fmt.Println("=== Water Level Data Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	fetcher := document.NewFetcher(logger)

	stationsData, err := fetch(fetcher, stationsSrc, timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: fetch stations: %v\n", err)
		return 1
	}
	readingsData, err := fetch(fetcher, readingsSrc, timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: fetch readings: %v\n", err)
		return 1
	}

	stations, stationsPhase := validateStations(stationsData)
	readings, readingsPhase := validateReadings(readingsData)

	phases := []*phase{
		stationsPhase,
		readingsPhase,
		validateReferences(stations, readings),
		validateTemporal(readings),
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		} else if len(p.warnings) > 0 {
			status = fmt.Sprintf("\033[33mPASS (%d warnings)\033[0m", len(p.warnings))
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d stations, %d readings\n", len(stations), len(readings))

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [E%d] %s\n", i+1, e)
		}
		for i, w := range p.warnings {
			fmt.Printf("  [W%d] %s\n", i+1, w)
		}
	}

	printAlertSummary(stations, readings, thresholdM)

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func fetch(f *document.Fetcher, source string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return f.Fetch(ctx, source)
}

// ── Phase 1: Stations document ──

func validateStations(data []byte) ([]domain.Station, *phase) {
	p := &phase{name: "Phase 1: Stations document schema"}
	stations, report, err := domain.ParseStations(data)
	if err != nil {
		p.errorf("document rejected: %v", err)
	}
	for _, bad := range report.Skipped {
		p.errorf("%s", bad.Error())
	}
	return stations, p
}

// ── Phase 2: Readings document ──

func validateReadings(data []byte) ([]domain.Reading, *phase) {
	p := &phase{name: "Phase 2: Readings document schema"}
	readings, report, err := domain.ParseReadings(data)
	if err != nil {
		p.errorf("document rejected: %v", err)
	}
	for _, bad := range report.Skipped {
		p.errorf("%s", bad.Error())
	}
	if report.Duplicates > 0 {
		p.warnf("%d readings share a (station_id, timestamp) with an earlier reading", report.Duplicates)
	}
	return readings, p
}

// ── Phase 3: Cross-document references ──
// Orphaned readings and stations without data are tolerated by the service
// but usually point at an id mismatch between the two documents.

func validateReferences(stations []domain.Station, readings []domain.Reading) *phase {
	p := &phase{name: "Phase 3: Station/reading references"}

	known := make(map[domain.StationID]bool, len(stations))
	for _, st := range stations {
		known[st.ID] = true
	}

	orphans := map[domain.StationID]int{}
	withData := map[domain.StationID]bool{}
	for _, r := range readings {
		if !known[r.StationID] {
			orphans[r.StationID]++
			continue
		}
		withData[r.StationID] = true
	}

	ids := make([]domain.StationID, 0, len(orphans))
	for id := range orphans {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		p.warnf("%d readings reference unknown station %q", orphans[id], id)
	}
	for _, st := range stations {
		if !withData[st.ID] {
			p.warnf("station %s (%s) has no readings", st.ID, st.Name)
		}
	}
	return p
}

// ── Phase 4: Temporal sanity ──

func validateTemporal(readings []domain.Reading) *phase {
	p := &phase{name: "Phase 4: Reading timestamps"}
	now := domain.Now()
	for _, r := range readings {
		if r.Timestamp.After(now) {
			p.errorf("station %s: reading at %s is after %s", r.StationID,
				r.Timestamp.Format(time.RFC3339), now.UTC().Format(time.RFC3339))
		}
		if r.Timestamp.Year() < 1900 {
			p.warnf("station %s: implausible timestamp %s", r.StationID, r.Timestamp.Format(time.RFC3339))
		}
	}
	return p
}

// ── Alert summary ──

func printAlertSummary(stations []domain.Station, readings []domain.Reading, thresholdM float64) {
	fmt.Printf("\nAlert summary (threshold %gm):\n", thresholdM)
	low := 0
	for _, st := range stations {
		series := domain.Correlate(readings, st.ID)
		event := domain.NewAlertEvent(st, series, thresholdM)
		if event.Status == domain.AlertLow {
			low++
		}
		if event.ReadingCount == 0 {
			fmt.Printf("  %-8s %-16s no data\n", st.ID, st.Name)
			continue
		}
		fmt.Printf("  %-8s %-16s readings=%-4d min=%7.2fm latest=%s %s\n",
			st.ID, st.Name, event.ReadingCount, event.MinLevelM,
			event.LatestAt.Format(time.DateOnly), event.Status)
	}
	fmt.Printf("Stations in alert: %d of %d\n", low, len(stations))
}
