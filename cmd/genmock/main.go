// Command genmock writes deterministic sample stations and water-level
// documents for local runs and tests. The output is parsed back with the
// domain package so it is guaranteed to match what the service accepts.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -stations-out data/stations.json \
//	  -readings-out data/waterlevels.json \
//	  -weeks 26 -seed 42
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/water-level-dashboard-service/internal/domain"
)

// orphanStationID is referenced by a few readings but absent from the station list.
const orphanStationID = "GW-99"

type site struct {
	name     string
	district string
	lat, lon float64
}

var sites = []site{
	{"Aurangabad", "Aurangabad", 19.8762, 75.3433},
	{"Jalna", "Jalna", 19.8410, 75.8864},
	{"Beed", "Beed", 18.9891, 75.7601},
	{"Latur", "Latur", 18.4088, 76.5604},
	{"Osmanabad", "Osmanabad", 18.1860, 76.0419},
	{"Nanded", "Nanded", 19.1383, 77.3210},
	{"Parbhani", "Parbhani", 19.2608, 76.7748},
	{"Hingoli", "Hingoli", 19.7173, 77.1494},
	{"Ahmednagar", "Ahmednagar", 19.0948, 74.7480},
	{"Solapur", "Solapur", 17.6599, 75.9064},
	{"Pune", "Pune", 18.5204, 73.8567},
	{"Nashik", "Nashik", 19.9975, 73.7898},
}

// outReading mirrors the readings document. Timestamp is either an RFC 3339
// string or epoch seconds so both accepted encodings appear in the sample.
type outReading struct {
	StationID   string  `json:"station_id"`
	Timestamp   any     `json:"timestamp"`
	WaterLevelM float64 `json:"water_level_m"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	stationsOut := flag.String("stations-out", "data/stations.json", "output path for the stations document")
	readingsOut := flag.String("readings-out", "data/waterlevels.json", "output path for the readings document")
	weeks := flag.Int("weeks", 26, "weekly readings per station")
	startStr := flag.String("start", "2024-01-01", "date of the first reading (YYYY-MM-DD)")
	seed := flag.Uint64("seed", 42, "random seed")
	epochEvery := flag.Int("epoch-every", 5, "write every Nth timestamp as epoch seconds (0 disables)")
	flag.Parse()

	if *weeks < 1 {
		return fmt.Errorf("-weeks must be positive, got %d", *weeks)
	}
	start, err := time.Parse(time.DateOnly, *startStr)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	stations := make([]domain.Station, len(sites))
	for i, s := range sites {
		stations[i] = domain.Station{
			ID:       domain.StationID(fmt.Sprintf("GW-%02d", i+1)),
			Name:     s.name,
			District: s.district,
			State:    "Maharashtra",
			Lat:      s.lat,
			Lon:      s.lon,
		}
	}

	readings := generateReadings(rng, stations, start, *weeks, *epochEvery)
	rng.Shuffle(len(readings), func(i, j int) { readings[i], readings[j] = readings[j], readings[i] })

	if err := writeJSON(*stationsOut, stations); err != nil {
		return fmt.Errorf("writing stations: %w", err)
	}
	log.Printf("wrote %d stations: %s", len(stations), *stationsOut)

	if err := writeJSON(*readingsOut, readings); err != nil {
		return fmt.Errorf("writing readings: %w", err)
	}
	log.Printf("wrote %d readings: %s", len(readings), *readingsOut)

	return printStats(*stationsOut, *readingsOut)
}

// generateReadings walks each station's level week by week with a dry-season
// dip. The last station gets no readings so the no-data view has a sample.
func generateReadings(rng *rand.Rand, stations []domain.Station, start time.Time, weeks, epochEvery int) []outReading {
	var out []outReading //nolint:prealloc // per-station counts vary
	n := 0
	for _, st := range stations[:len(stations)-1] {
		level := 9 + rng.Float64()*10
		for w := range weeks {
			ts := start.AddDate(0, 0, 7*w).Add(6 * time.Hour)
			seasonal := -1.5 * math.Sin(math.Pi*float64(w)/float64(weeks))
			level += (rng.Float64() - 0.5) * 0.8
			out = append(out, outReading{
				StationID:   string(st.ID),
				Timestamp:   encodeTimestamp(ts, n, epochEvery),
				WaterLevelM: round2(level + seasonal),
			})
			n++
		}
	}
	for i := range 3 {
		ts := start.AddDate(0, 0, 7*i).Add(6 * time.Hour)
		out = append(out, outReading{StationID: orphanStationID, Timestamp: ts.Format(time.RFC3339), WaterLevelM: 14})
	}
	return out
}

func encodeTimestamp(ts time.Time, n, epochEvery int) any {
	if epochEvery > 0 && n%epochEvery == epochEvery-1 {
		return ts.Unix()
	}
	return ts.Format(time.RFC3339)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printStats re-parses the written documents and prints per-station figures
// for updating test assertions.
func printStats(stationsPath, readingsPath string) error {
	stationsData, err := os.ReadFile(stationsPath)
	if err != nil {
		return err
	}
	readingsData, err := os.ReadFile(readingsPath)
	if err != nil {
		return err
	}

	stations, sReport, err := domain.ParseStations(stationsData)
	if err != nil {
		return fmt.Errorf("re-parse stations: %w", err)
	}
	readings, rReport, err := domain.ParseReadings(readingsData)
	if err != nil {
		return fmt.Errorf("re-parse readings: %w", err)
	}
	if len(sReport.Skipped) > 0 || len(rReport.Skipped) > 0 {
		return fmt.Errorf("generated documents have %d station and %d reading problems",
			len(sReport.Skipped), len(rReport.Skipped))
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Stations: %d, readings: %d\n", len(stations), len(readings))
	low := 0
	for _, st := range stations {
		series := domain.Correlate(readings, st.ID)
		status := domain.Evaluate(series, domain.DefaultThresholdM)
		if status == domain.AlertLow {
			low++
		}
		lowest, _ := domain.MinLevel(series)
		fmt.Printf("  %-6s %-12s readings=%-3d min=%6.2f status=%s\n", st.ID, st.Name, len(series), lowest, status)
	}
	fmt.Printf("LOW at %gm: %d\n", domain.DefaultThresholdM, low)
	fmt.Printf("Orphan readings (%s): %d\n", orphanStationID, len(domain.Correlate(readings, orphanStationID)))
	return nil
}
