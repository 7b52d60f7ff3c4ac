package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// timestampLayouts are tried in order for string timestamps. Layouts without
// a zone are interpreted as UTC.
// Epoch numbers must land in years 0001 through 9999, the range RFC 3339 can
// represent, so every accepted reading has a well-ordered instant.
var (
	minEpochSeconds = float64(time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix())
	maxEpochSeconds = float64(time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC).Unix())
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type rawStation struct {
	ID       json.RawMessage `json:"id"`
	Name     *string         `json:"name"`
	District *string         `json:"district"`
	State    *string         `json:"state"`
	Lat      *float64        `json:"lat"`
	Lon      *float64        `json:"lon"`
}

type rawReading struct {
	StationID   json.RawMessage `json:"station_id"`
	Timestamp   json.RawMessage `json:"timestamp"`
	WaterLevelM *float64        `json:"water_level_m"`
}

// ParseStations decodes a stations document. Invalid records are skipped and
// listed in the report; duplicate ids keep the first occurrence.
func ParseStations(data []byte) ([]Station, ParseReport, error) {
	records, err := splitDocument(data)
	if err != nil {
		return nil, ParseReport{}, err
	}

	report := ParseReport{Total: len(records)}
	stations := make([]Station, 0, len(records))
	seen := make(map[StationID]int, len(records))

	for i, rec := range records {
		st, bad := parseStation(i, rec)
		if bad != nil {
			report.Skipped = append(report.Skipped, *bad)
			continue
		}
		if first, dup := seen[st.ID]; dup {
			report.Skipped = append(report.Skipped, MalformedRecord{
				Index: i, Field: "id",
				Reason: fmt.Sprintf("duplicate of record %d", first),
			})
			report.Duplicates++
			continue
		}
		seen[st.ID] = i
		stations = append(stations, st)
	}

	report.Accepted = len(stations)
	if report.Total > 0 && report.Accepted == 0 {
		return nil, report, ErrSchemaMismatch
	}
	return stations, report, nil
}

// ParseReadings decodes a readings document. Invalid records are skipped and
// listed in the report. Readings sharing (station_id, timestamp) are kept in
// document order and counted as duplicates.
func ParseReadings(data []byte) ([]Reading, ParseReport, error) {
	records, err := splitDocument(data)
	if err != nil {
		return nil, ParseReport{}, err
	}

	type key struct {
		id StationID
		ts int64
	}

	report := ParseReport{Total: len(records)}
	readings := make([]Reading, 0, len(records))
	seen := make(map[key]struct{}, len(records))

	for i, rec := range records {
		r, bad := parseReading(i, rec)
		if bad != nil {
			report.Skipped = append(report.Skipped, *bad)
			continue
		}
		k := key{id: r.StationID, ts: r.Timestamp.UnixNano()}
		if _, dup := seen[k]; dup {
			report.Duplicates++
		}
		seen[k] = struct{}{}
		readings = append(readings, r)
	}

	report.Accepted = len(readings)
	if report.Total > 0 && report.Accepted == 0 {
		return nil, report, ErrSchemaMismatch
	}
	return readings, report, nil
}

func splitDocument(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}
	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return records, nil
}

func parseStation(i int, rec json.RawMessage) (Station, *MalformedRecord) {
	var raw rawStation
	if err := json.Unmarshal(rec, &raw); err != nil {
		return Station{}, &MalformedRecord{Index: i, Reason: err.Error()}
	}

	id, err := ParseStationID(raw.ID)
	if err != nil {
		return Station{}, fieldProblem(i, "id", err)
	}
	if raw.Name == nil {
		return Station{}, fieldProblem(i, "name", errMissing)
	}
	if raw.Lat == nil {
		return Station{}, fieldProblem(i, "lat", errMissing)
	}
	if raw.Lon == nil {
		return Station{}, fieldProblem(i, "lon", errMissing)
	}
	if *raw.Lat < -90 || *raw.Lat > 90 {
		return Station{}, fieldProblem(i, "lat", fmt.Errorf("%g out of range [-90,90]", *raw.Lat))
	}
	if *raw.Lon < -180 || *raw.Lon > 180 {
		return Station{}, fieldProblem(i, "lon", fmt.Errorf("%g out of range [-180,180]", *raw.Lon))
	}

	return Station{
		ID:       id,
		Name:     *raw.Name,
		District: deref(raw.District),
		State:    deref(raw.State),
		Lat:      *raw.Lat,
		Lon:      *raw.Lon,
	}, nil
}

func parseReading(i int, rec json.RawMessage) (Reading, *MalformedRecord) {
	var raw rawReading
	if err := json.Unmarshal(rec, &raw); err != nil {
		return Reading{}, &MalformedRecord{Index: i, Reason: err.Error()}
	}

	id, err := ParseStationID(raw.StationID)
	if err != nil {
		return Reading{}, fieldProblem(i, "station_id", err)
	}
	ts, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return Reading{}, fieldProblem(i, "timestamp", err)
	}
	if raw.WaterLevelM == nil {
		return Reading{}, fieldProblem(i, "water_level_m", errMissing)
	}

	return Reading{StationID: id, Timestamp: ts, WaterLevelM: *raw.WaterLevelM}, nil
}

// ParseTimestamp accepts an RFC 3339 style string or an epoch number in seconds.
func ParseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, errMissing
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("decode timestamp: %w", err)
		}
		s = strings.TrimSpace(s)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
	}

	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return time.Time{}, errors.New("timestamp must be a string or epoch number")
	}
	if secs < minEpochSeconds || secs > maxEpochSeconds {
		return time.Time{}, fmt.Errorf("epoch %g outside years 0001-9999", secs)
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC(), nil
}

func fieldProblem(i int, field string, err error) *MalformedRecord {
	return &MalformedRecord{Index: i, Field: field, Reason: err.Error()}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
