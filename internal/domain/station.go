package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// StationID identifies a monitoring station within one loaded snapshot.
type StationID string

// Station is a fixed monitoring point as published in the stations document.
type Station struct {
	ID       StationID `json:"id"`
	Name     string    `json:"name"`
	District string    `json:"district"`
	State    string    `json:"state"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
}

// Reading is one timestamped water-level measurement tied to a station.
type Reading struct {
	StationID   StationID `json:"station_id"`
	Timestamp   time.Time `json:"timestamp"`
	WaterLevelM float64   `json:"water_level_m"`
}

// ParseStationID normalizes a raw JSON id (string or number) into a StationID.
func ParseStationID(raw json.RawMessage) (StationID, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errMissing
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", fmt.Errorf("id is empty")
		}
		return StationID(s), nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a string or number")
	}
	return normalizeNumericID(n)
}

// maxExactFloatID is the largest integer a float64 holds exactly.
const maxExactFloatID = 1 << 53

// normalizeNumericID renders an integral JSON number as plain decimal text,
// so 1, 1.0 and 1e0 all name station "1". Fractional ids are rejected.
func normalizeNumericID(n json.Number) (StationID, error) {
	if i, ok := new(big.Int).SetString(n.String(), 10); ok {
		return StationID(i.String()), nil
	}

	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactFloatID {
		return "", fmt.Errorf("numeric id %s is not an exact integer", n)
	}
	if f == 0 {
		f = 0 // drop the sign of -0
	}
	return StationID(strconv.FormatFloat(f, 'f', -1, 64)), nil
}
