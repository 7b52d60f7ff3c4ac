package domain

import "time"

// DefaultThresholdM is the water level, in meters, below which a reading is low.
const DefaultThresholdM = 11.0

// AlertStatus is the derived alert state of a station's series.
type AlertStatus string

const (
	AlertNormal AlertStatus = "NORMAL"
	AlertLow    AlertStatus = "LOW"
)

// Evaluate reports AlertLow when any reading in series is strictly below
// thresholdM, and AlertNormal otherwise (including for an empty series).
func Evaluate(series []Reading, thresholdM float64) AlertStatus {
	for _, r := range series {
		if r.WaterLevelM < thresholdM {
			return AlertLow
		}
	}
	return AlertNormal
}

// MinLevel returns the lowest water level in series and false when it is empty.
func MinLevel(series []Reading) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	lowest := series[0].WaterLevelM
	for _, r := range series[1:] {
		lowest = min(lowest, r.WaterLevelM)
	}
	return lowest, true
}

// AlertEvent is the notification emitted when a selected station evaluates low.
type AlertEvent struct {
	StationID    StationID   `json:"station_id"`
	StationName  string      `json:"station_name"`
	District     string      `json:"district,omitempty"`
	State        string      `json:"state,omitempty"`
	Status       AlertStatus `json:"status"`
	ThresholdM   float64     `json:"threshold_m"`
	MinLevelM    float64     `json:"min_level_m"`
	ReadingCount int         `json:"reading_count"`
	LatestAt     time.Time   `json:"latest_at"`
	EvaluatedAt  time.Time   `json:"evaluated_at"`
}

// NewAlertEvent builds the alert notification for a correlated series.
func NewAlertEvent(st Station, series []Reading, thresholdM float64) AlertEvent {
	event := AlertEvent{
		StationID:    st.ID,
		StationName:  st.Name,
		District:     st.District,
		State:        st.State,
		Status:       Evaluate(series, thresholdM),
		ThresholdM:   thresholdM,
		ReadingCount: len(series),
		EvaluatedAt:  clock.Now().UTC(),
	}
	if lowest, ok := MinLevel(series); ok {
		event.MinLevelM = lowest
		event.LatestAt = series[len(series)-1].Timestamp
	}
	return event
}
