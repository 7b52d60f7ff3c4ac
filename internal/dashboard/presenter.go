package dashboard

import (
	"fmt"
	"time"

	"github.com/couchcryptid/water-level-dashboard-service/internal/domain"
)

// ViewState tells the page which panel to render.
type ViewState string

const (
	ViewPrompt    ViewState = "prompt"
	ViewLoadError ViewState = "load_error"
	ViewNoData    ViewState = "no_data"
	ViewOK        ViewState = "ok"
)

const (
	promptMessage = "Select a station on the map to view its water level trend."
	noDataMessage = "No data for this station."
)

// StationHeader is the station block shown above the chart.
type StationHeader struct {
	ID       domain.StationID `json:"id"`
	Name     string           `json:"name"`
	District string           `json:"district"`
	State    string           `json:"state"`
	Lat      float64          `json:"lat"`
	Lon      float64          `json:"lon"`
	Place    string           `json:"place,omitempty"`
}

// Point is one chart sample.
type Point struct {
	Timestamp   string  `json:"timestamp"`
	WaterLevelM float64 `json:"water_level_m"`
}

// AlertView is the alert banner.
type AlertView struct {
	Status     domain.AlertStatus `json:"status"`
	ThresholdM float64            `json:"threshold_m"`
	Message    string             `json:"message"`
}

// View is the display payload consumed by the page's map and chart collaborators.
type View struct {
	State        ViewState      `json:"state"`
	Message      string         `json:"message,omitempty"`
	Error        string         `json:"error,omitempty"`
	Station      *StationHeader `json:"station,omitempty"`
	Points       []Point        `json:"points"`
	Alert        *AlertView     `json:"alert,omitempty"`
	SelectionSeq uint64         `json:"selection_seq"`
}

// Presenter formats correlated data for display. It makes no alerting decisions.
type Presenter struct {
	loc *time.Location
}

// NewPresenter formats timestamps in loc (UTC when nil).
func NewPresenter(loc *time.Location) *Presenter {
	if loc == nil {
		loc = time.UTC
	}
	return &Presenter{loc: loc}
}

// Prompt is the neutral view shown when nothing is selected.
func (p *Presenter) Prompt() View {
	return View{State: ViewPrompt, Message: promptMessage, Points: []Point{}}
}

// LoadError is the view shown when a document needed for display failed to load.
func (p *Presenter) LoadError(storeName string, err error, station *domain.Station, place string) View {
	v := View{
		State:   ViewLoadError,
		Message: fmt.Sprintf("Data unavailable: the %s document could not be loaded.", storeName),
		Points:  []Point{},
	}
	if err != nil {
		v.Error = err.Error()
	}
	if station != nil {
		v.Station = header(*station, place)
	}
	return v
}

// Series is the view of a selected station's correlated readings.
func (p *Presenter) Series(st domain.Station, place string, series []domain.Reading, status domain.AlertStatus, thresholdM float64) View {
	points := make([]Point, 0, len(series))
	for _, r := range series {
		points = append(points, Point{
			Timestamp:   r.Timestamp.In(p.loc).Format(time.RFC3339),
			WaterLevelM: r.WaterLevelM,
		})
	}

	v := View{
		State:   ViewOK,
		Station: header(st, place),
		Points:  points,
		Alert: &AlertView{
			Status:     status,
			ThresholdM: thresholdM,
			Message:    alertMessage(status, thresholdM),
		},
	}
	if len(series) == 0 {
		v.State = ViewNoData
		v.Message = noDataMessage
	}
	return v
}

func alertMessage(status domain.AlertStatus, thresholdM float64) string {
	if status == domain.AlertLow {
		return fmt.Sprintf("Alert: Water level has dropped below %gm at this station.", thresholdM)
	}
	return fmt.Sprintf("Water level has stayed at or above %gm at this station.", thresholdM)
}

func header(st domain.Station, place string) *StationHeader {
	return &StationHeader{
		ID:       st.ID,
		Name:     st.Name,
		District: st.District,
		State:    st.State,
		Lat:      st.Lat,
		Lon:      st.Lon,
		Place:    place,
	}
}
