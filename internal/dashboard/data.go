// Package dashboard serves the static widget data of the risk dashboard and
// its financial projection series.
package dashboard

import (
	"errors"
	"fmt"
)

// Trend is the direction a score moved since the previous period.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// Status is an initiative's lifecycle state.
type Status string

const (
	StatusAll        Status = "All"
	StatusInProgress Status = "In Progress"
	StatusPlanning   Status = "Planning"
	StatusCompleted  Status = "Completed"
)

// ErrUnknownStatus reports a status filter outside the known set.
var ErrUnknownStatus = errors.New("unknown status")

type Location struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Trend Trend  `json:"trend"`
}

type Risk struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Trend Trend  `json:"trend"`
	Icon  string `json:"icon"`
}

type KPI struct {
	Location string `json:"location"`
	Score    int    `json:"score"`
	Trend    Trend  `json:"trend"`
}

// ScoreCard is the overall preparedness score, 0 lowest and 100 highest.
// Trend is the percent change from last week.
type ScoreCard struct {
	Score int     `json:"score"`
	Trend float64 `json:"trend"`
}

type MapMarker struct {
	Name        string     `json:"name"`
	Coordinates [2]float64 `json:"coordinates"` // lon, lat
	Type        string     `json:"type"`
}

type SubInitiative struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	DueDate  string `json:"due_date"`
	POC      string `json:"poc"`
}

type Initiative struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Status         Status          `json:"status"`
	Progress       int             `json:"progress"`
	DueDate        string          `json:"due_date"`
	POC            string          `json:"poc"`
	SubInitiatives []SubInitiative `json:"sub_initiatives,omitempty"`
}

// Overview is everything the dashboard renders besides the map and projections.
type Overview struct {
	Locations []Location  `json:"locations"`
	TopRisks  []Risk      `json:"top_risks"`
	KPIs      []KPI       `json:"kpis"`
	ScoreCard ScoreCard   `json:"score_card"`
	Markers   []MapMarker `json:"map_markers"`
}

// NewOverview returns a fresh copy of the dashboard overview.
func NewOverview() Overview {
	return Overview{
		Locations: []Location{
			{Name: "New York", Score: 85, Trend: TrendUp},
			{Name: "Los Angeles", Score: 78, Trend: TrendDown},
			{Name: "Miami", Score: 92, Trend: TrendUp},
			{Name: "Chicago", Score: 75, Trend: TrendDown},
			{Name: "Houston", Score: 88, Trend: TrendUp},
		},
		TopRisks: []Risk{
			{Name: "Wildfire", Score: 85, Trend: TrendUp, Icon: "flame"},
			{Name: "Flooding", Score: 78, Trend: TrendDown, Icon: "droplets"},
			{Name: "Hurricanes", Score: 72, Trend: TrendUp, Icon: "wind"},
			{Name: "Power Outages", Score: 65, Trend: TrendDown, Icon: "zap"},
		},
		KPIs: []KPI{
			{Location: "New York", Score: 85, Trend: TrendUp},
			{Location: "Los Angeles", Score: 78, Trend: TrendDown},
			{Location: "Miami", Score: 92, Trend: TrendUp},
			{Location: "Chicago", Score: 75, Trend: TrendDown},
			{Location: "Houston", Score: 88, Trend: TrendUp},
		},
		ScoreCard: ScoreCard{Score: 73, Trend: -7.35},
		Markers: []MapMarker{
			{Name: "Hurricane Sandy", Coordinates: [2]float64{-74.006, 40.7128}, Type: "hurricane"},
			{Name: "Heat Wave", Coordinates: [2]float64{2.3522, 48.8566}, Type: "heatwave"},
			{Name: "Drought", Coordinates: [2]float64{138.2529, -34.9285}, Type: "drought"},
		},
	}
}

func initiatives() []Initiative {
	return []Initiative{
		{
			ID: 1, Name: "Climate Risk Assessment", Status: StatusInProgress, Progress: 75,
			DueDate: "2024-06-15", POC: "John Doe",
			SubInitiatives: []SubInitiative{
				{ID: 1, Name: "Data Collection", Status: StatusCompleted, Progress: 100, DueDate: "2024-03-15", POC: "Sarah Smith"},
				{ID: 2, Name: "Risk Analysis", Status: StatusInProgress, Progress: 60, DueDate: "2024-05-01", POC: "Mike Johnson"},
				{ID: 3, Name: "Report Generation", Status: StatusPlanning, Progress: 20, DueDate: "2024-06-10", POC: "Emily Brown"},
			},
		},
		{ID: 2, Name: "Waste Reduction Program", Status: StatusPlanning, Progress: 25, DueDate: "2024-07-30", POC: "Jane Doe"},
		{ID: 3, Name: "Carbon Offset Project", Status: StatusCompleted, Progress: 100, DueDate: "2024-05-01", POC: "Bob Smith"},
	}
}

// ParseStatus resolves a status filter. The empty string means StatusAll.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case "":
		return StatusAll, nil
	case StatusAll, StatusInProgress, StatusPlanning, StatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownStatus, s)
	}
}

// FilterInitiatives returns the top-level initiatives with the given status.
// Sub-initiatives are not filtered.
func FilterInitiatives(status Status) []Initiative {
	all := initiatives()
	if status == StatusAll {
		return all
	}
	out := make([]Initiative, 0, len(all))
	for _, in := range all {
		if in.Status == status {
			out = append(out, in)
		}
	}
	return out
}
