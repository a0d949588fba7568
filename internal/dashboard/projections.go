package dashboard

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrUnknownRange reports a projection range outside the known set.
var ErrUnknownRange = errors.New("unknown range")

// DefaultRange is used when no range is requested.
const DefaultRange = "1y"

var rangeMonths = map[string]int{
	"3m":  3,
	"6m":  6,
	"1y":  12,
	"3y":  36,
	"10y": 120,
}

const (
	baseValue       = 1_000_000
	monthlyIncrease = 75_000
	variation       = 50_000
)

// ProjectionPoint is one month of the projection series.
type ProjectionPoint struct {
	Date              string  `json:"date"`
	FullDate          string  `json:"full_date"`
	Baseline          float64 `json:"baseline"`
	WithRisks         float64 `json:"with_risks"`
	WithOpportunities float64 `json:"with_opportunities"`
	WithBoth          float64 `json:"with_both"`
}

// Projection is a monthly financial impact series.
type Projection struct {
	Range  string            `json:"range"`
	Months int               `json:"months"`
	Points []ProjectionPoint `json:"points"`
	// YMax is the largest value rounded up to the next million.
	YMax float64 `json:"y_max"`
}

// Projections builds the series for rng starting at the month containing now.
func Projections(now time.Time, rng string) (Projection, error) {
	if rng == "" {
		rng = DefaultRange
	}
	months, ok := rangeMonths[rng]
	if !ok {
		return Projection{}, fmt.Errorf("%w %q", ErrUnknownRange, rng)
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	p := Projection{Range: rng, Months: months, Points: make([]ProjectionPoint, months)}

	var peak float64
	for i := range months {
		date := start.AddDate(0, i, 0)
		baseline := baseValue + float64(i)*monthlyIncrease + math.Sin(float64(i)*0.5)*variation
		pt := ProjectionPoint{
			Date:              date.Format("Jan 2006"),
			FullDate:          date.Format("January 2006"),
			Baseline:          baseline,
			WithRisks:         baseline * 1.2,
			WithOpportunities: baseline * 1.3,
			WithBoth:          baseline * 1.5,
		}
		peak = math.Max(peak, pt.WithBoth)
		p.Points[i] = pt
	}
	p.YMax = math.Ceil(peak/1_000_000) * 1_000_000
	return p, nil
}

// Ranges returns the accepted range keys, shortest first.
func Ranges() []string {
	return []string{"3m", "6m", "1y", "3y", "10y"}
}
