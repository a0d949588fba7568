package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Score bounds shared by every metric.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// RiskRecord is the validated, canonicalized record for one country.
type RiskRecord struct {
	CountryCode string             `json:"country"`
	Scores      map[Metric]float64 `json:"scores"`
	Year        int                `json:"year"`
}

// Score returns the value of metric m, if the record carries it.
func (r RiskRecord) Score(m Metric) (float64, bool) {
	v, ok := r.Scores[m]
	return v, ok
}

// Source is raw delimited text handed to the ingestor by an extractor.
type Source struct {
	Name      string
	Body      string
	FetchedAt time.Time
}

// Snapshot is one published ingestion: the records consumers read plus the
// diagnostics produced while building them. Snapshots are immutable.
type Snapshot struct {
	ID         string       `json:"id"`
	Source     string       `json:"source"`
	Schema     string       `json:"schema"`
	IngestedAt time.Time    `json:"ingested_at"`
	Rows       int          `json:"rows"`
	Records    []RiskRecord `json:"records"`
	Errors     []RowError   `json:"errors"`
	Unmapped   []string     `json:"unmapped_countries"`
}

// snapshotClock stamps IngestedAt.
var snapshotClock clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the clock NewSnapshot reads; nil restores wall time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	snapshotClock = c
}

// NewSnapshot stamps an ingestion result with an id, its source and the current time.
func NewSnapshot(id, source string, schema Schema, res Result) Snapshot {
	return Snapshot{
		ID:         id,
		Source:     source,
		Schema:     schema.Name,
		IngestedAt: snapshotClock.Now().UTC(),
		Rows:       res.Rows,
		Records:    res.Records,
		Errors:     res.Errors,
		Unmapped:   res.Unmapped,
	}
}

// Find returns the record for a canonical country code.
func (s Snapshot) Find(countryCode string) (RiskRecord, bool) {
	for _, r := range s.Records {
		if r.CountryCode == countryCode {
			return r, true
		}
	}
	return RiskRecord{}, false
}
