package http

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/world-risk-etl/internal/dashboard"
	"github.com/couchcryptid/world-risk-etl/internal/domain"
)

type mapDataResponse struct {
	Metric     string              `json:"metric"`
	SnapshotID string              `json:"snapshot_id"`
	IngestedAt time.Time           `json:"ingested_at"`
	Records    []domain.RiskRecord `json:"records"`
	Errors     []domain.RowError   `json:"errors"`
	Unmapped   []string            `json:"unmapped_countries"`
}

func (s *Server) handleMapData(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("metric")
	if name == "" {
		writeError(w, http.StatusBadRequest, "Metric parameter is required")
		return
	}
	metric, ok := s.schema.ParseMetric(name)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid metric. Must be one of: "+strings.Join(s.schema.MetricNames(), ", "))
		return
	}

	snap, ok := s.snapshots.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "Risk data is not available yet")
		return
	}

	key := string(metric) + "|" + snap.ID
	if body, ok := s.cache.get(key); ok {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		writeBody(w, http.StatusOK, body)
		return
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	body, err := json.Marshal(mapDataResponse{
		Metric:     string(metric),
		SnapshotID: snap.ID,
		IngestedAt: snap.IngestedAt,
		Records:    rankByMetric(snap.Records, metric),
		Errors:     orEmpty(snap.Errors),
		Unmapped:   orEmpty(snap.Unmapped),
	})
	if err != nil {
		s.logger.Error("encode map data", "error", err, "metric", metric)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	body = append(body, '\n')
	s.cache.put(key, body)
	writeBody(w, http.StatusOK, body)
}

// rankByMetric returns a copy of records ordered by m descending, ties by country.
func rankByMetric(records []domain.RiskRecord, m domain.Metric) []domain.RiskRecord {
	out := make([]domain.RiskRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Score(m)
		b, _ := out[j].Score(m)
		if a != b {
			return a > b
		}
		return out[i].CountryCode < out[j].CountryCode
	})
	return out
}

func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	snap, ok := s.snapshots.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "Risk data is not available yet")
		return
	}

	rec, ok := snap.Find(s.names.Translate(name))
	if !ok {
		writeError(w, http.StatusNotFound, "Country not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dashboard.NewOverview())
}

func (s *Server) handleInitiatives(w http.ResponseWriter, r *http.Request) {
	status, err := dashboard.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status. Must be one of: All, In Progress, Planning, Completed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      status,
		"initiatives": dashboard.FilterInitiatives(status),
	})
}

func (s *Server) handleProjections(w http.ResponseWriter, r *http.Request) {
	p, err := dashboard.Projections(s.clock.Now(), r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range. Must be one of: "+strings.Join(dashboard.Ranges(), ", "))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
