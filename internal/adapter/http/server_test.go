package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/world-risk-etl/internal/adapter/http"
	"github.com/couchcryptid/world-risk-etl/internal/adapter/memory"
	"github.com/couchcryptid/world-risk-etl/internal/domain"
	"github.com/couchcryptid/world-risk-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

var testNow = time.Date(2024, time.May, 15, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	srv     *httpadapter.Server
	store   *memory.Store
	metrics *observability.Metrics
	clock   *clockwork.FakeClock
}

func newTestEnv(t *testing.T, readyErr error, opts httpadapter.Options) testEnv {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testNow)
	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS = 1000
	}
	opts.Clock = clock
	store := memory.NewStore()
	metrics := observability.NewMetricsForTesting()
	srv := httpadapter.NewServer(opts, store, &mockReadiness{err: readyErr}, metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return testEnv{srv: srv, store: store, metrics: metrics, clock: clock}
}

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(httpadapter.Options{Addr: ":0", RateLimitRPS: 1000}, memory.NewStore(), &mockReadiness{err: readyErr}, observability.NewMetricsForTesting(), slog.Default())
}

func (e testEnv) publish(t *testing.T, id string) domain.Snapshot {
	t.Helper()
	snap := domain.Snapshot{
		ID:         id,
		Schema:     "wri",
		IngestedAt: testNow,
		Records: []domain.RiskRecord{
			record("Germany", 3.32, 9.24),
			record("Philippines", 46.82, 29.6),
			record("Chile", 22.7, 29.6),
			record("Japan", 22.7, 40.1),
		},
		Errors:   []domain.RowError{{Row: 5, Field: "WRI", Value: "150", Reason: "Invalid World Risk Index score: must be between 0 and 100 (value: 150)"}},
		Unmapped: []string{"Atlantis"},
	}
	require.NoError(t, e.store.Load(context.Background(), snap))
	return snap
}

func record(country string, wri, exposure float64) domain.RiskRecord {
	return domain.RiskRecord{
		CountryCode: country,
		Year:        2023,
		Scores: map[domain.Metric]float64{
			domain.MetricWorldRiskIndex: wri,
			domain.MetricExposure:       exposure,
		},
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func mapDataURL(metric string) string {
	return "/api/map-data?metric=" + url.QueryEscape(metric)
}

type mapDataBody struct {
	Metric     string              `json:"metric"`
	SnapshotID string              `json:"snapshot_id"`
	IngestedAt time.Time           `json:"ingested_at"`
	Records    []domain.RiskRecord `json:"records"`
	Errors     []domain.RowError   `json:"errors"`
	Unmapped   []string            `json:"unmapped_countries"`
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(nil), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(fmt.Errorf("not ready yet")), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- map data ---

func TestMapData_MissingMetric(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})
	rec := get(t, env.srv, "/api/map-data")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Metric parameter is required", decode[map[string]string](t, rec)["error"])
}

func TestMapData_InvalidMetric(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})
	env.publish(t, "snap-1")

	for _, metric := range []string{"Fire", "world risk index", "Natural Disasters"} {
		rec := get(t, env.srv, mapDataURL(metric))
		assert.Equal(t, http.StatusBadRequest, rec.Code, metric)
		assert.Equal(t,
			"Invalid metric. Must be one of: World Risk Index, Exposure, Vulnerability, Susceptibility, Lack of Coping Capabilities, Lack of Adaptive Capacities",
			decode[map[string]string](t, rec)["error"])
	}
}

func TestMapData_LegacySchemaMetrics(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{Schema: domain.LegacySchema})
	rec := get(t, env.srv, mapDataURL("Exposure"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "Natural Disasters")
}

func TestMapData_NoSnapshotYet(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})
	rec := get(t, env.srv, mapDataURL("World Risk Index"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMapData_RankedByMetric(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})
	env.publish(t, "snap-1")

	rec := get(t, env.srv, mapDataURL("World Risk Index"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode[mapDataBody](t, rec)
	assert.Equal(t, "World Risk Index", body.Metric)
	assert.Equal(t, "snap-1", body.SnapshotID)
	assert.True(t, testNow.Equal(body.IngestedAt))
	assert.Equal(t, []string{"Atlantis"}, body.Unmapped)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, 5, body.Errors[0].Row)

	var order []string
	for _, r := range body.Records {
		order = append(order, r.CountryCode)
	}
	assert.Equal(t, []string{"Philippines", "Chile", "Japan", "Germany"}, order, "descending, ties by country")

	rec = get(t, env.srv, mapDataURL("Exposure"))
	body = decode[mapDataBody](t, rec)
	order = order[:0]
	for _, r := range body.Records {
		order = append(order, r.CountryCode)
	}
	assert.Equal(t, []string{"Japan", "Chile", "Philippines", "Germany"}, order)
}

func TestMapData_DoesNotReorderSnapshot(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})
	env.publish(t, "snap-1")

	get(t, env.srv, mapDataURL("World Risk Index"))

	snap, ok := env.store.Latest()
	require.True(t, ok)
	assert.Equal(t, "Germany", snap.Records[0].CountryCode)
}

func TestMapData_CachedPerSnapshot(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{CacheSize: 8, CacheTTL: time.Minute})
	env.publish(t, "snap-1")

	first := get(t, env.srv, mapDataURL("World Risk Index"))
	second := get(t, env.srv, mapDataURL("World Risk Index"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.CacheLookups.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.CacheLookups.WithLabelValues("hit")), 0)

	env.publish(t, "snap-2")
	third := get(t, env.srv, mapDataURL("World Risk Index"))
	assert.Equal(t, "snap-2", decode[mapDataBody](t, third).SnapshotID, "a new snapshot is never served from the old entry")
	assert.InDelta(t, 2, testutil.ToFloat64(env.metrics.CacheLookups.WithLabelValues("miss")), 0)
}

func TestMapData_CacheExpires(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{CacheSize: 8, CacheTTL: time.Minute})
	env.publish(t, "snap-1")

	get(t, env.srv, mapDataURL("Exposure"))
	env.clock.Advance(2 * time.Minute)
	get(t, env.srv, mapDataURL("Exposure"))

	assert.InDelta(t, 2, testutil.ToFloat64(env.metrics.CacheLookups.WithLabelValues("miss")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(env.metrics.CacheLookups.WithLabelValues("hit")), 0)
}

// --- countries ---

func TestCountry_ByCanonicalAndGermanName(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})
	env.publish(t, "snap-1")

	for _, name := range []string{"Germany", "Deutschland"} {
		rec := get(t, env.srv, "/api/countries/"+url.PathEscape(name))
		require.Equal(t, http.StatusOK, rec.Code, name)
		got := decode[domain.RiskRecord](t, rec)
		assert.Equal(t, "Germany", got.CountryCode)
		assert.InDelta(t, 3.32, got.Scores[domain.MetricWorldRiskIndex], 0)
	}
}

func TestCountry_NotFound(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})
	env.publish(t, "snap-1")

	rec := get(t, env.srv, "/api/countries/Atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Country not found: Atlantis", decode[map[string]string](t, rec)["error"])
}

func TestCountry_NoSnapshotYet(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})
	rec := get(t, env.srv, "/api/countries/Germany")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// --- dashboard ---

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})
	rec := get(t, env.srv, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]json.RawMessage](t, rec)
	for _, key := range []string{"locations", "top_risks", "kpis", "score_card", "map_markers"} {
		assert.Contains(t, body, key)
	}
	assert.JSONEq(t, `{"score":73,"trend":-7.35}`, string(body["score_card"]))
}

func TestInitiatives(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})

	type body struct {
		Status      string `json:"status"`
		Initiatives []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"initiatives"`
	}

	all := decode[body](t, get(t, env.srv, "/api/initiatives"))
	assert.Equal(t, "All", all.Status)
	assert.Len(t, all.Initiatives, 3)

	planning := decode[body](t, get(t, env.srv, "/api/initiatives?status=Planning"))
	require.Len(t, planning.Initiatives, 1)
	assert.Equal(t, "Waste Reduction Program", planning.Initiatives[0].Name)

	inProgress := decode[body](t, get(t, env.srv, "/api/initiatives?status="+url.QueryEscape("In Progress")))
	require.Len(t, inProgress.Initiatives, 1)
	assert.Equal(t, "In Progress", inProgress.Initiatives[0].Status)

	rec := get(t, env.srv, "/api/initiatives?status=Planned")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjections(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})

	type body struct {
		Range  string `json:"range"`
		Months int    `json:"months"`
		Points []struct {
			Date     string  `json:"date"`
			Baseline float64 `json:"baseline"`
			WithBoth float64 `json:"with_both"`
		} `json:"points"`
		YMax float64 `json:"y_max"`
	}

	def := decode[body](t, get(t, env.srv, "/api/projections"))
	assert.Equal(t, "1y", def.Range)
	require.Len(t, def.Points, 12)
	assert.Equal(t, "May 2024", def.Points[0].Date)
	assert.InDelta(t, 1_000_000, def.Points[0].Baseline, 1e-6)
	assert.InDelta(t, 3_000_000, def.YMax, 0)

	short := decode[body](t, get(t, env.srv, "/api/projections?range=3m"))
	assert.Equal(t, 3, short.Months)
	assert.InDelta(t, 2_000_000, short.YMax, 0)

	env.clock.Advance(31 * 24 * time.Hour)
	later := decode[body](t, get(t, env.srv, "/api/projections?range=3m"))
	assert.Equal(t, "Jun 2024", later.Points[0].Date, "series starts at the current month")

	rec := get(t, env.srv, "/api/projections?range=2w")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid range. Must be one of: 3m, 6m, 1y, 3y, 10y", decode[map[string]string](t, rec)["error"])
}

// --- routing and limits ---

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{})
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, nil, httpadapter.Options{RateLimitRPS: 2})

	assert.Equal(t, http.StatusOK, get(t, env.srv, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, env.srv, "/healthz").Code)

	rec := get(t, env.srv, "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests", decode[map[string]string](t, rec)["error"])
}
