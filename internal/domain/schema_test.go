package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaByName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		metrics  int
	}{
		{"", "wri", 6},
		{"wri", "wri", 6},
		{" WRI ", "wri", 6},
		{"legacy", "legacy", 3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, err := SchemaByName(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s.Name)
			assert.Len(t, s.Metrics, tt.metrics)
		})
	}

	_, err := SchemaByName("v2")
	assert.Error(t, err)
}

func TestSchema_ParseMetric(t *testing.T) {
	m, ok := WorldRiskIndexSchema.ParseMetric("Lack of Coping Capabilities")
	assert.True(t, ok)
	assert.Equal(t, MetricLackOfCoping, m)

	_, ok = WorldRiskIndexSchema.ParseMetric("Natural Disasters")
	assert.False(t, ok)

	_, ok = WorldRiskIndexSchema.ParseMetric("exposure")
	assert.False(t, ok, "metric names are matched exactly")

	m, ok = LegacySchema.ParseMetric("Infrastructure")
	assert.True(t, ok)
	assert.Equal(t, MetricInfrastructure, m)
}

func TestSchema_MetricNames(t *testing.T) {
	assert.Equal(t, []string{"World Risk Index", "Natural Disasters", "Infrastructure"}, LegacySchema.MetricNames())
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := ParseFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyPartial, p)

	p, err = ParseFailurePolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParseFailurePolicy("lenient")
	assert.Error(t, err)
}

func TestNewSnapshot(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	res := NewIngestor().Ingest(table(
		"Philippinen,46.82,29.6,61.66,55.17,68.85,61.15,2023",
		"Wakanda,10,10,10,10,10,10,2023",
		"Deutschland,x,9.24,21.33,9.64,18.68,39.28,2023",
	))

	snap := NewSnapshot("snap-1", "data/world_risk_index.csv", WorldRiskIndexSchema, res)

	assert.Equal(t, "snap-1", snap.ID)
	assert.Equal(t, "wri", snap.Schema)
	assert.Equal(t, fixed, snap.IngestedAt)
	assert.Equal(t, 3, snap.Rows)
	assert.Len(t, snap.Records, 2)
	assert.Len(t, snap.Errors, 1)
	assert.Equal(t, []string{"Wakanda"}, snap.Unmapped)

	rec, ok := snap.Find("Philippines")
	require.True(t, ok)
	assert.Equal(t, 2023, rec.Year)

	v, ok := rec.Score(MetricExposure)
	assert.True(t, ok)
	assert.Equal(t, 29.6, v)

	_, ok = snap.Find("Philippinen")
	assert.False(t, ok)
}
