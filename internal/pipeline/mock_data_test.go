package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/world-risk-etl/internal/adapter/file"
	"github.com/couchcryptid/world-risk-etl/internal/domain"
	"github.com/couchcryptid/world-risk-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockPath(name string) string {
	return filepath.Join("..", "..", "data", "mock", name)
}

func TestRiskTransformer_WithMockCSVData(t *testing.T) {
	src, err := file.NewSource(mockPath("world_risk_index.csv")).Extract(context.Background())
	require.NoError(t, err)

	tfm := pipeline.NewTransformer(domain.NewIngestor(), domain.PolicyPartial, discardLogger())
	snap, err := tfm.Transform(context.Background(), src)
	require.NoError(t, err)

	data, err := os.ReadFile(mockPath("world_risk_index_records.json"))
	require.NoError(t, err)
	var want []domain.RiskRecord
	require.NoError(t, json.Unmarshal(data, &want))

	if diff := cmp.Diff(want, snap.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	rows := make([]int, 0, len(snap.Errors))
	for _, e := range snap.Errors {
		rows = append(rows, e.Row)
	}
	assert.Equal(t, []int{16, 17, 19}, rows)
	assert.Equal(t, []string{"Atlantis"}, snap.Unmapped)
	assert.Equal(t, 19, snap.Rows)
}

func TestRiskTransformer_MockData_Invariants(t *testing.T) {
	src, err := file.NewSource(mockPath("world_risk_index.csv")).Extract(context.Background())
	require.NoError(t, err)

	snap, err := pipeline.NewTransformer(domain.NewIngestor(), domain.PolicyPartial, discardLogger()).
		Transform(context.Background(), src)
	require.NoError(t, err)

	seen := make(map[string]bool, len(snap.Records))
	for _, rec := range snap.Records {
		assert.False(t, seen[rec.CountryCode], "duplicate country %s", rec.CountryCode)
		seen[rec.CountryCode] = true

		for _, m := range domain.WorldRiskIndexSchema.Metrics {
			score, ok := rec.Score(m)
			require.True(t, ok, "%s missing %s", rec.CountryCode, m)
			assert.GreaterOrEqual(t, score, domain.MinScore)
			assert.LessOrEqual(t, score, domain.MaxScore)
		}
	}

	ph, ok := snap.Find("Philippines")
	require.True(t, ok)
	assert.Equal(t, 2024, ph.Year, "most recent row wins across German and English names")
}

func TestRiskTransformer_StampsSnapshot(t *testing.T) {
	tfm := pipeline.NewTransformer(domain.NewIngestor(domain.WithSchema(domain.LegacySchema)), domain.PolicyPartial, discardLogger())

	snap, err := tfm.Transform(context.Background(), domain.Source{
		Name: "legacy.csv",
		Body: "Country,WRI,Exposure,Vulnerability,Year\nJapan,22.00,40.10,12.30,2023\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "legacy", snap.Schema)
	assert.Equal(t, "legacy.csv", snap.Source)
	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.IngestedAt.IsZero())
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "Japan", snap.Records[0].CountryCode)
}
