package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/world-risk-etl/internal/domain"
	"github.com/google/uuid"
)

// RiskTransformer implements Transformer with a domain.Ingestor and a
// failure policy.
type RiskTransformer struct {
	ingestor *domain.Ingestor
	policy   domain.FailurePolicy
	logger   *slog.Logger
	newID    func() string
}

// NewTransformer creates a RiskTransformer. Snapshot ids are random UUIDs.
func NewTransformer(ingestor *domain.Ingestor, policy domain.FailurePolicy, logger *slog.Logger) *RiskTransformer {
	return &RiskTransformer{
		ingestor: ingestor,
		policy:   policy,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Transform ingests src. Under the strict policy any rejected row fails the
// whole source with a *domain.ValidationError. A source without valid
// records fails with domain.ErrEmptyInput.
func (t *RiskTransformer) Transform(_ context.Context, src domain.Source) (domain.Snapshot, error) {
	res := t.ingestor.Ingest(src.Body)

	for _, rowErr := range res.Errors {
		t.logger.Warn("row rejected",
			"source", src.Name,
			"row", rowErr.Row,
			"field", rowErr.Field,
			"reason", rowErr.Reason,
		)
	}
	if len(res.Unmapped) > 0 {
		t.logger.Info("country names without translation", "source", src.Name, "names", res.Unmapped)
	}

	if err := res.Err(t.policy); err != nil {
		return domain.Snapshot{}, err
	}
	if len(res.Records) == 0 {
		return domain.Snapshot{}, fmt.Errorf("%s: %w (%d rows, %d rejected)", src.Name, domain.ErrEmptyInput, res.Rows, len(res.Errors))
	}

	return domain.NewSnapshot(t.newID(), src.Name, t.ingestor.Schema(), res), nil
}
