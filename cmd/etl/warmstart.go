package main

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/world-risk-etl/internal/domain"
	"github.com/couchcryptid/world-risk-etl/internal/pipeline"
)

type latestSnapshot interface {
	Latest(ctx context.Context) (domain.Snapshot, bool, error)
}

// warmStart serves the newest archived snapshot until the first refresh.
// Snapshots of another schema are skipped: their metrics would all read 0.
func warmStart(ctx context.Context, archive latestSnapshot, store pipeline.Loader, schema domain.Schema, logger *slog.Logger) bool {
	snap, ok, err := archive.Latest(ctx)
	switch {
	case err != nil:
		logger.Warn("warm start failed", "error", err)
		return false
	case !ok:
		return false
	case snap.Schema != schema.Name:
		logger.Warn("warm start skipped, archived snapshot uses another schema",
			"snapshot_id", snap.ID, "snapshot_schema", snap.Schema, "schema", schema.Name)
		return false
	}

	if err := store.Load(ctx, snap); err != nil {
		logger.Warn("warm start failed", "snapshot_id", snap.ID, "error", err)
		return false
	}
	logger.Info("warm start from archive", "snapshot_id", snap.ID, "records", len(snap.Records))
	return true
}
