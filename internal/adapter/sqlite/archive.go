// Package sqlite archives published snapshots so a restarted service can
// serve the last good data before its first refresh completes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/world-risk-etl/internal/domain"
	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Archive stores published snapshots in a SQLite database.
type Archive struct {
	db   *sql.DB
	keep int
}

// Open opens or creates the database at path and applies the schema.
// Use ":memory:" for a throwaway archive. When keep is positive only the
// newest keep snapshots are retained.
func Open(path string, keep int) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}

	a := &Archive{db: db, keep: keep}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return a, nil
}

func (a *Archive) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			schema_name TEXT NOT NULL,
			ingested_at TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			errors_json TEXT NOT NULL,
			unmapped_json TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS records (
			snapshot_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			country TEXT NOT NULL,
			year INTEGER NOT NULL,
			scores_json TEXT NOT NULL,
			PRIMARY KEY (snapshot_id, position),
			FOREIGN KEY (snapshot_id) REFERENCES snapshots(id)
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_ingested_at ON snapshots(ingested_at);
		CREATE INDEX IF NOT EXISTS idx_records_country ON records(country);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Load writes snap and its records in one transaction.
func (a *Archive) Load(ctx context.Context, snap domain.Snapshot) error {
	errorsJSON, err := json.Marshal(nonNil(snap.Errors))
	if err != nil {
		return fmt.Errorf("encode row errors: %w", err)
	}
	unmappedJSON, err := json.Marshal(nonNil(snap.Unmapped))
	if err != nil {
		return fmt.Errorf("encode unmapped: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, source, schema_name, ingested_at, row_count, errors_json, unmapped_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Source, snap.Schema, snap.IngestedAt.UTC().Format(timeLayout),
		snap.Rows, string(errorsJSON), string(unmappedJSON),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snap.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (snapshot_id, position, country, year, scores_json) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare records: %w", err)
	}
	defer stmt.Close()

	for i, rec := range snap.Records {
		scores, err := json.Marshal(rec.Scores)
		if err != nil {
			return fmt.Errorf("encode scores for %s: %w", rec.CountryCode, err)
		}
		if _, err := stmt.ExecContext(ctx, snap.ID, i, rec.CountryCode, rec.Year, string(scores)); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.CountryCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot %s: %w", snap.ID, err)
	}

	if a.keep > 0 {
		if _, err := a.Prune(ctx, a.keep); err != nil {
			return err
		}
	}
	return nil
}

// Latest returns the most recently ingested snapshot, or false if the archive is empty.
func (a *Archive) Latest(ctx context.Context) (domain.Snapshot, bool, error) {
	var id string
	err := a.db.QueryRowContext(ctx,
		`SELECT id FROM snapshots ORDER BY ingested_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("query latest snapshot: %w", err)
	}
	snap, err := a.Get(ctx, id)
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	return snap, true, nil
}

// ErrNotFound reports an unknown snapshot id.
var ErrNotFound = errors.New("snapshot not found")

// Get returns the snapshot with the given id.
func (a *Archive) Get(ctx context.Context, id string) (domain.Snapshot, error) {
	var (
		snap                   domain.Snapshot
		ingestedAt             string
		errorsJSON, unmappedJS string
	)
	err := a.db.QueryRowContext(ctx,
		`SELECT id, source, schema_name, ingested_at, row_count, errors_json, unmapped_json
		 FROM snapshots WHERE id = ?`, id,
	).Scan(&snap.ID, &snap.Source, &snap.Schema, &ingestedAt, &snap.Rows, &errorsJSON, &unmappedJS)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query snapshot %s: %w", id, err)
	}

	if snap.IngestedAt, err = time.Parse(timeLayout, ingestedAt); err != nil {
		return domain.Snapshot{}, fmt.Errorf("parse ingested_at: %w", err)
	}
	if err := json.Unmarshal([]byte(errorsJSON), &snap.Errors); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode row errors: %w", err)
	}
	if err := json.Unmarshal([]byte(unmappedJS), &snap.Unmapped); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode unmapped: %w", err)
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT country, year, scores_json FROM records WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	snap.Records = []domain.RiskRecord{}
	for rows.Next() {
		var (
			rec    domain.RiskRecord
			scores string
		)
		if err := rows.Scan(&rec.CountryCode, &rec.Year, &scores); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(scores), &rec.Scores); err != nil {
			return domain.Snapshot{}, fmt.Errorf("decode scores for %s: %w", rec.CountryCode, err)
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("iterate records: %w", err)
	}
	return snap, nil
}

// Prune deletes all but the newest keep snapshots and returns how many were removed.
func (a *Archive) Prune(ctx context.Context, keep int) (int64, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stale := `SELECT id FROM snapshots ORDER BY ingested_at DESC, rowid DESC LIMIT -1 OFFSET ?`
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE snapshot_id IN (`+stale+`)`, keep); err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id IN (`+stale+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return n, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
