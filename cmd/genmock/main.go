// Command genmock ingests a World Risk Index CSV with the domain package and
// writes the resulting records as a JSON fixture, so test expectations always
// match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv data/mock/world_risk_index.csv \
//	  -out data/mock/world_risk_index_records.json \
//	  -snapshot-out /tmp/world_risk_index_snapshot.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/world-risk-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// fixtureTime stamps snapshots written by this tool.
var fixtureTime = time.Date(2024, time.January, 1, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "World Risk Index CSV to ingest")
	out := flag.String("out", "", "output path for the records fixture")
	snapshotOut := flag.String("snapshot-out", "", "optional output path for the full snapshot")
	schemaName := flag.String("schema", "wri", "metric schema: wri or legacy")
	binding := flag.String("binding", "position", "column binding: position or header")
	delimiter := flag.String("delimiter", ",", "field delimiter")
	flag.Parse()

	if *csvPath == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -out")
	}

	schema, err := domain.SchemaByName(*schemaName)
	if err != nil {
		return err
	}
	b, err := domain.ParseBinding(*binding)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(*csvPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", *csvPath, err)
	}

	// A fixed clock keeps ingested_at reproducible across runs.
	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	defer domain.SetClock(nil)

	ingestor := domain.NewIngestor(
		domain.WithSchema(schema),
		domain.WithBinding(b),
		domain.WithDelimiter(*delimiter),
	)
	res := ingestor.Ingest(string(raw))

	log.Printf("rows: %d, records: %d, rejected: %d, unmapped: %d",
		res.Rows, len(res.Records), len(res.Errors), len(res.Unmapped))
	for _, e := range res.Errors {
		log.Printf("  rejected %s", e.Error())
	}

	if err := writeJSON(*out, res.Records); err != nil {
		return err
	}
	log.Printf("wrote %s", *out)

	if *snapshotOut != "" {
		snap := domain.NewSnapshot("fixture", filepath.Base(*csvPath), schema, res)
		if err := writeJSON(*snapshotOut, snap); err != nil {
			return err
		}
		log.Printf("wrote %s", *snapshotOut)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
