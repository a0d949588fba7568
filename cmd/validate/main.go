// Command validate checks a World Risk Index CSV against its JSON records
// fixture. It re-reads the CSV independently of the ingestor and verifies row
// parity, score ranges, per-country deduplication and name canonicalization.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv data/mock/world_risk_index.csv \
//	  -json data/mock/world_risk_index_records.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/world-risk-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	csvPath   string
	jsonPath  string
	schema    domain.Schema
	binding   domain.Binding
	delimiter string
}

func main() {
	csvPath := flag.String("csv", "", "World Risk Index CSV")
	jsonPath := flag.String("json", "", "records fixture produced by genmock")
	schemaName := flag.String("schema", "wri", "metric schema: wri or legacy")
	binding := flag.String("binding", "position", "column binding: position or header")
	delimiter := flag.String("delimiter", ",", "field delimiter")
	flag.Parse()

	if *csvPath == "" || *jsonPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	schema, err := domain.SchemaByName(*schemaName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	b, err := domain.ParseBinding(*binding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(options{csvPath: *csvPath, jsonPath: *jsonPath, schema: schema, binding: b, delimiter: *delimiter}))
}

func run(opts options) int {
	fmt.Println("=== World Risk Data Integrity Validation ===")
	fmt.Println()

	raw, err := os.ReadFile(opts.csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read CSV: %v\n", err)
		return 1
	}
	table, err := loadTable(raw, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse CSV: %v\n", err)
		return 1
	}
	fixture, err := loadFixture(opts.jsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	names := domain.GermanCountryNames()
	res := domain.NewIngestor(
		domain.WithSchema(opts.schema),
		domain.WithBinding(opts.binding),
		domain.WithDelimiter(opts.delimiter),
		domain.WithCountryNames(names),
	).Ingest(string(raw))

	phases := []*phase{
		validateRowParity(table, res, fixture),
		validateFixtureMatch(res, fixture),
		validateScoreRange(fixture, opts.schema),
		validateDeduplication(table, res, fixture, names),
		validateCanonicalization(fixture, res, names),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d CSV, %d rejected, %d records, %d fixture records, %d unmapped\n",
		len(table.rows), len(res.Errors), len(res.Records), len(fixture), len(res.Unmapped))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is one non-empty data row. lineNum counts non-empty lines only,
// the header being line 1.
type csvRow struct {
	lineNum int
	fields  []string
}

type table struct {
	header     []string
	rows       []csvRow
	countryCol int
	yearCol    int
}

// loadTable reads the CSV with encoding/csv, independently of the ingestor.
func loadTable(raw []byte, opts options) (table, error) {
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if d, size := utf8.DecodeRuneInString(opts.delimiter); size == len(opts.delimiter) && size > 0 {
		r.Comma = d
	} else {
		return table{}, fmt.Errorf("delimiter %q is not a single character", opts.delimiter)
	}

	all, err := r.ReadAll()
	if err != nil {
		return table{}, err
	}
	if len(all) == 0 {
		return table{}, fmt.Errorf("empty CSV")
	}

	t := table{header: trimAll(all[0])}
	line := 1
	for _, row := range all[1:] {
		fields := trimAll(row)
		if len(fields) == 1 && fields[0] == "" {
			continue
		}
		line++
		t.rows = append(t.rows, csvRow{lineNum: line, fields: fields})
	}

	if opts.binding == domain.BindHeader {
		t.countryCol = columnIndex(t.header, "Country", "Region", "Land")
		t.yearCol = columnIndex(t.header, "Year", "Jahr")
	} else {
		t.countryCol = 0
		t.yearCol = len(opts.schema.Metrics) + 1
	}
	return t, nil
}

func loadFixture(path string) ([]domain.RiskRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []domain.RiskRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// ── Validation phases ──

func validateRowParity(t table, res domain.Result, fixture []domain.RiskRecord) *phase {
	p := &phase{name: "Phase 1: row parity"}

	if res.Rows != len(t.rows) {
		p.errorf("ingestor counted %d data rows, CSV has %d", res.Rows, len(t.rows))
	}
	if len(fixture) != len(res.Records) {
		p.errorf("fixture has %d records, ingestion produced %d", len(fixture), len(res.Records))
	}
	if len(res.Errors)+len(res.Records) > res.Rows {
		p.errorf("%d rejected plus %d records exceed %d rows", len(res.Errors), len(res.Records), res.Rows)
	}
	for _, e := range res.Errors {
		if e.Row < 1 || e.Row > t.lastLine() {
			p.errorf("rejected row %d is outside the file", e.Row)
		}
	}
	return p
}

func validateFixtureMatch(res domain.Result, fixture []domain.RiskRecord) *phase {
	p := &phase{name: "Phase 2: fixture matches ingestion"}
	if diff := cmp.Diff(fixture, res.Records); diff != "" {
		p.errorf("records differ (-fixture +ingested):\n%s", diff)
	}
	return p
}

func validateScoreRange(fixture []domain.RiskRecord, schema domain.Schema) *phase {
	p := &phase{name: "Phase 3: score range"}
	for _, rec := range fixture {
		if len(rec.Scores) != len(schema.Metrics) {
			p.errorf("%s: %d scores, schema %s has %d metrics", rec.CountryCode, len(rec.Scores), schema.Name, len(schema.Metrics))
		}
		for _, m := range schema.Metrics {
			v, ok := rec.Score(m)
			if !ok {
				p.errorf("%s: missing %s", rec.CountryCode, m)
				continue
			}
			if v < domain.MinScore || v > domain.MaxScore {
				p.errorf("%s: %s = %v outside [%v, %v]", rec.CountryCode, m, v, domain.MinScore, domain.MaxScore)
			}
		}
	}
	return p
}

func validateDeduplication(t table, res domain.Result, fixture []domain.RiskRecord, names *domain.CountryNames) *phase {
	p := &phase{name: "Phase 4: one record per country, latest year"}

	rejected := make(map[int]bool, len(res.Errors))
	for _, e := range res.Errors {
		rejected[e.Row] = true
	}

	latest := make(map[string]int)
	for _, row := range t.rows {
		if rejected[row.lineNum] || t.countryCol < 0 || t.yearCol < 0 {
			continue
		}
		if t.countryCol >= len(row.fields) || t.yearCol >= len(row.fields) {
			continue
		}
		year, err := strconv.Atoi(strings.ReplaceAll(row.fields[t.yearCol], " ", ""))
		if err != nil {
			p.errorf("line %d: accepted row has year %q", row.lineNum, row.fields[t.yearCol])
			continue
		}
		country := names.Translate(row.fields[t.countryCol])
		if y, ok := latest[country]; !ok || year > y {
			latest[country] = year
		}
	}

	seen := make(map[string]bool, len(fixture))
	for _, rec := range fixture {
		if seen[rec.CountryCode] {
			p.errorf("%s appears more than once", rec.CountryCode)
		}
		seen[rec.CountryCode] = true

		want, ok := latest[rec.CountryCode]
		if !ok {
			p.errorf("%s has no accepted CSV row", rec.CountryCode)
			continue
		}
		if rec.Year != want {
			p.errorf("%s: year %d, latest accepted row is %d", rec.CountryCode, rec.Year, want)
		}
	}
	for country := range latest {
		if !seen[country] {
			p.errorf("%s has accepted rows but no record", country)
		}
	}
	return p
}

func validateCanonicalization(fixture []domain.RiskRecord, res domain.Result, names *domain.CountryNames) *phase {
	p := &phase{name: "Phase 5: canonical country names"}

	unmapped := make(map[string]bool, len(res.Unmapped))
	for _, u := range res.Unmapped {
		unmapped[u] = true
	}
	for _, rec := range fixture {
		if names.Translate(rec.CountryCode) != rec.CountryCode {
			p.errorf("%s is a source label, expected %s", rec.CountryCode, names.Translate(rec.CountryCode))
		}
		if _, known := names.Lookup(rec.CountryCode); !known && !unmapped[rec.CountryCode] {
			p.errorf("%s is neither canonical nor reported as unmapped", rec.CountryCode)
		}
	}
	return p
}

// ── Helpers ──

func (t table) lastLine() int {
	if len(t.rows) == 0 {
		return 1
	}
	return t.rows[len(t.rows)-1].lineNum
}

func columnIndex(header []string, labels ...string) int {
	for i, h := range header {
		for _, l := range labels {
			if strings.EqualFold(h, l) {
				return i
			}
		}
	}
	return -1
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
