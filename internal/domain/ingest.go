package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Binding selects how data columns are bound to fields.
type Binding string

const (
	// BindPosition reads country, metrics in schema order, then year.
	BindPosition Binding = "position"
	// BindHeader resolves each column by its header label.
	BindHeader Binding = "header"
)

// ParseBinding resolves a configured binding name.
func ParseBinding(s string) (Binding, error) {
	switch Binding(strings.ToLower(strings.TrimSpace(s))) {
	case "", BindPosition:
		return BindPosition, nil
	case BindHeader:
		return BindHeader, nil
	default:
		return "", fmt.Errorf("unknown binding %q", s)
	}
}

// Result is the outcome of one ingestion.
type Result struct {
	// Records holds one record per canonical country in first-seen order.
	Records []RiskRecord
	// Errors holds every rejected row in file order.
	Errors []RowError
	// Unmapped lists source country names with no translation, sorted.
	Unmapped []string
	// Rows counts the data rows read, valid or not.
	Rows int
}

// Err applies a failure policy. Under PolicyStrict any row error fails the
// ingestion with a *ValidationError; under PolicyPartial it returns nil.
func (r Result) Err(policy FailurePolicy) error {
	if policy == PolicyStrict && len(r.Errors) > 0 {
		errs := make([]RowError, len(r.Errors))
		copy(errs, r.Errors)
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Ingestor turns delimited risk tables into validated, deduplicated records.
// It holds only read-only configuration and is safe for concurrent use.
type Ingestor struct {
	schema    Schema
	delimiter string
	binding   Binding
	names     *CountryNames
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithSchema sets the metric schema. Defaults to WorldRiskIndexSchema.
func WithSchema(s Schema) Option {
	return func(in *Ingestor) { in.schema = s }
}

// WithDelimiter sets the field delimiter. Defaults to ",".
func WithDelimiter(d string) Option {
	return func(in *Ingestor) {
		if d != "" {
			in.delimiter = d
		}
	}
}

// WithBinding sets the column binding mode. Defaults to BindPosition.
func WithBinding(b Binding) Option {
	return func(in *Ingestor) { in.binding = b }
}

// WithCountryNames sets the translation table. Defaults to GermanCountryNames.
func WithCountryNames(n *CountryNames) Option {
	return func(in *Ingestor) {
		if n != nil {
			in.names = n
		}
	}
}

// NewIngestor creates an Ingestor with the given options applied over defaults.
func NewIngestor(opts ...Option) *Ingestor {
	in := &Ingestor{
		schema:    WorldRiskIndexSchema,
		delimiter: ",",
		binding:   BindPosition,
		names:     GermanCountryNames(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Schema returns the metric schema the ingestor validates against.
func (in *Ingestor) Schema() Schema {
	return in.schema
}

// layout maps record fields to column indexes for one table.
type layout struct {
	country int
	year    int
	metrics []int
	fields  int
}

// Ingest parses raw, validates every data row and keeps the most recent
// record per canonical country. Malformed rows never abort the ingestion;
// they are collected in Result.Errors.
func (in *Ingestor) Ingest(raw string) Result {
	res := Result{
		Records:  []RiskRecord{},
		Errors:   []RowError{},
		Unmapped: []string{},
	}

	lines := nonEmptyLines(raw)
	if len(lines) == 0 {
		return res
	}

	headers := splitFields(lines[0], in.delimiter)
	lay, headerErr := in.layout(headers)
	if headerErr != nil {
		res.Rows = len(lines) - 1
		res.Errors = append(res.Errors, *headerErr)
		return res
	}

	acc := newAccumulator()
	unmapped := make(map[string]struct{})

	for i, line := range lines[1:] {
		res.Rows++
		rec, rowErr := in.parseRow(i+2, splitFields(line, in.delimiter), headers, lay)
		if rowErr != nil {
			res.Errors = append(res.Errors, *rowErr)
			continue
		}

		canonical, ok := in.names.Lookup(rec.CountryCode)
		if !ok {
			unmapped[rec.CountryCode] = struct{}{}
		}
		rec.CountryCode = canonical
		acc.upsert(rec)
	}

	res.Records = acc.records
	for name := range unmapped {
		res.Unmapped = append(res.Unmapped, name)
	}
	sort.Strings(res.Unmapped)
	return res
}

func (in *Ingestor) layout(headers []string) (layout, *RowError) {
	n := len(in.schema.Metrics)
	if in.binding != BindHeader {
		lay := layout{country: 0, year: n + 1, metrics: make([]int, n), fields: n + 2}
		for i := range in.schema.Metrics {
			lay.metrics[i] = i + 1
		}
		return lay, nil
	}

	lay := layout{metrics: make([]int, n), fields: len(headers)}
	var missing []string

	if lay.country = indexOf(headers, countryHeaders); lay.country < 0 {
		missing = append(missing, countryHeaders[0])
	}
	for i, m := range in.schema.Metrics {
		if lay.metrics[i] = indexOf(headers, in.schema.headerLabels(m)); lay.metrics[i] < 0 {
			missing = append(missing, string(m))
		}
	}
	if lay.year = indexOf(headers, yearHeaders); lay.year < 0 {
		missing = append(missing, yearHeaders[0])
	}

	if len(missing) > 0 {
		return layout{}, &RowError{
			Row:    1,
			Reason: "missing required columns: " + strings.Join(missing, ", "),
		}
	}
	return lay, nil
}

func (in *Ingestor) parseRow(row int, fields, headers []string, lay layout) (RiskRecord, *RowError) {
	if len(fields) != lay.fields {
		return RiskRecord{}, &RowError{
			Row:    row,
			Reason: fmt.Sprintf("expected %d fields, got %d", lay.fields, len(fields)),
		}
	}

	country := fields[lay.country]
	if country == "" {
		return RiskRecord{}, &RowError{Row: row, Field: headerAt(headers, lay.country, "Country"), Reason: "missing country name"}
	}

	scores := make(map[Metric]float64, len(in.schema.Metrics))
	for i, m := range in.schema.Metrics {
		idx := lay.metrics[i]
		value := fields[idx]
		field := headerAt(headers, idx, string(m))

		score, err := parseScore(value)
		if err != nil {
			return RiskRecord{}, &RowError{
				Row:    row,
				Field:  field,
				Value:  value,
				Reason: fmt.Sprintf("Invalid %s score: not a number (value: %s)", m, value),
			}
		}
		if score < MinScore || score > MaxScore {
			return RiskRecord{}, &RowError{
				Row:    row,
				Field:  field,
				Value:  value,
				Reason: fmt.Sprintf("Invalid %s score: must be between 0 and 100 (value: %s)", m, strconv.FormatFloat(score, 'f', -1, 64)),
			}
		}
		scores[m] = score
	}

	yearValue := fields[lay.year]
	year, err := strconv.Atoi(stripSpaces(yearValue))
	if err != nil {
		return RiskRecord{}, &RowError{
			Row:    row,
			Field:  headerAt(headers, lay.year, "Year"),
			Value:  yearValue,
			Reason: fmt.Sprintf("Invalid year: not a number (value: %s)", yearValue),
		}
	}

	return RiskRecord{CountryCode: country, Scores: scores, Year: year}, nil
}

// accumulator keeps the most recent record per country in first-seen order.
type accumulator struct {
	index   map[string]int
	records []RiskRecord
}

func newAccumulator() *accumulator {
	return &accumulator{index: make(map[string]int), records: []RiskRecord{}}
}

func (a *accumulator) upsert(rec RiskRecord) {
	if i, ok := a.index[rec.CountryCode]; ok {
		if a.records[i].Year < rec.Year {
			a.records[i] = rec
		}
		return
	}
	a.index[rec.CountryCode] = len(a.records)
	a.records = append(a.records, rec)
}

// nonEmptyLines drops blank lines. Kept lines lose only their trailing \r;
// a whitespace delimiter at either end still separates an empty field.
func nonEmptyLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSuffix(line, "\r"))
		}
	}
	return lines
}

// parseScore reads a decimal score. Hex literals and NaN are rejected and
// negative zero reads as zero.
func parseScore(value string) (float64, error) {
	s := stripSpaces(value)
	if strings.ContainsAny(s, "xX") {
		return 0, fmt.Errorf("not a decimal number: %q", value)
	}
	score, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(score) {
		return 0, fmt.Errorf("not a number: %q", value)
	}
	if score == 0 {
		score = 0
	}
	return score, nil
}

func splitFields(line, delimiter string) []string {
	fields := strings.Split(line, delimiter)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// stripSpaces removes all whitespace, including whitespace inside the value.
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func indexOf(headers, labels []string) int {
	for i, h := range headers {
		for _, label := range labels {
			if strings.EqualFold(h, label) {
				return i
			}
		}
	}
	return -1
}

func headerAt(headers []string, i int, fallback string) string {
	if i >= 0 && i < len(headers) && headers[i] != "" {
		return headers[i]
	}
	return fallback
}
