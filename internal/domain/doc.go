// Package domain models World Risk Index (WRI) country tables and the rules
// for turning them into one validated record per country.
//
// # Data Source
//
// The WorldRiskReport publishes the index as a delimited table with one row
// per country and observation year. The dashboard ships a German-language
// export of that table, so country labels arrive as German names
// ("Philippinen", "Deutschland") and are canonicalized to English before they
// are used as a join key against map geometries and other datasets.
//
// # Table Layout
//
// The primary export is bound by position, not by header name:
//
//	<Country>,<WRI>,<Exposure>,<Vulnerability>,<Susceptibility>,<Coping>,<Adaptive>,<Year>
//
// The header row is still required; it is skipped for binding and consulted
// only to name the failing column in row errors. An alternate export carries
// headers such as "Region" and "WRI" and is read with [BindHeader].
//
// Metric schemas:
//
//	wri:    World Risk Index, Exposure, Vulnerability, Susceptibility,
//	        Lack of Coping Capabilities, Lack of Adaptive Capacities
//	legacy: World Risk Index, Natural Disasters, Infrastructure
//
// The wri schema is canonical. The legacy schema exists for an older
// three-column feed and is selected explicitly.
//
// # Source Data Conventions
//
// Blank lines, including the trailing newline, are skipped and do not count
// as rows. Row numbers in errors are 1-based file lines counting the header,
// so the first data row is row 2.
//
// Some numeric fields carry embedded whitespace ("9 .64"). Whitespace is
// stripped from every numeric field before parsing.
//
// Every score is a finite number in [0, 100]. A row with any score outside
// that range, any unparseable score, a non-integer year, or the wrong number
// of fields is rejected as a whole and reported as a [RowError].
//
// # Deduplication
//
// A country may appear once per observation year. Only the most recent year
// survives; a later row replaces an earlier one only when its year is
// strictly greater, so on equal years the first row read is kept. Output
// order is the order in which each canonical country was first seen.
package domain
