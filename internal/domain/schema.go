package domain

import (
	"fmt"
	"strings"
)

// Metric names one score column of a risk table.
type Metric string

const (
	MetricWorldRiskIndex   Metric = "World Risk Index"
	MetricExposure         Metric = "Exposure"
	MetricVulnerability    Metric = "Vulnerability"
	MetricSusceptibility   Metric = "Susceptibility"
	MetricLackOfCoping     Metric = "Lack of Coping Capabilities"
	MetricLackOfAdaptive   Metric = "Lack of Adaptive Capacities"
	MetricNaturalDisasters Metric = "Natural Disasters"
	MetricInfrastructure   Metric = "Infrastructure"
)

// Schema is a closed, ordered set of metrics. The order is the positional
// column order between the country and year columns.
type Schema struct {
	Name    string
	Metrics []Metric

	// Headers lists accepted header labels per metric for header binding,
	// compared case-insensitively. The metric name itself is always accepted.
	Headers map[Metric][]string
}

// WorldRiskIndexSchema is the canonical six-metric schema.
var WorldRiskIndexSchema = Schema{
	Name: "wri",
	Metrics: []Metric{
		MetricWorldRiskIndex,
		MetricExposure,
		MetricVulnerability,
		MetricSusceptibility,
		MetricLackOfCoping,
		MetricLackOfAdaptive,
	},
	Headers: map[Metric][]string{
		MetricWorldRiskIndex: {"WRI"},
		MetricLackOfCoping:   {"Coping", "Lack of Coping"},
		MetricLackOfAdaptive: {"Adaptive", "Adaptation", "Lack of Adaptive"},
	},
}

// LegacySchema is the older three-metric feed.
var LegacySchema = Schema{
	Name: "legacy",
	Metrics: []Metric{
		MetricWorldRiskIndex,
		MetricNaturalDisasters,
		MetricInfrastructure,
	},
	Headers: map[Metric][]string{
		MetricWorldRiskIndex:   {"WRI"},
		MetricNaturalDisasters: {"Exposure"},
		MetricInfrastructure:   {"Vulnerability"},
	},
}

var (
	countryHeaders = []string{"Country", "Region", "Land"}
	yearHeaders    = []string{"Year", "Jahr"}
)

// SchemaByName resolves a configured schema name.
func SchemaByName(name string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", WorldRiskIndexSchema.Name:
		return WorldRiskIndexSchema, nil
	case LegacySchema.Name:
		return LegacySchema, nil
	default:
		return Schema{}, fmt.Errorf("unknown schema %q", name)
	}
}

// ParseMetric returns the schema metric whose name equals s exactly.
func (s Schema) ParseMetric(name string) (Metric, bool) {
	for _, m := range s.Metrics {
		if string(m) == name {
			return m, true
		}
	}
	return "", false
}

// MetricNames returns the metric names in schema order.
func (s Schema) MetricNames() []string {
	names := make([]string, len(s.Metrics))
	for i, m := range s.Metrics {
		names[i] = string(m)
	}
	return names
}

// headerLabels returns every label accepted for metric m.
func (s Schema) headerLabels(m Metric) []string {
	return append([]string{string(m)}, s.Headers[m]...)
}
