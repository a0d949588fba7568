package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput reports an ingestion that produced no records.
var ErrEmptyInput = errors.New("no records in input")

// RowError describes one rejected data row.
type RowError struct {
	Row    int    `json:"row"`
	Field  string `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// ValidationError aggregates every row error of a strict ingestion.
type ValidationError struct {
	Errors []RowError
}

func (e *ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "data validation failed"
	case 1:
		return "data validation failed: " + e.Errors[0].Error()
	default:
		return fmt.Sprintf("data validation failed: %d rows rejected, first: %s", len(e.Errors), e.Errors[0].Error())
	}
}

// Unwrap exposes the row errors to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i := range e.Errors {
		errs[i] = e.Errors[i]
	}
	return errs
}

// FailurePolicy decides whether row errors fail a whole ingestion.
type FailurePolicy string

const (
	// PolicyPartial keeps valid records and reports row errors alongside them.
	PolicyPartial FailurePolicy = "partial"
	// PolicyStrict fails the ingestion when any row was rejected.
	PolicyStrict FailurePolicy = "strict"
)

// ParseFailurePolicy resolves a configured policy name.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPartial:
		return PolicyPartial, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}
