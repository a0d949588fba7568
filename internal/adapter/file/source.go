// Package file reads risk tables from the local filesystem.
package file

import (
	"context"
	"fmt"
	"os"

	"github.com/couchcryptid/world-risk-etl/internal/domain"
)

// Source reads a delimited risk table from a file on every extraction.
type Source struct {
	path string
}

// NewSource creates a Source for path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Extract reads the whole file. FetchedAt is the file's modification time.
func (s *Source) Extract(ctx context.Context) (domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return domain.Source{}, err
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return domain.Source{}, fmt.Errorf("stat source: %w", err)
	}
	body, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Source{}, fmt.Errorf("read source: %w", err)
	}
	return domain.Source{Name: s.path, Body: string(body), FetchedAt: info.ModTime().UTC()}, nil
}
