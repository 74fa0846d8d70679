package config

import (
	"path/filepath"
	"time"

	"github.com/specialistvlad/supplymart/internal/calendar"
	"github.com/specialistvlad/supplymart/internal/ingest"
	"github.com/specialistvlad/supplymart/internal/quality"
	"github.com/specialistvlad/supplymart/internal/staging"
)

// DefaultCalendar spans the years the reference data set covers.
var DefaultCalendar = calendar.Range{
	Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
}

// Model is the unified, format-agnostic representation of a mart build.
// Paths are absolute or relative to the working directory once loaded.
type Model struct {
	// RawDir is the directory source files are resolved against.
	RawDir   string
	Sources  []ingest.Source
	Calendar calendar.Range

	// Expectations override catalog rules by name.
	Expectations map[string]quality.Expectation
	// RowCounts add a row count rule per mart table.
	RowCounts map[string]quality.Expectation

	Export  Export
	Publish *Publish
}

// Export names the output files. Empty paths disable that output.
type Export struct {
	Workbook string
	Report   string
}

// Publish describes an optional MySQL target.
type Publish struct {
	DSN       string
	BatchSize int
}

// New returns an empty model with the default calendar.
func New() *Model {
	return &Model{
		Calendar:     DefaultCalendar,
		Expectations: make(map[string]quality.Expectation),
		RowCounts:    make(map[string]quality.Expectation),
	}
}

// DefaultSources declares every raw source as <name>.csv.
func DefaultSources() []ingest.Source {
	out := make([]ingest.Source, 0, len(staging.RawSources))
	for _, name := range staging.RawSources {
		out = append(out, ingest.Source{Name: name, Path: name + ".csv", Format: ingest.FormatCSV})
	}
	return out
}

// ResolvedSources returns the sources with relative paths joined to RawDir.
func (m *Model) ResolvedSources() []ingest.Source {
	out := make([]ingest.Source, len(m.Sources))
	for i, src := range m.Sources {
		if !filepath.IsAbs(src.Path) {
			src.Path = filepath.Join(m.RawDir, src.Path)
		}
		out[i] = src
	}
	return out
}
