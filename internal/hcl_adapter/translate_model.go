// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/supplymart/internal/calendar"
	"github.com/specialistvlad/supplymart/internal/config"
	"github.com/specialistvlad/supplymart/internal/ctxlog"
	"github.com/specialistvlad/supplymart/internal/ingest"
)

// merger folds decoded files into one model. Singleton blocks may appear in
// only one file; labelled blocks must be unique across all files.
type merger struct {
	model    *config.Model
	declared map[string]string
}

func newMerger() *merger {
	return &merger{model: config.New(), declared: make(map[string]string)}
}

// claim records that file declares key, failing if another file already did.
func (m *merger) claim(key, file string) error {
	if prev, ok := m.declared[key]; ok {
		return fmt.Errorf("%s is declared in both %s and %s", key, prev, file)
	}
	m.declared[key] = file
	return nil
}

// resolve makes a relative path relative to dir.
func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (m *merger) merge(ctx context.Context, file string, root *fileRoot, evalCtx *hcl.EvalContext) error {
	logger := ctxlog.FromContext(ctx).With("file", file)
	dir := filepath.Dir(file)

	if root.Warehouse != nil {
		if err := m.claim("warehouse block", file); err != nil {
			return err
		}
		m.model.RawDir = resolve(dir, root.Warehouse.RawDir)
	}

	for _, s := range root.Sources {
		if err := m.claim(fmt.Sprintf("source %q", s.Name), file); err != nil {
			return err
		}
		src, err := translateSource(s)
		if err != nil {
			return err
		}
		m.model.Sources = append(m.model.Sources, src)
	}

	if root.Calendar != nil {
		if err := m.claim("calendar block", file); err != nil {
			return err
		}
		r, err := translateCalendar(root.Calendar)
		if err != nil {
			return err
		}
		m.model.Calendar = r
	}

	for _, b := range root.Expects {
		if err := m.claim(fmt.Sprintf("expect %q", b.Name), file); err != nil {
			return err
		}
		e, err := expectation(b, evalCtx)
		if err != nil {
			return fmt.Errorf("expect %w", err)
		}
		m.model.Expectations[b.Name] = e
	}

	for _, b := range root.RowCounts {
		if err := m.claim(fmt.Sprintf("row_count %q", b.Name), file); err != nil {
			return err
		}
		e, err := expectation(b, evalCtx)
		if err != nil {
			return fmt.Errorf("row_count %w", err)
		}
		m.model.RowCounts[b.Name] = e
	}

	if root.Export != nil {
		if err := m.claim("export block", file); err != nil {
			return err
		}
		m.model.Export = config.Export{
			Workbook: resolve(dir, root.Export.Workbook),
			Report:   resolve(dir, root.Export.Report),
		}
	}

	if root.Publish != nil {
		if err := m.claim("publish block", file); err != nil {
			return err
		}
		m.model.Publish = &config.Publish{DSN: root.Publish.DSN, BatchSize: root.Publish.BatchSize}
	}

	logger.Debug("Merged HCL file.", "sources", len(root.Sources), "expectations", len(root.Expects), "row_counts", len(root.RowCounts))
	return nil
}

// translateSource keeps the file path as written; it is resolved against the
// raw directory when the build starts.
func translateSource(s *sourceBlock) (ingest.Source, error) {
	src := ingest.Source{Name: s.Name, Path: s.File, Format: ingest.DetectFormat(s.File)}
	switch s.Format {
	case "":
	case string(ingest.FormatCSV), string(ingest.FormatXLSX):
		src.Format = ingest.Format(s.Format)
	default:
		return src, fmt.Errorf("source %q: unknown format %q", s.Name, s.Format)
	}
	return src, nil
}

func translateCalendar(c *calendarBlock) (calendar.Range, error) {
	start, err := time.Parse(time.DateOnly, c.Start)
	if err != nil {
		return calendar.Range{}, fmt.Errorf("calendar start: %w", err)
	}
	end, err := time.Parse(time.DateOnly, c.End)
	if err != nil {
		return calendar.Range{}, fmt.Errorf("calendar end: %w", err)
	}
	return calendar.Range{Start: start, End: end}, nil
}
