package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/supplymart/internal/ctxlog"
	"github.com/xuri/excelize/v2"
)

// Format is the on-disk encoding of a source.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Source is one named raw input.
type Source struct {
	Name   string
	Path   string
	Format Format
}

// Record is one raw row keyed by column name.
type Record map[string]string

// Value returns the raw text of a column and whether the source has that
// column at all.
func (r Record) Value(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}

// MissingInputError reports a declared source whose file does not exist.
type MissingInputError struct {
	Source string
	Path   string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("raw source %q not found at %s", e.Source, e.Path)
}

// DetectFormat picks a format from the file extension, defaulting to CSV.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Load reads every row of a source. A missing file is reported as a
// *MissingInputError so callers can decide to skip it.
func Load(ctx context.Context, src Source) ([]Record, error) {
	logger := ctxlog.FromContext(ctx)

	if _, err := os.Stat(src.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingInputError{Source: src.Name, Path: src.Path}
		}
		return nil, fmt.Errorf("stat source %q: %w", src.Name, err)
	}

	format := src.Format
	if format == "" {
		format = DetectFormat(src.Path)
	}

	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(src.Path)
	case FormatXLSX:
		rows, err = readXLSX(src.Path)
	default:
		return nil, fmt.Errorf("source %q: unsupported format %q", src.Name, format)
	}
	if err != nil {
		return nil, fmt.Errorf("read source %q: %w", src.Name, err)
	}

	records, err := toRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", src.Name, err)
	}
	logger.Debug("Raw source read.", "source", src.Name, "format", format, "rows", len(records))
	return records, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func toRecords(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}

	header := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(header))
	for i, h := range rows[0] {
		name := normaliseHeader(h)
		if name == "" {
			return nil, fmt.Errorf("header column %d is blank", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate header column %q", name)
		}
		seen[name] = true
		header[i] = name
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec := make(Record, len(header))
		for i, name := range header {
			// Spreadsheet rows drop trailing empty cells.
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func normaliseHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
