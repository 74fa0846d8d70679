// Package export writes a finished mart to files for people to read: an
// XLSX workbook with one sheet per table and a YAML verification report.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/specialistvlad/supplymart/internal/mart"
	"github.com/specialistvlad/supplymart/internal/quality"
	"github.com/xuri/excelize/v2"
)

// QualitySheet is the sheet holding the verification outcomes.
const QualitySheet = "quality"

var (
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})
	timeType        = reflect.TypeOf(time.Time{})
)

// WriteWorkbook writes every mart table to its own sheet of an XLSX file at
// path. The first row of a sheet holds the column names. When report is not
// nil its outcomes are appended as a final sheet.
func WriteWorkbook(path string, m *mart.Mart, report *quality.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	tables := m.Tables()
	if err := f.SetSheetName("Sheet1", tables[0].Name); err != nil {
		return err
	}
	for i, t := range tables {
		if i > 0 {
			if _, err := f.NewSheet(t.Name); err != nil {
				return fmt.Errorf("sheet %s: %w", t.Name, err)
			}
		}
		if err := writeRows(f, t.Name, t.Rows); err != nil {
			return fmt.Errorf("sheet %s: %w", t.Name, err)
		}
	}

	if report != nil {
		if _, err := f.NewSheet(QualitySheet); err != nil {
			return err
		}
		if err := writeRows(f, QualitySheet, qualityRows(report)); err != nil {
			return fmt.Errorf("sheet %s: %w", QualitySheet, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(path)
}

type qualityRow struct {
	Rule        string `json:"rule"`
	Family      string `json:"family"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Observed    int    `json:"observed"`
	Expected    string `json:"expected"`
	Sample      string `json:"sample"`
}

func qualityRows(r *quality.Report) []qualityRow {
	rows := make([]qualityRow, len(r.Outcomes))
	for i, o := range r.Outcomes {
		rows[i] = qualityRow{
			Rule:        o.Rule,
			Family:      string(o.Family),
			Description: o.Description,
			Passed:      o.Passed,
			Observed:    o.Observed,
			Expected:    o.Expected,
			Sample:      strings.Join(o.Sample, ", "),
		}
	}
	return rows
}

// writeRows writes a slice of structs to sheet. Column names come from the
// json tags of the element type.
func writeRows(f *excelize.File, sheet string, rows any) error {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice || v.Type().Elem().Kind() != reflect.Struct {
		return fmt.Errorf("rows must be a slice of structs, got %T", rows)
	}

	header := columns(v.Type().Elem())
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i := 0; i < v.Len(); i++ {
		rec := v.Index(i)
		cells := make([]any, rec.NumField())
		for j := range cells {
			cells[j] = cell(rec.Field(j))
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return err
		}
	}
	return nil
}

func columns(t reflect.Type) []any {
	out := make([]any, t.NumField())
	for i := range out {
		field := t.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" {
			name = field.Name
		}
		out[i] = name
	}
	return out
}

// cell converts a field to a value excelize can store. Nil pointers and
// null decimals become blank cells.
func cell(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Type() {
	case decimalType:
		return v.Interface().(decimal.Decimal).InexactFloat64()
	case nullDecimalType:
		d := v.Interface().(decimal.NullDecimal)
		if !d.Valid {
			return nil
		}
		return d.Decimal.InexactFloat64()
	case timeType:
		return v.Interface().(time.Time).Format(time.DateOnly)
	}
	return v.Interface()
}
