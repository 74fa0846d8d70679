package staging

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/specialistvlad/supplymart/internal/ingest"
)

// MeasureScale is the most fractional digits a measure may carry. The mart
// stores measures as decimal(65,30), so anything finer would be rounded on
// publish.
const MeasureScale = 30

// dateLayouts are tried in order. Four-digit years come before two-digit ones.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/06",
	"2-Jan-06",
	"2-Jan-2006",
}

// ParseDate parses a calendar date in any accepted layout. The result is
// truncated to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ParseError locates a value that could not be staged.
type ParseError struct {
	Table  string
	Row    int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s row %d column %q: %v", e.Table, e.Row, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errBlank = errors.New("value is blank")

// row reads typed columns from one record. The first failure sticks and every
// later read returns a zero value.
type row struct {
	table string
	n     int
	rec   ingest.Record
	err   error
}

func (r *row) fail(column string, err error) {
	if r.err == nil {
		r.err = &ParseError{Table: r.table, Row: r.n, Column: column, Err: err}
	}
}

func (r *row) raw(column string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, ok := r.rec.Value(column)
	if !ok {
		r.fail(column, errors.New("column missing"))
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (r *row) text(column string) string {
	v, _ := r.raw(column)
	return v
}

// nullable returns nil for a blank value.
func (r *row) nullable(column string) *string {
	v, ok := r.raw(column)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func (r *row) required(column string) string {
	v, ok := r.raw(column)
	if ok && v == "" {
		r.fail(column, errBlank)
	}
	return v
}

func (r *row) integer(column string) int64 {
	v := r.required(column)
	if r.err != nil {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err == nil {
		return n
	}
	// Exported spreadsheets write integral numbers as "12.0".
	d, derr := decimal.NewFromString(v)
	if derr != nil || !d.IsInteger() {
		r.fail(column, fmt.Errorf("not an integer: %q", v))
		return 0
	}
	return d.IntPart()
}

func (r *row) batch(column string) int {
	return int(r.integer(column))
}

func (r *row) decimal(column string) decimal.Decimal {
	v := r.required(column)
	if r.err != nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		r.fail(column, fmt.Errorf("not a number: %q", v))
		return decimal.Zero
	}
	if !d.Equal(d.Truncate(MeasureScale)) {
		r.fail(column, fmt.Errorf("more than %d decimal places: %q", MeasureScale, v))
		return decimal.Zero
	}
	return d
}

func (r *row) date(column string) time.Time {
	v := r.required(column)
	if r.err != nil {
		return time.Time{}
	}
	t, err := ParseDate(v)
	if err != nil {
		r.fail(column, err)
	}
	return t
}

// parseAll stages every record of a raw table. Row numbers are 1-based and
// count data rows only.
func parseAll[T any](table string, records []ingest.Record, fn func(r *row) T) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, rec := range records {
		r := &row{table: table, n: i + 1, rec: rec}
		v := fn(r)
		if r.err != nil {
			return nil, r.err
		}
		out = append(out, v)
	}
	return out, nil
}
