// Package calendar builds the date dimension.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/supplymart/internal/mart"
)

// Range is an inclusive span of calendar days.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the day of t lies in the range.
func (r Range) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(r.Start)) && !d.After(Day(r.End))
}

// Days is the number of days in the range.
func (r Range) Days() int {
	return int(Day(r.End).Sub(Day(r.Start)).Hours()/24) + 1
}

func (r Range) String() string {
	return Day(r.Start).Format(time.DateOnly) + ".." + Day(r.End).Format(time.DateOnly)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Quarter returns 1 to 4.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// YearQuarter formats t as "YYYY-Qn".
func YearQuarter(t time.Time) string {
	return fmt.Sprintf("%d-Q%d", t.Year(), Quarter(t))
}

// Build returns one row per day of the range, in order.
func Build(r Range) ([]mart.Date, error) {
	if r.Start.IsZero() || r.End.IsZero() {
		return nil, errors.New("calendar range needs a start and an end")
	}
	start, end := Day(r.Start), Day(r.End)
	if end.Before(start) {
		return nil, fmt.Errorf("calendar end %s is before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	out := make([]mart.Date, 0, r.Days())
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, mart.Date{
			DateKey:     d,
			Year:        d.Year(),
			Quarter:     Quarter(d),
			Month:       int(d.Month()),
			DayOfMonth:  d.Day(),
			DayOfWeek:   int(d.Weekday()),
			MonthName:   d.Month().String(),
			DayName:     d.Weekday().String(),
			YearQuarter: YearQuarter(d),
		})
	}
	return out, nil
}
