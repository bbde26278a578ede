package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Date is a calendar day. The wrapped time is always midnight UTC so that
// comparisons ignore time of day.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day. Out-of-range values are
// normalized the way time.Date does it.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// ParseMonth parses a YYYY-MM month and returns its first day.
func ParseMonth(s string) (Date, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return DateOf(t), nil
}

// DaysIn returns the number of days of the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero (used for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// AddMonths moves n calendar months, clamping the day to the last valid
// day of the target month (2024-01-31 + 1 month = 2024-02-29).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year(), d.Time.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := d.Day()
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// SetDayOfMonth returns the given day within d's month, clamped to the
// month's last day.
func (d Date) SetDayOfMonth(day int) Date {
	if day < 1 {
		day = 1
	}
	if last := DaysIn(d.Year(), d.Time.Month()); day > last {
		day = last
	}
	return NewDate(d.Year(), d.Month(), day)
}

// IsSameMonth reports whether both dates fall in the same calendar month.
func (d Date) IsSameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// MonthEnd returns the last day of d's month.
func (d Date) MonthEnd() Date {
	return d.SetDayOfMonth(31)
}

// MonthIndex counts months since year 0, handy for month arithmetic.
func (d Date) MonthIndex() int {
	return d.Year()*12 + d.Month() - 1
}

// AddDays moves n days.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// Within reports whether start <= d <= end.
func (d Date) Within(start, end Date) bool {
	return !d.Time.Before(start.Time) && !d.Time.After(end.Time)
}

// DaysBetween returns the signed number of days from a to b.
func DaysBetween(a, b Date) int {
	return int(b.Time.Sub(a.Time) / (24 * time.Hour))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MonthKey formats the month as YYYY-MM.
func (d Date) MonthKey() string {
	return d.Format(monthLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
