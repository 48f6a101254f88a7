package record

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for date-only values (ISO 8601 calendar
// date). Timestamps with a time component use time.RFC3339 instead.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component. It serializes as
// "YYYY-MM-DD", matching how date columns round-trip through JSON, while
// time.Time values keep their full RFC 3339 form.
//
// The zero Date is the zero time.Time's date.
type Date struct {
	t time.Time
}

// NewDate creates a date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date (in the timestamp's
// location).
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// String returns the date in "YYYY-MM-DD" form.
func (d Date) String() string { return d.t.Format(DateLayout) }

// Time returns the date as a UTC midnight timestamp.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool { return d.t.IsZero() }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(data []byte) error {
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
