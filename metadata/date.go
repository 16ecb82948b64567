// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import (
	"fmt"
	"time"
)

// Date is a calendar date with no zone attached. Its textual form
// (YYYY-MM-DD) doubles as the storage form, which keeps lexicographic and
// chronological order in agreement.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of the given instant in its own zone.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses the YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInputValidation.New("invalid date %q: %v", s, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Validate checks that the date names a real calendar day.
func (d Date) Validate() error {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	if DateOf(t) != d {
		return ErrInputValidation.New("invalid date %v", d)
	}
	return nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

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
