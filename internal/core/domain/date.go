package domain

import (
	"errors"
	"time"
)

// DayFormat is the canonical calendar-date key used throughout the ledger.
const DayFormat = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// ParseDay parses a canonical YYYY-MM-DD key into a UTC midnight instant.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t.UTC(), nil
}

// FormatDay renders an instant as its canonical YYYY-MM-DD key.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// PrevDay returns the key of the calendar day before the given key.
// The key must already be validated.
func PrevDay(day string) string {
	t, _ := time.Parse(DayFormat, day)
	return t.AddDate(0, 0, -1).Format(DayFormat)
}

// DaysBetween returns b - a in whole calendar days. Both keys must be valid.
func DaysBetween(a, b string) int {
	ta, _ := time.Parse(DayFormat, a)
	tb, _ := time.Parse(DayFormat, b)
	return int(tb.Sub(ta).Hours() / 24)
}
