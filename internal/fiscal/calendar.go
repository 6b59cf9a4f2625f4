// Package fiscal maps civil dates onto the April–March fiscal calendar used
// for generation targets.
package fiscal

import (
	"fmt"
	"strings"
	"time"
)

// MonthKey is the lowercase three-letter name of a calendar month.
type MonthKey string

const (
	Jan MonthKey = "jan"
	Feb MonthKey = "feb"
	Mar MonthKey = "mar"
	Apr MonthKey = "apr"
	May MonthKey = "may"
	Jun MonthKey = "jun"
	Jul MonthKey = "jul"
	Aug MonthKey = "aug"
	Sep MonthKey = "sep"
	Oct MonthKey = "oct"
	Nov MonthKey = "nov"
	Dec MonthKey = "dec"
)

var calendarKeys = [12]MonthKey{Jan, Feb, Mar, Apr, May, Jun, Jul, Aug, Sep, Oct, Nov, Dec}

var fiscalKeys = [12]MonthKey{Apr, May, Jun, Jul, Aug, Sep, Oct, Nov, Dec, Jan, Feb, Mar}

// Order returns the twelve month keys in fiscal order, apr first.
func Order() []MonthKey {
	out := make([]MonthKey, len(fiscalKeys))
	copy(out, fiscalKeys[:])
	return out
}

// KeyFor returns the key of a calendar month.
func KeyFor(m time.Month) MonthKey {
	return calendarKeys[int(m)-1]
}

// MonthKeyOf returns the month key of t.
func MonthKeyOf(t time.Time) MonthKey {
	return KeyFor(t.Month())
}

// Month converts the key back to a calendar month. Unknown keys return 0.
func (k MonthKey) Month() time.Month {
	for i, c := range calendarKeys {
		if c == k {
			return time.Month(i + 1)
		}
	}
	return 0
}

// Label is the upper-case display form ("APR").
func (k MonthKey) Label() string { return strings.ToUpper(string(k)) }

func (k MonthKey) Valid() bool { return k.Month() != 0 }

// YearOf returns the fiscal year containing t: the year in which its April falls.
func YearOf(t time.Time) int {
	if t.Month() <= time.March {
		return t.Year() - 1
	}
	return t.Year()
}

// DaysInMonth is leap-year aware.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CalendarMonth resolves a fiscal month to its calendar year and month.
// January to March belong to the calendar year after the fiscal year starts.
func CalendarMonth(fiscalYear int, key MonthKey) (int, time.Month) {
	m := key.Month()
	if m >= time.January && m <= time.March {
		return fiscalYear + 1, m
	}
	return fiscalYear, m
}

// Range returns the half-open interval [1 Apr fy, 1 Apr fy+1) in UTC.
func Range(fiscalYear int) (time.Time, time.Time) {
	start := time.Date(fiscalYear, time.April, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// Normalize keeps the civil date of t in its own location and returns
// midnight UTC of that date. Every stored reading date goes through here.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts "2006-01-02" or RFC 3339 and returns the normalized civil date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return Normalize(t), nil
}

// ParseMonthName accepts "Apr", "april", "APR-24" style headers and returns
// the matching key.
func ParseMonthName(s string) (MonthKey, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return "", false
	}
	k := MonthKey(s[:3])
	if !k.Valid() {
		return "", false
	}
	rest := s[3:]
	if rest == "" || rest[0] == '-' || rest[0] == ' ' || rest[0] == '\'' || rest[0] == '.' {
		return k, true
	}
	full := strings.ToLower(k.Month().String())
	if strings.HasPrefix(s, full) {
		tail := s[len(full):]
		if tail == "" || tail[0] == '-' || tail[0] == ' ' {
			return k, true
		}
	}
	if k == Sep && strings.HasPrefix(s, "sept") {
		return k, true
	}
	return "", false
}
