// Package calendar provides the canonical local-day representation used by
// every other package: dates are "YYYY-MM-DD" strings and times are "HH:mm"
// strings, both in the device-local zone. Day comparisons always truncate to
// the civil date; millisecond deltas are never used because they drift
// across DST changes.
package calendar

import (
	"fmt"
	"time"

	"github.com/lvlup-app/lvlup/internal/domain"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Clock abstracts "now" so services can be tested at fixed instants.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the configured location.
type SystemClock struct {
	Loc *time.Location
}

// Now returns the current time in the clock's location (time.Local if unset).
func (c SystemClock) Now() time.Time {
	if c.Loc != nil {
		return time.Now().In(c.Loc)
	}
	return time.Now()
}

// FixedClock always returns the same instant. Set moves it.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) { c.T = t }

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// FormatDate renders t's civil date in t's own location.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// FormatTime renders t's wall-clock time as HH:mm.
func FormatTime(t time.Time) string { return t.Format(TimeLayout) }

// Today returns now's calendar date.
func Today(now time.Time) string { return FormatDate(now) }

// Yesterday returns the calendar date before now's.
func Yesterday(now time.Time) string { return AddDays(Today(now), -1) }

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, domain.NewValidationError("date", s, "expected YYYY-MM-DD")
	}
	return t, nil
}

// ValidateDate checks the format of a YYYY-MM-DD string. Empty is allowed.
func ValidateDate(s string) error {
	if s == "" {
		return nil
	}
	_, err := civil(s)
	return err
}

// ParseTime parses an HH:mm string into hour and minute.
func ParseTime(s string) (hour, minute int, err error) {
	t, perr := time.Parse(TimeLayout, s)
	if perr != nil {
		return 0, 0, domain.NewValidationError("time", s, "expected HH:mm")
	}
	return t.Hour(), t.Minute(), nil
}

// ValidateTime checks the format of an HH:mm string. Empty is allowed.
func ValidateTime(s string) error {
	if s == "" {
		return nil
	}
	_, _, err := ParseTime(s)
	return err
}

// NormalizeTime parses s and returns it zero-padded as HH:mm, so stored
// times compare correctly as strings. Empty stays empty.
func NormalizeTime(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	h, m, err := ParseTime(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// IsToday reports whether d is now's calendar date.
func IsToday(d string, now time.Time) bool { return d != "" && d == Today(now) }

// IsYesterday reports whether d is the calendar date before now's.
func IsYesterday(d string, now time.Time) bool { return d != "" && d == Yesterday(now) }

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b string) (int, error) {
	ta, err := civil(a)
	if err != nil {
		return 0, err
	}
	tb, err := civil(b)
	if err != nil {
		return 0, err
	}
	days := int((tb.Unix() - ta.Unix()) / 86400)
	if days < 0 {
		days = -days
	}
	return days, nil
}

// DayOfWeek returns 0 for Sunday through 6 for Saturday.
func DayOfWeek(d string) (int, error) {
	t, err := civil(d)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}

// Combine joins a date and an optional time into an instant in loc.
// An empty time means the start of the day.
func Combine(date, tm string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	if tm == "" {
		return day, nil
	}
	h, m, err := ParseTime(tm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location()), nil
}

// AddDays shifts a YYYY-MM-DD date by n calendar days. Malformed input is
// returned unchanged.
func AddDays(d string, n int) string {
	t, err := civil(d)
	if err != nil {
		return d
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// MonthRange returns the first and last calendar dates of a month.
func MonthRange(year, month int) (string, string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout)
}

// WeekStart returns the Monday on or before now's date.
func WeekStart(now time.Time) string {
	wd := int(now.Weekday())
	offset := (wd + 6) % 7 // Monday = 0
	return AddDays(Today(now), -offset)
}

// SameWeek reports whether d falls in now's Monday-based week.
func SameWeek(d string, now time.Time) bool {
	if d == "" {
		return false
	}
	start := WeekStart(now)
	return d >= start && d <= AddDays(start, 6)
}

// SameMonth reports whether d falls in now's calendar month.
func SameMonth(d string, now time.Time) bool {
	return len(d) >= 7 && d[:7] == now.Format("2006-01")
}

// civil parses a date as a UTC midnight so day arithmetic ignores DST.
func civil(d string) (time.Time, error) {
	t, err := time.Parse(DateLayout, d)
	if err != nil {
		return time.Time{}, domain.NewValidationError("date", d, "expected YYYY-MM-DD")
	}
	return t, nil
}
