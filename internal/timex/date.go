package timex

import "time"

// DateKeyLayout is the calendar-date key format used for store buckets and
// for comparisons against "today". Keys in this layout compare correctly as
// plain strings.
const DateKeyLayout = "2006-01-02"

// DateKey returns the calendar-date bucket key for t.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// Today returns the date key of the local "today" per the given clock.
func Today(now func() time.Time) string {
	return DateKey(now())
}

// BeforeToday reports whether the date key d falls strictly before today.
// Keys are compared as strings; both sides come from DateKeyLayout.
func BeforeToday(d string, now func() time.Time) bool {
	return d < Today(now)
}

// AfterToday reports whether the date key d falls strictly after today.
func AfterToday(d string, now func() time.Time) bool {
	return d > Today(now)
}
