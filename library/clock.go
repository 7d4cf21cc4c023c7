package library

import "time"

// Clock supplies the current time. Borrow dates, due dates, return dates and
// notification timestamps are all taken from it.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// stamp normalises a time for storage: UTC, whole seconds. Stored values then
// share one textual layout and compare correctly inside SQLite.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// day truncates t to midnight UTC.
func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// sqlTime renders t in the layout SQLite's date functions understand.
func sqlTime(t time.Time) string {
	return stamp(t).Format("2006-01-02 15:04:05")
}
