package units

import "time"

// AddMonths advances t by n calendar months, then clamps the day-of-month to
// the last valid day of the resulting month. This
// deliberately does not use time.Time.AddDate, whose month-overflow
// semantics roll excess days into the following month (e.g. Jan 31 + 1
// month would become Mar 3 instead of the clamped Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	day := t.Day()
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := firstOfMonth.AddDate(0, n, 0)
	lastDay := daysInMonth(target.Year(), target.Month())
	if day > lastDay {
		day = lastDay
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddYears advances t by n calendar years with the same day-of-month clamp
// as AddMonths (pinned vector: 2000-02-29 + 100y -> 2100-02-28).
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, n*12)
}

func daysInMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfMonth := firstOfNext.AddDate(0, 0, -1)
	return lastOfMonth.Day()
}
