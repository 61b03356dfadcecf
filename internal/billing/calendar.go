package billing

import (
	"time"

	"studiobook/internal/models"
)

// ComputeEndDate returns the renewal end date for a plan starting at start
// under the given billing mode.
//
// Annual periods add one calendar year with the standard library's AddDate
// normalization (a Feb 29 start in a non-leap target year lands on Mar 1).
// Monthly periods add one calendar month; when the target month is shorter
// than the start's day-of-month the result is clamped to the last day of the
// target month (Jan 31 -> Feb 29 in a leap year, Feb 28 otherwise). Time of
// day and location are preserved exactly in both modes.
func ComputeEndDate(start time.Time, mode string) time.Time {
	if mode == models.BillingModeAnnual {
		return start.AddDate(1, 0, 0)
	}

	year, month, day := start.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}

	if last := daysInMonth(year, month); day > last {
		day = last
	}

	hour, min, sec := start.Clock()
	return time.Date(year, month, day, hour, min, sec, start.Nanosecond(), start.Location())
}

// daysInMonth relies on time.Date normalizing day 0 of the following month to
// the last day of month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
