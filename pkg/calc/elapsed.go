// Package calc holds the interest and settlement arithmetic for loans and
// land-activity groups. Everything here is pure: no storage, no logging and
// no locale handling.
package calc

import (
	"fmt"
	"time"
)

// Elapsed is a calendar breakdown of the time between two dates.
type Elapsed struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

func (e Elapsed) String() string {
	return fmt.Sprintf("%dy %dm %dd", e.Years, e.Months, e.Days)
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month of year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ElapsedCalendarComponents subtracts start from end component-wise.
// A negative day count borrows the length of the month before end's month
// (leap years included); a negative month count borrows a year. When the
// start day is longer than the borrowed month the borrow walks further back.
func ElapsedCalendarComponents(start, end time.Time) (Elapsed, error) {
	s, e := DateOf(start), DateOf(end)
	if e.Before(s) {
		return Elapsed{}, fmt.Errorf("elapsed from %s to %s: %w", s.Format(time.DateOnly), e.Format(time.DateOnly), ErrInvalidRange)
	}

	years := e.Year() - s.Year()
	months := int(e.Month()) - int(s.Month())
	days := e.Day() - s.Day()

	borrowYear, borrowMonth := e.Year(), e.Month()
	for days < 0 {
		borrowMonth--
		if borrowMonth < time.January {
			borrowMonth = time.December
			borrowYear--
		}
		days += DaysIn(borrowYear, borrowMonth)
		months--
	}
	for months < 0 {
		months += 12
		years--
	}

	return Elapsed{Years: years, Months: months, Days: days}, nil
}

// ElapsedSince breaks the span of days starting at origin into calendar
// components. Negative spans count as zero.
func ElapsedSince(origin time.Time, days int) Elapsed {
	if days <= 0 {
		return Elapsed{}
	}
	start := DateOf(origin)
	e, _ := ElapsedCalendarComponents(start, start.AddDate(0, 0, days))
	return e
}

// ElapsedDays returns the number of whole days between the calendar dates of
// start and end. It is negative when end is before start.
func ElapsedDays(start, end time.Time) int {
	return int(DateOf(end).Sub(DateOf(start)).Hours() / 24)
}
