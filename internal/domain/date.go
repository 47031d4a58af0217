package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on every input surface
const DateLayout = "2006-01-02"

// MaxInvestmentDay caps the configured day of month so every month has a valid investment date
const MaxInvestmentDay = 28

// NewDate returns the calendar date at midnight UTC
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to its calendar date in UTC
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, invalidConfig("invalid date %q", s)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysIn returns the number of days in the given month
func DaysIn(year int, month time.Month) int {
	return NewDate(year, month+1, 0).Day()
}

// InvestmentDate returns the investment date for the month containing current.
// The configured day is capped at MaxInvestmentDay, then at the month's last day.
func InvestmentDate(current time.Time, configuredDay int) time.Time {
	day := min(configuredDay, MaxInvestmentDay)
	if day < 1 {
		day = 1
	}
	y, m, _ := current.Date()
	day = min(day, DaysIn(y, m))
	return NewDate(y, m, day)
}

// FirstOfNextMonth returns the first day of the month after t
func FirstOfNextMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return NewDate(y, m+1, 1)
}

// DateRange is an inclusive calendar date range
type DateRange struct {
	From time.Time
	To   time.Time
}

// Validate ensures From is not after To
func (r DateRange) Validate() error {
	if r.From.After(r.To) {
		return invalidConfig("range start %s is after end %s", FormatDate(r.From), FormatDate(r.To))
	}
	return nil
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", FormatDate(r.From), FormatDate(r.To))
}
