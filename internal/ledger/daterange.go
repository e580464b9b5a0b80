package ledger

import (
	"time"

	apperrors "churchadmin/internal/errors"
)

// DateLayout is the wire format of domain dates.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange builds a range, rejecting one that ends before it starts.
func NewDateRange(from, to time.Time) (DateRange, error) {
	from, to = startOfDay(from), startOfDay(to)
	if to.Before(from) {
		return DateRange{}, apperrors.NewValidationError("end_date", "end date must be on or after start date")
	}
	return DateRange{From: from, To: to}, nil
}

// MonthOf returns the calendar month containing now, in now's location.
func MonthOf(now time.Time) DateRange {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return DateRange{From: first, To: first.AddDate(0, 1, -1)}
}

// YearOf returns the calendar year containing now.
func YearOf(now time.Time) DateRange {
	first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return DateRange{From: first, To: time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location())}
}

// LastMonths returns the n months ending today.
func LastMonths(now time.Time, n int) DateRange {
	today := startOfDay(now)
	return DateRange{From: today.AddDate(0, -n, 0), To: today}
}

// Contains reports whether t falls on a date within the range. The zero range
// contains everything.
func (r DateRange) Contains(t time.Time) bool {
	if r.IsZero() {
		return true
	}
	k := dateKey(t)
	return dateKey(r.From) <= k && k <= dateKey(r.To)
}

// Resolve fills the unset ends of r from def and rejects an inverted result.
func (r DateRange) Resolve(def DateRange) (DateRange, error) {
	from, to := r.From, r.To
	if from.IsZero() {
		from = def.From
	}
	if to.IsZero() {
		to = def.To
	}
	return NewDateRange(from, to)
}

// IsZero reports whether the range is unset.
func (r DateRange) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// Bounds returns the range as wire-format dates.
func (r DateRange) Bounds() (string, string) {
	return r.From.Format(DateLayout), r.To.Format(DateLayout)
}

// ParseDate parses a wire-format date in the server's local time zone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
