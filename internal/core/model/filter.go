package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the accepted calendar date format (ISO 8601, %F).
const DateLayout = "2006-01-02"

// DateFilterFormat describes the textual form accepted by ParseDateFilter.
const DateFilterFormat = "Date filter format: YYYY-MM-DD..YYYY-MM-DD (time not handled yet)"

var ErrInvalidDateFilter = errors.New("invalid date filter")

// DateFilter retains events whose UTC calendar date is within [Start, End].
type DateFilter struct {
	Start time.Time
	End   time.Time
}

// NewDateFilter truncates both bounds to their UTC date.
func NewDateFilter(start, end time.Time) *DateFilter {
	return &DateFilter{
		Start: dateOf(start),
		End:   dateOf(end),
	}
}

// ParseDateFilter parses "YYYY-MM-DD..YYYY-MM-DD".
func ParseDateFilter(s string) (*DateFilter, error) {
	parts := strings.Split(s, "..")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDateFilter, DateFilterFormat)
	}

	start, err := parseDate(parts[0])
	if err != nil {
		return nil, err
	}
	end, err := parseDate(parts[1])
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidDateFilter, parts[0], parts[1])
	}

	return NewDateFilter(start, end), nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: dates must be in the YYYY-MM-DD format (got %q)",
			ErrInvalidDateFilter, s)
	}
	return d, nil
}

// Contains reports whether the UTC date of t falls within the filter.
// A nil filter contains everything.
func (f *DateFilter) Contains(t time.Time) bool {
	if f == nil {
		return true
	}
	d := dateOf(t)
	return !d.Before(f.Start) && !d.After(f.End)
}

// String renders the filter back into its textual form.
func (f *DateFilter) String() string {
	if f == nil {
		return ""
	}
	return f.Start.Format(DateLayout) + ".." + f.End.Format(DateLayout)
}

func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
