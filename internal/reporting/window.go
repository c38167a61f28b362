// Package reporting derives profit/loss figures and dashboard series from
// the raw purchase, sales and expense records.
package reporting

import (
	"fmt"
	"time"

	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/shared"
)

// BusinessTZ is the fixed UTC+8 zone every "today" and "this month" boundary
// is computed in.
var BusinessTZ = shared.BusinessTZ

// Window is a half-open [Start, End) interval. Consistent gte/lt boundaries
// keep a record at an instant from being counted twice.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Resolve maps an optional month/week selector onto a concrete window
// anchored to now in the business timezone. A nil result means no date
// filter. Week windows are clamped to the start of the following month, so
// the last week of a 30/31-day month is shorter than seven days.
func Resolve(now time.Time, month, week *int) (*Window, error) {
	if month == nil && week == nil {
		return nil, nil
	}

	local := now.In(BusinessTZ)
	year := local.Year()
	m := local.Month()
	if month != nil {
		if *month < 1 || *month > 12 {
			return nil, fmt.Errorf("reporting: month %d out of range: %w", *month, httpx.ErrValidation)
		}
		m = time.Month(*month)
	}

	firstOfMonth := time.Date(year, m, 1, 0, 0, 0, 0, BusinessTZ)
	firstOfNext := firstOfMonth.AddDate(0, 1, 0)

	if week == nil {
		return &Window{Start: firstOfMonth, End: firstOfNext}, nil
	}
	if *week < 1 || *week > 4 {
		return nil, fmt.Errorf("reporting: week %d out of range: %w", *week, httpx.ErrValidation)
	}

	weekStart := firstOfMonth.AddDate(0, 0, (*week-1)*7)
	weekEnd := weekStart.AddDate(0, 0, 7)
	if weekEnd.After(firstOfNext) {
		weekEnd = firstOfNext
	}
	return &Window{Start: weekStart, End: weekEnd}, nil
}

// DayWindow returns the business-timezone day containing now.
func DayWindow(now time.Time) Window {
	local := now.In(BusinessTZ)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, BusinessTZ)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// MonthToDate returns the window from the first of the current month through
// the end of today.
func MonthToDate(now time.Time) Window {
	local := now.In(BusinessTZ)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, BusinessTZ)
	return Window{Start: start, End: DayWindow(now).End}
}
