/*
window.go - Reporting windows over academic-year quarters

PURPOSE:
  Commission runs are scoped to one quarter of an academic year. The
  academic year starts in July, so its third and fourth quarters fall in
  the NEXT calendar year:

    Quarter 1: July 1      - September 30  (start year)
    Quarter 2: October 1   - December 31   (start year)
    Quarter 3: January 1   - March 31      (start year + 1)
    Quarter 4: April 1     - June 30       (start year + 1)

  A Window is an inclusive [Start, End] date range; the reconciler keeps
  completion records whose completion date falls inside it.
*/
package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// WINDOW - Inclusive date range
// =============================================================================

type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within [Start, End] inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return "[" + w.Start.Format("2006-01-02") + ", " + w.End.Format("2006-01-02") + "]"
}

// =============================================================================
// ACADEMIC QUARTERS
// =============================================================================

type Quarter int

const (
	Quarter1 Quarter = 1 // July - September
	Quarter2 Quarter = 2 // October - December
	Quarter3 Quarter = 3 // January - March
	Quarter4 Quarter = 4 // April - June
)

// QuarterLabels mirrors the selection options offered to operators.
var QuarterLabels = map[Quarter]string{
	Quarter1: "Quarter 1 (July - September)",
	Quarter2: "Quarter 2 (October - December)",
	Quarter3: "Quarter 3 (January - March)",
	Quarter4: "Quarter 4 (April - June)",
}

// QuarterWindow returns the inclusive window for a quarter of the academic
// year beginning July 1 of startYear. Quarters 3 and 4 land in the next
// calendar year.
func QuarterWindow(q Quarter, startYear int) (Window, error) {
	year := startYear
	var startMonth, endMonth time.Month
	var endDay int

	switch q {
	case Quarter1:
		startMonth, endMonth, endDay = time.July, time.September, 30
	case Quarter2:
		startMonth, endMonth, endDay = time.October, time.December, 31
	case Quarter3:
		year++
		startMonth, endMonth, endDay = time.January, time.March, 31
	case Quarter4:
		year++
		startMonth, endMonth, endDay = time.April, time.June, 30
	default:
		return Window{}, fmt.Errorf("%w: quarter %d", ErrInvalidQuarter, q)
	}

	return Window{
		Start: time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, endMonth, endDay, 0, 0, 0, 0, time.UTC),
	}, nil
}

// =============================================================================
// ACADEMIC YEARS - Selectable options for the data-input form
// =============================================================================

// AcademicYear is one selectable year option, e.g. "2025 - 2026".
type AcademicYear struct {
	Label string
	Start int
	End   int
}

// AcademicYears lists the most recent n academic years as of now, newest
// first. The current academic year flips forward once July arrives.
func AcademicYears(now time.Time, n int) []AcademicYear {
	maxYear := now.Year()
	if now.Month() > time.June {
		maxYear++
	}
	years := make([]AcademicYear, 0, n)
	for y := maxYear - 1; y >= maxYear-n; y-- {
		years = append(years, AcademicYear{
			Label: fmt.Sprintf("%d - %d", y, y+1),
			Start: y,
			End:   y + 1,
		})
	}
	return years
}
