package filter

import (
	"time"

	"github.com/dustin/go-humanize"
)

// DisplayLayout is the calendar format used for dates ("Mar 4, 2025").
const DisplayLayout = "Jan 2, 2006"

type DueInfo struct {
	Display  string
	Relative string
	Overdue  bool
}

// Overdue reports whether due is strictly before now. A due date equal to now is not overdue.
func Overdue(due, now time.Time) bool {
	return !due.After(now) && due.Before(now)
}

// Due derives the display strings for an optional due date; nil when there is none.
func Due(due *time.Time, now time.Time) *DueInfo {
	if due == nil || due.IsZero() {
		return nil
	}
	return &DueInfo{
		Display:  due.Local().Format(DisplayLayout),
		Relative: humanize.RelTime(*due, now, "ago", "from now"),
		Overdue:  Overdue(*due, now),
	}
}
