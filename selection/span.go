/*
Package selection maintains the current order filter and the bucketed views
of the order set.

PURPOSE:
  Two interchangeable selection models narrow the order set: a continuous
  date range or a discrete set of weekly buckets. This package resolves
  whichever model is active into a concrete order subset plus total, and
  derives the daily/weekly bucket views that charting and bar selection
  are built on.

KEY CONCEPTS IN THIS FILE (span.go):
  - DaySpan: An inclusive calendar span at day granularity. The span type
    is the source of truth for a weekly bucket; its human-readable label
    is rendered FROM the span and never parsed back. This replaces a
    label-string round-trip that was a standing source of filter bugs.

SEE ALSO:
  - buckets.go: Daily and weekly bucket derivation
  - model.go: Selection state and resolution
*/
package selection

import (
	"fmt"
	"time"
)

// DaySpan is an inclusive calendar span. Start and End are day anchors; the
// span covers [Start 00:00:00, End 23:59:59] in UTC.
type DaySpan struct {
	Start time.Time
	End   time.Time
}

// NewDaySpan builds a span from two instants, truncated to their days.
func NewDaySpan(start, end time.Time) DaySpan {
	return DaySpan{Start: dayOf(start), End: dayOf(end)}
}

// Contains reports whether the instant falls inside the span, inclusive of
// both boundary days.
func (s DaySpan) Contains(t time.Time) bool {
	if s.Start.IsZero() || s.End.IsZero() {
		return false
	}
	return !t.Before(s.Start) && t.Before(s.End.AddDate(0, 0, 1))
}

// IsZero reports whether the span is unset.
func (s DaySpan) IsZero() bool { return s.Start.IsZero() && s.End.IsZero() }

// Label renders the span in the short "Jan 1 - Jan 7" form used by bar
// selection. Display only: filtering always goes through Contains.
func (s DaySpan) Label() string {
	return fmt.Sprintf("%s - %s", s.Start.Format("Jan 2"), s.End.Format("Jan 2"))
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
