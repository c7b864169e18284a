/*
model.go - Selection state and resolution

PURPOSE:
  Holds the active filter over the order set and resolves it into a
  concrete subset plus total.

MODES:
  DateRange: Inclusive calendar bounds, evaluated [start 00:00, end 23:59:59].
  BucketSet: Explicit weekly bucket indices. A non-empty bucket set is
             always authoritative over any stored date range; the only way
             back to range mode is emptying the bucket set.

RESOLUTION SEMANTICS:
  - Bucket mode: union of the selected buckets' spans. An order matching
    any selected bucket is included exactly once.
  - Range mode: orders with start <= orderDate <= end.
  - No selection: every order (the initial/default state).
  - An unusable range (either bound unset) degrades to "all orders" rather
    than erroring; the renderer must always have something to show.

  Resolve is pure: repeated calls with unchanged inputs return identical
  results, which is what keeps burst-recomputation during a slider drag
  safe.
*/
package selection

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/earlypay/advance-engine/orders"
)

// State is the mutable selection for a session. Not safe for concurrent
// mutation; the owning session serializes access.
type State struct {
	rangeStart time.Time
	rangeEnd   time.Time
	buckets    map[int]struct{}
}

// NewState returns the default no-selection state.
func NewState() *State {
	return &State{buckets: map[int]struct{}{}}
}

// SetDateRange switches to range mode, clearing any bucket selection.
func (s *State) SetDateRange(start, end time.Time) {
	s.rangeStart = start
	s.rangeEnd = end
	s.buckets = map[int]struct{}{}
}

// ToggleBucket adds or removes a bucket index. A resulting non-empty set
// makes bucket mode authoritative regardless of any stored range.
func (s *State) ToggleBucket(index int) {
	if _, ok := s.buckets[index]; ok {
		delete(s.buckets, index)
	} else {
		s.buckets[index] = struct{}{}
	}
}

// Clear drops both modes, returning to the include-all default.
func (s *State) Clear() {
	s.rangeStart = time.Time{}
	s.rangeEnd = time.Time{}
	s.buckets = map[int]struct{}{}
}

// BucketMode reports whether a non-empty bucket set is active.
func (s *State) BucketMode() bool { return len(s.buckets) > 0 }

// SelectedBuckets returns the selected indices in ascending order.
func (s *State) SelectedBuckets() []int {
	out := make([]int, 0, len(s.buckets))
	for i := range s.buckets {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Range returns the stored date range bounds. Both zero when unset.
func (s *State) Range() (start, end time.Time) { return s.rangeStart, s.rangeEnd }

// ActiveSpans returns the day spans the current selection filters by.
// ok is false when no filter applies (include-all).
func (s *State) ActiveSpans(weekly []WeeklyBucket) ([]DaySpan, bool) {
	if s.BucketMode() {
		var spans []DaySpan
		for _, i := range s.SelectedBuckets() {
			if i < 0 || i >= len(weekly) || weekly[i].Placeholder {
				continue
			}
			spans = append(spans, weekly[i].Span)
		}
		if len(spans) == 0 {
			return nil, false
		}
		return spans, true
	}
	if s.rangeStart.IsZero() || s.rangeEnd.IsZero() {
		return nil, false
	}
	return []DaySpan{NewDaySpan(s.rangeStart, s.rangeEnd)}, true
}

// Resolve filters the order set down to the active selection and returns
// the subset with its total. Pure and side-effect-free.
func (s *State) Resolve(set *orders.OrderSet, weekly []WeeklyBucket) ([]orders.OrderRecord, decimal.Decimal) {
	spans, filtered := s.ActiveSpans(weekly)
	if !filtered {
		return includeAll(set)
	}

	var selected []orders.OrderRecord
	total := decimal.Zero
	for _, o := range set.Orders {
		for _, span := range spans {
			if span.Contains(o.OrderDate) {
				selected = append(selected, o)
				total = total.Add(o.Amount)
				break
			}
		}
	}
	return selected, total
}

func includeAll(set *orders.OrderSet) ([]orders.OrderRecord, decimal.Decimal) {
	selected := make([]orders.OrderRecord, len(set.Orders))
	copy(selected, set.Orders)
	return selected, set.TotalAmount()
}
