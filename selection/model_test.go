package selection_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earlypay/advance-engine/orders"
	"github.com/earlypay/advance-engine/selection"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func order(id string, orderDate time.Time, amount int64) orders.OrderRecord {
	return orders.OrderRecord{
		TransactionID: id,
		Amount:        decimal.NewFromInt(amount),
		OrderDate:     orderDate,
	}
}

// fixtureSet spans three weeks starting 2025-03-01.
func fixtureSet() *orders.OrderSet {
	return &orders.OrderSet{Orders: []orders.OrderRecord{
		order("w0-a", day(2025, time.March, 1), 1000),
		order("w0-b", day(2025, time.March, 5), 2000),
		order("w1-a", day(2025, time.March, 10), 3000),
		order("w2-a", day(2025, time.March, 20), 4000),
	}}
}

func ids(selected []orders.OrderRecord) []string {
	out := make([]string, 0, len(selected))
	for _, o := range selected {
		out = append(out, o.TransactionID)
	}
	return out
}

// =============================================================================
// DEFAULT AND RANGE MODE
// =============================================================================

func TestResolve_NoSelectionIncludesEverything(t *testing.T) {
	set := fixtureSet()
	state := selection.NewState()

	selected, total := state.Resolve(set, selection.WeeklyBuckets(set))

	assert.Len(t, selected, 4)
	assert.True(t, total.Equal(decimal.NewFromInt(10000)))
}

func TestResolve_DateRangeIsInclusive(t *testing.T) {
	// GIVEN: A range whose end lands exactly on an order's day
	// THEN: That order is included (end of day, not start)

	set := fixtureSet()
	state := selection.NewState()
	state.SetDateRange(day(2025, time.March, 5), day(2025, time.March, 10))

	selected, total := state.Resolve(set, selection.WeeklyBuckets(set))

	assert.Equal(t, []string{"w0-b", "w1-a"}, ids(selected))
	assert.True(t, total.Equal(decimal.NewFromInt(5000)))
}

func TestResolve_UnusableRangeDegradesToIncludeAll(t *testing.T) {
	set := fixtureSet()
	state := selection.NewState()
	state.SetDateRange(time.Time{}, day(2025, time.March, 10))

	selected, total := state.Resolve(set, selection.WeeklyBuckets(set))

	assert.Len(t, selected, 4, "a half-set range must not silently filter")
	assert.True(t, total.Equal(set.TotalAmount()))
}

// =============================================================================
// BUCKET MODE AND PRECEDENCE
// =============================================================================

func TestResolve_BucketSetOverridesDateRange(t *testing.T) {
	// GIVEN: Both a stored range and a non-empty bucket set
	// THEN: The bucket set wins; the range is ignored entirely

	set := fixtureSet()
	weekly := selection.WeeklyBuckets(set)

	state := selection.NewState()
	state.SetDateRange(day(2025, time.March, 18), day(2025, time.March, 25))
	state.ToggleBucket(0)

	selected, total := state.Resolve(set, weekly)

	assert.Equal(t, []string{"w0-a", "w0-b"}, ids(selected))
	assert.True(t, total.Equal(decimal.NewFromInt(3000)))
}

func TestSetDateRange_ClearsBucketSelection(t *testing.T) {
	state := selection.NewState()
	state.ToggleBucket(1)
	state.SetDateRange(day(2025, time.March, 1), day(2025, time.March, 7))

	assert.False(t, state.BucketMode())
	assert.Empty(t, state.SelectedBuckets())
}

func TestToggleBucket_RoundTripRestoresState(t *testing.T) {
	// Toggling the same bucket twice is exactly a no-op.
	set := fixtureSet()
	weekly := selection.WeeklyBuckets(set)

	state := selection.NewState()
	state.ToggleBucket(1)
	before, beforeTotal := state.Resolve(set, weekly)
	require.Equal(t, []string{"w1-a"}, ids(before))

	state.ToggleBucket(2)
	state.ToggleBucket(2)

	after, afterTotal := state.Resolve(set, weekly)
	assert.Equal(t, ids(before), ids(after))
	assert.True(t, beforeTotal.Equal(afterTotal))
}

func TestResolve_RepeatedCallsReturnIdenticalResults(t *testing.T) {
	// Resolve is pure: with state and inputs unchanged, every call returns
	// the same subset and total. Burst recomputation during a slider drag
	// leans on this.

	set := fixtureSet()
	weekly := selection.WeeklyBuckets(set)

	states := map[string]func(*selection.State){
		"default": func(*selection.State) {},
		"range":   func(s *selection.State) { s.SetDateRange(day(2025, time.March, 4), day(2025, time.March, 12)) },
		"buckets": func(s *selection.State) { s.ToggleBucket(0); s.ToggleBucket(2) },
	}

	for name, arrange := range states {
		t.Run(name, func(t *testing.T) {
			state := selection.NewState()
			arrange(state)

			first, firstTotal := state.Resolve(set, weekly)
			second, secondTotal := state.Resolve(set, weekly)

			assert.Equal(t, ids(first), ids(second))
			assert.True(t, firstTotal.Equal(secondTotal))
		})
	}
}

func TestResolve_BucketUnionCountsOrdersOnce(t *testing.T) {
	set := fixtureSet()
	weekly := selection.WeeklyBuckets(set)

	state := selection.NewState()
	state.ToggleBucket(0)
	state.ToggleBucket(2)

	selected, total := state.Resolve(set, weekly)

	assert.Equal(t, []string{"w0-a", "w0-b", "w2-a"}, ids(selected))
	assert.True(t, total.Equal(decimal.NewFromInt(7000)))
}

func TestResolve_OutOfRangeBucketIndicesAreIgnored(t *testing.T) {
	set := fixtureSet()
	weekly := selection.WeeklyBuckets(set)

	state := selection.NewState()
	state.ToggleBucket(-1)
	state.ToggleBucket(99)
	state.ToggleBucket(1)

	selected, _ := state.Resolve(set, weekly)
	assert.Equal(t, []string{"w1-a"}, ids(selected))
}

func TestClear_ReturnsToIncludeAll(t *testing.T) {
	set := fixtureSet()
	weekly := selection.WeeklyBuckets(set)

	state := selection.NewState()
	state.SetDateRange(day(2025, time.March, 1), day(2025, time.March, 2))
	state.ToggleBucket(0)
	state.Clear()

	selected, _ := state.Resolve(set, weekly)
	assert.Len(t, selected, 4)
	assert.False(t, state.BucketMode())

	start, end := state.Range()
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())
}

// =============================================================================
// SPAN ROUND-TRIP (selection filters by span, never by label)
// =============================================================================

func TestActiveSpans_BucketSpanFiltersItsOwnOrders(t *testing.T) {
	// Every order that a weekly bucket counted must be matched by the span
	// that bucket exposes for filtering. This pins labels and filtering to
	// the same source of truth.

	set := fixtureSet()
	weekly := selection.WeeklyBuckets(set)

	for _, bucket := range weekly {
		state := selection.NewState()
		state.ToggleBucket(bucket.Index)

		_, total := state.Resolve(set, weekly)
		assert.True(t, total.Equal(bucket.Total),
			"bucket %d (%s): span filter total diverges from bucket total", bucket.Index, bucket.Label)
	}
}

func TestActiveSpans_NoUsableSelection(t *testing.T) {
	set := fixtureSet()
	weekly := selection.WeeklyBuckets(set)

	state := selection.NewState()
	spans, ok := state.ActiveSpans(weekly)
	assert.False(t, ok)
	assert.Nil(t, spans)

	// A bucket set pointing only at invalid indices is also no selection.
	state.ToggleBucket(99)
	spans, ok = state.ActiveSpans(weekly)
	assert.False(t, ok)
	assert.Nil(t, spans)
}
